package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile reads file contents from the sandboxed directories.
type ReadFile struct {
	sandbox *Sandbox
}

// NewReadFile creates a new read tool.
func NewReadFile(sandbox *Sandbox) *ReadFile {
	return &ReadFile{sandbox: sandbox}
}

func (r *ReadFile) Name() string {
	return "read_file"
}

func (r *ReadFile) Description() string {
	return `Read the contents of a file. Only paths inside the allowed workspace directories are accessible.
Output is truncated to 5000 characters.`
}

func (r *ReadFile) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "Path to the file to read"
			}
		},
		"required": ["path"]
	}`)
}

type readFileParams struct {
	Path string `json:"path"`
}

func (r *ReadFile) Execute(ctx context.Context, params json.RawMessage) *Result {
	var p readFileParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &Result{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}
	}

	path := strings.TrimSpace(p.Path)
	if path == "" {
		return &Result{Content: "path is required", IsError: true}
	}

	resolved, err := r.sandbox.Resolve(path)
	if err != nil {
		return &Result{Content: err.Error(), IsError: true}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return &Result{Content: fmt.Sprintf("file not found: %s", p.Path), IsError: true}
		}
		return &Result{Content: fmt.Sprintf("cannot access file: %v", err), IsError: true}
	}
	if info.IsDir() {
		return &Result{Content: fmt.Sprintf("%s is a directory, not a file", p.Path), IsError: true}
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return &Result{Content: fmt.Sprintf("failed to read file: %v", err), IsError: true}
	}

	return &Result{Content: truncate(string(content), readOutputLimit)}
}

// WriteFile writes content to a file inside the sandboxed directories.
type WriteFile struct {
	sandbox *Sandbox
}

// NewWriteFile creates a new write tool.
func NewWriteFile(sandbox *Sandbox) *WriteFile {
	return &WriteFile{sandbox: sandbox}
}

func (w *WriteFile) Name() string {
	return "write_file"
}

func (w *WriteFile) Description() string {
	return `Write content to a file, creating parent directories as needed.
Overwrites existing files. Only paths inside the allowed workspace directories are accessible.`
}

func (w *WriteFile) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "Path to the file to write"
			},
			"content": {
				"type": "string",
				"description": "Content to write to the file"
			}
		},
		"required": ["path", "content"]
	}`)
}

type writeFileParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (w *WriteFile) Execute(ctx context.Context, params json.RawMessage) *Result {
	var p writeFileParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &Result{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}
	}

	path := strings.TrimSpace(p.Path)
	if path == "" {
		return &Result{Content: "path is required", IsError: true}
	}

	resolved, err := w.sandbox.Resolve(path)
	if err != nil {
		return &Result{Content: err.Error(), IsError: true}
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return &Result{Content: fmt.Sprintf("failed to create directory: %v", err), IsError: true}
	}

	if err := os.WriteFile(resolved, []byte(p.Content), 0644); err != nil {
		return &Result{Content: fmt.Sprintf("failed to write file: %v", err), IsError: true}
	}

	return &Result{Content: fmt.Sprintf("wrote %d bytes to %s", len(p.Content), p.Path)}
}
