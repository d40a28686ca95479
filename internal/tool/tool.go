// Package tool implements the sandboxed tool execution gate: a fixed
// catalogue of local actions the model may request, each of which always
// returns a bounded text result.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is one action the model can invoke.
type Tool interface {
	// Name returns the tool name (e.g., "execute_shell").
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Schema returns the JSON Schema for tool parameters.
	Schema() json.RawMessage

	// Execute runs the tool. Failures are reported in the Result, never as
	// an error: the result text is fed straight back into the conversation.
	Execute(ctx context.Context, params json.RawMessage) *Result
}

// Result is the outcome of tool execution.
type Result struct {
	Content string
	IsError bool
}

// Output limits, in characters. Results go back into the transcript, so
// every tool caps what it returns.
const (
	shellOutputLimit = 2000
	readOutputLimit  = 5000
	fetchOutputLimit = 3000
)

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// Registry is the closed set of available tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Execute runs the named tool. An unknown name or a panicking tool is
// converted to an error result; callers never see an error or a panic.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = &Result{Content: fmt.Sprintf("tool %s failed: %v", name, rec), IsError: true}
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		return &Result{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}
	}

	return t.Execute(ctx, params)
}

// NewDefaultRegistry returns the standard nanobot catalogue: shell, file
// read/write, git, and web fetch.
func NewDefaultRegistry(workDir string, allowedBases []string) *Registry {
	sandbox := NewSandbox(allowedBases)

	r := NewRegistry()
	r.Register(NewShell(workDir))
	r.Register(NewReadFile(sandbox))
	r.Register(NewWriteFile(sandbox))
	r.Register(NewGit(workDir))
	r.Register(NewWebFetch())
	return r
}
