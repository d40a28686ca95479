// Package memory manages the assistant's long-lived notes: a single
// MEMORY.md document in the workspace that is injected into every system
// prompt and editable through the dashboard.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const memoryFile = "MEMORY.md"

// FileMemory stores the memory document on the filesystem.
type FileMemory struct {
	workspaceDir string
}

// NewFileMemory creates a filesystem-backed memory rooted at the workspace.
func NewFileMemory(workspaceDir string) *FileMemory {
	return &FileMemory{workspaceDir: workspaceDir}
}

// Path returns the absolute location of the memory document.
func (m *FileMemory) Path() string {
	return filepath.Join(m.workspaceDir, memoryFile)
}

// Load returns the memory document. A missing file is an empty memory,
// not an error.
func (m *FileMemory) Load() (string, error) {
	content, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", memoryFile, err)
	}
	return string(content), nil
}

// Save replaces the memory document.
func (m *FileMemory) Save(content string) error {
	if err := os.MkdirAll(m.workspaceDir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace dir: %w", err)
	}
	if err := os.WriteFile(m.Path(), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", memoryFile, err)
	}
	return nil
}

// Append adds a note to the end of the memory document.
func (m *FileMemory) Append(note string) error {
	current, err := m.Load()
	if err != nil {
		return err
	}

	updated := strings.TrimRight(current, "\n")
	if updated != "" {
		updated += "\n\n"
	}
	updated += strings.TrimSpace(note) + "\n"
	return m.Save(updated)
}

// BuildSystemPrompt combines the base persona with the memory document.
func BuildSystemPrompt(memory string) string {
	memory = strings.TrimSpace(memory)
	if memory == "" {
		return defaultSystemPrompt
	}
	return defaultSystemPrompt + "\n\n---\n\n# Memory\n\n" + memory
}

const defaultSystemPrompt = `You are Nanobot, a personal assistant.

You have access to tools for:
- Running shell commands in the workspace
- Reading and writing files
- Safe git operations
- Fetching web pages

Be direct, efficient, and proactive. Execute tasks thoroughly:
- Take action immediately when the request is clear
- Break complex tasks into steps and execute them
- Report results concisely
- Ask clarifying questions only when truly necessary

Keep durable facts about the user in your memory notes so future
conversations start with context.`
