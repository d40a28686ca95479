package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestShell_DenyList(t *testing.T) {
	sh := NewShell(t.TempDir())

	tests := []struct {
		name    string
		command string
	}{
		{"rm -rf", "rm -rf /tmp/x"},
		{"dd", "dd if=/dev/zero of=/dev/sda"},
		{"shutdown", "sudo shutdown -h now"},
		{"reboot", "reboot"},
		{"device write", "echo garbage > /dev/sda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, _ := json.Marshal(shellParams{Command: tt.command})
			res := sh.Execute(context.Background(), params)

			if !res.IsError {
				t.Error("expected blocked command to produce an error result")
			}
			if !strings.Contains(res.Content, "blocked") {
				t.Errorf("Content = %q, want rejection message", res.Content)
			}
		})
	}
}

func TestShell_EmptyCommand(t *testing.T) {
	sh := NewShell(t.TempDir())

	res := sh.Execute(context.Background(), json.RawMessage(`{"command": "  "}`))
	if !res.IsError {
		t.Error("expected error result for empty command")
	}
}

func TestShell_Stdout(t *testing.T) {
	sh := NewShell(t.TempDir())

	params, _ := json.Marshal(shellParams{Command: "echo hello"})
	res := sh.Execute(context.Background(), params)

	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if res.Content != "hello" {
		t.Errorf("Content = %q, want %q", res.Content, "hello")
	}
}

func TestShell_StderrOnFailure(t *testing.T) {
	sh := NewShell(t.TempDir())

	params, _ := json.Marshal(shellParams{Command: "echo oops >&2; exit 1"})
	res := sh.Execute(context.Background(), params)

	if !res.IsError {
		t.Fatal("expected error result for non-zero exit")
	}
	if !strings.Contains(res.Content, "oops") {
		t.Errorf("Content = %q, want stderr output", res.Content)
	}
}

func TestShell_OutputTruncated(t *testing.T) {
	sh := NewShell(t.TempDir())

	params, _ := json.Marshal(shellParams{Command: "yes x | head -5000"})
	res := sh.Execute(context.Background(), params)

	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if len(res.Content) > shellOutputLimit {
		t.Errorf("output length = %d, want <= %d", len(res.Content), shellOutputLimit)
	}
}

func TestShell_InvalidParams(t *testing.T) {
	sh := NewShell(t.TempDir())

	res := sh.Execute(context.Background(), json.RawMessage(`{not json`))
	if !res.IsError {
		t.Error("expected error result for malformed params")
	}
}
