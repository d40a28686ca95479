package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type panicTool struct{}

func (p *panicTool) Name() string                 { return "panic_tool" }
func (p *panicTool) Description() string          { return "always panics" }
func (p *panicTool) Schema() json.RawMessage      { return json.RawMessage(`{}`) }
func (p *panicTool) Execute(ctx context.Context, params json.RawMessage) *Result {
	panic("boom")
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()

	res := r.Execute(context.Background(), "nonexistent", nil)
	if !res.IsError {
		t.Error("expected error result")
	}
	if !strings.Contains(res.Content, "unknown tool: nonexistent") {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestRegistry_RecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&panicTool{})

	res := r.Execute(context.Background(), "panic_tool", nil)
	if !res.IsError {
		t.Error("expected error result")
	}
	if !strings.Contains(res.Content, "boom") {
		t.Errorf("Content = %q, want panic message", res.Content)
	}
}

func TestRegistry_DefaultCatalogue(t *testing.T) {
	dir := t.TempDir()
	r := NewDefaultRegistry(dir, []string{dir})

	want := []string{"execute_shell", "read_file", "write_file", "git_operation", "web_fetch"}
	tools := r.All()
	if len(tools) != len(want) {
		t.Fatalf("len(All()) = %d, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name() != name {
			t.Errorf("tools[%d].Name() = %q, want %q", i, tools[i].Name(), name)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate under limit = %q", got)
	}
	if got := truncate(strings.Repeat("a", 100), 10); len(got) != 10 {
		t.Errorf("truncate over limit, len = %d", len(got))
	}
}
