package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/memory"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/provider"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/session"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/tool"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []*provider.ChatResponse
	requests  []*provider.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return &provider.ChatResponse{Content: []provider.ContentBlock{{Type: "text", Text: "done"}}}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) Name() string     { return "scripted" }
func (p *scriptedProvider) Models() []string { return nil }

// echoTool records its input and returns a fixed result.
type echoTool struct {
	lastInput json.RawMessage
}

func (e *echoTool) Name() string            { return "echo" }
func (e *echoTool) Description() string     { return "echoes" }
func (e *echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (e *echoTool) Execute(ctx context.Context, params json.RawMessage) *tool.Result {
	e.lastInput = params
	return &tool.Result{Content: "echo result"}
}

func textResponse(text string) *provider.ChatResponse {
	return &provider.ChatResponse{
		Content:    []provider.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func toolResponse(id, name, input string) *provider.ChatResponse {
	return &provider.ChatResponse{
		Content: []provider.ContentBlock{{
			Type:    "tool_use",
			ToolUse: &provider.ToolCall{ID: id, Name: name, Input: json.RawMessage(input)},
		}},
		StopReason: "tool_use",
	}
}

func newTestLoop(t *testing.T, prov provider.Provider, registry *tool.Registry) (*Loop, *session.Store) {
	t.Helper()
	store := session.NewStore(t.TempDir())
	if registry == nil {
		registry = tool.NewRegistry()
	}
	loop := New(Config{
		Provider: prov,
		Tools:    registry,
		Store:    store,
		Memory:   memory.NewFileMemory(t.TempDir()),
		Logger:   zerolog.Nop(),
	})
	return loop, store
}

func TestProcessTurn_SimpleReply(t *testing.T) {
	prov := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("hi there")}}
	loop, store := newTestLoop(t, prov, nil)

	reply := loop.ProcessTurn(context.Background(), "slack", "U123", "hello")
	if reply != "hi there" {
		t.Errorf("reply = %q, want %q", reply, "hi there")
	}

	conv, err := store.Load("slack_U123")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Role != "user" || conv.Messages[0].Content != "hello" {
		t.Errorf("Messages[0] = %+v", conv.Messages[0])
	}
	if conv.Messages[1].Role != "assistant" || conv.Messages[1].Content != "hi there" {
		t.Errorf("Messages[1] = %+v", conv.Messages[1])
	}

	// One snapshot per turn.
	n, err := store.SnapshotCount("slack_U123")
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if n != 1 {
		t.Errorf("SnapshotCount = %d, want 1", n)
	}
}

func TestProcessTurn_ToolRoundTrip(t *testing.T) {
	echo := &echoTool{}
	registry := tool.NewRegistry()
	registry.Register(echo)

	prov := &scriptedProvider{responses: []*provider.ChatResponse{
		toolResponse("call_1", "echo", `{"text":"ping"}`),
		textResponse("the tool said: echo result"),
	}}
	loop, store := newTestLoop(t, prov, registry)

	reply := loop.ProcessTurn(context.Background(), "terminal", "local", "run the tool")
	if reply != "the tool said: echo result" {
		t.Errorf("reply = %q", reply)
	}

	if string(echo.lastInput) != `{"text":"ping"}` {
		t.Errorf("tool input = %s", echo.lastInput)
	}

	conv, err := store.Load("terminal_local")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// user, tool, assistant
	if len(conv.Messages) != 3 {
		t.Fatalf("persisted %d messages, want 3: %+v", len(conv.Messages), conv.Messages)
	}
	if conv.Messages[1].Role != "tool" || conv.Messages[1].Content != "echo result" {
		t.Errorf("tool message = %+v", conv.Messages[1])
	}
	if conv.Messages[1].Metadata["tool"] != "echo" {
		t.Errorf("tool metadata = %v", conv.Messages[1].Metadata)
	}

	// The second provider request must carry the structured tool result.
	if len(prov.requests) != 2 {
		t.Fatalf("provider called %d times, want 2", len(prov.requests))
	}
	last := prov.requests[1].Messages
	found := false
	for _, m := range last {
		if m.ToolResult != nil && m.ToolResult.ToolUseID == "call_1" && m.ToolResult.Content == "echo result" {
			found = true
		}
	}
	if !found {
		t.Error("second request missing structured tool result")
	}
}

func TestProcessTurn_ProviderFailure(t *testing.T) {
	loop, store := newTestLoop(t, &failingProvider{}, nil)

	reply := loop.ProcessTurn(context.Background(), "slack", "U1", "hello")
	if reply == "" || !strings.Contains(reply, "problem") {
		t.Errorf("reply = %q, want user-facing error text", reply)
	}

	conv, err := store.Load("slack_U1")
	if err != nil {
		t.Fatalf("failed turn must still persist: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(conv.Messages))
	}
	last := conv.Messages[1]
	if last.Role != "assistant" || last.Metadata["error"] != "true" {
		t.Errorf("error message = %+v", last)
	}
}

type failingProvider struct{}

func (p *failingProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	return nil, context.DeadlineExceeded
}
func (p *failingProvider) Name() string     { return "failing" }
func (p *failingProvider) Models() []string { return nil }

func TestProcessTurn_PersistFailureStillReplies(t *testing.T) {
	// A regular file where the sessions dir should be makes every save fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "sessions")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	prov := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("still here")}}
	loop := New(Config{
		Provider: prov,
		Tools:    tool.NewRegistry(),
		Store:    session.NewStore(blocked),
		Memory:   memory.NewFileMemory(t.TempDir()),
		Logger:   zerolog.Nop(),
	})

	reply := loop.ProcessTurn(context.Background(), "slack", "U5", "hello")
	if reply != "still here" {
		t.Errorf("reply = %q, want the model's answer despite the failed save", reply)
	}
}

func TestProcessTurn_MemoryInSystemPrompt(t *testing.T) {
	prov := &scriptedProvider{responses: []*provider.ChatResponse{textResponse("ok")}}

	memDir := t.TempDir()
	mem := memory.NewFileMemory(memDir)
	if err := mem.Save("User's name is Sam."); err != nil {
		t.Fatalf("Save memory: %v", err)
	}

	store := session.NewStore(t.TempDir())
	loop := New(Config{
		Provider: prov,
		Tools:    tool.NewRegistry(),
		Store:    store,
		Memory:   mem,
		Logger:   zerolog.Nop(),
	})

	loop.ProcessTurn(context.Background(), "slack", "U2", "hi")
	if len(prov.requests) != 1 {
		t.Fatalf("provider called %d times", len(prov.requests))
	}
	if !strings.Contains(prov.requests[0].System, "Sam") {
		t.Error("system prompt missing memory content")
	}
}

func TestProcessTurn_SecondTurnSeesHistory(t *testing.T) {
	prov := &scriptedProvider{responses: []*provider.ChatResponse{
		textResponse("first reply"),
		textResponse("second reply"),
	}}
	loop, store := newTestLoop(t, prov, nil)

	loop.ProcessTurn(context.Background(), "slack", "U3", "first")
	loop.ProcessTurn(context.Background(), "slack", "U3", "second")

	// Second request carries the whole transcript so far.
	second := prov.requests[1].Messages
	if len(second) != 3 {
		t.Fatalf("second request has %d messages, want 3", len(second))
	}
	if second[0].Content != "first" || second[1].Content != "first reply" || second[2].Content != "second" {
		t.Errorf("transcript order wrong: %+v", second)
	}

	n, err := store.SnapshotCount("slack_U3")
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if n != 2 {
		t.Errorf("SnapshotCount = %d, want 2", n)
	}
}
