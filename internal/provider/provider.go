// Package provider defines the LLM backend interface, the concrete
// adapters, and the fallback call layer.
package provider

import (
	"context"
	"encoding/json"
)

// Provider is any LLM backend that can generate chat completions.
type Provider interface {
	// Chat sends a request and returns the complete response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the backend name (e.g., "groq", "anthropic").
	Name() string

	// Models returns the list of known model IDs.
	Models() []string
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role       string      // "user", "assistant"
	Content    string      // Text content
	ToolCalls  []ToolCall  // Tool calls made by assistant
	ToolResult *ToolResult // Result of tool execution
}

// ContentBlock represents a block of content in a response.
type ContentBlock struct {
	Type    string    // "text", "tool_use"
	Text    string    // For text blocks
	ToolUse *ToolCall // For tool_use blocks
}

// ToolDefinition defines a tool that the model can use.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult represents the result of executing a tool.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ChatResponse represents a complete chat response.
type ChatResponse struct {
	ID         string
	Content    []ContentBlock
	StopReason string
	Usage      Usage
}

// Usage tracks token usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Text returns the concatenated text blocks of a response.
func (r *ChatResponse) Text() string {
	var out string
	for _, block := range r.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}

// ToolCalls returns the tool-use blocks of a response, in request order.
func (r *ChatResponse) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, block := range r.Content {
		if block.Type == "tool_use" && block.ToolUse != nil {
			calls = append(calls, *block.ToolUse)
		}
	}
	return calls
}
