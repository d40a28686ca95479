package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Groq implements the Provider interface using Groq's OpenAI-compatible
// API. It is the preferred backend.
type Groq struct {
	client *openai.Client
	model  string
}

// GroqConfig holds configuration for the Groq provider.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewGroq creates a new Groq provider.
func NewGroq(cfg GroqConfig) (*Groq, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
	)

	model := cfg.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	return &Groq{
		client: &client,
		model:  model,
	}, nil
}

func (g *Groq) Name() string {
	return "groq"
}

func (g *Groq) Models() []string {
	return []string{
		"llama-3.3-70b-versatile",
		"llama-3.1-8b-instant",
		"mixtral-8x7b-32768",
		"gemma2-9b-it",
	}
}

// Chat sends a non-streaming request.
func (g *Groq) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := g.buildMessages(req)
	tools := g.buildTools(req.Tools)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	params.MaxTokens = openai.Int(int64(maxTokens))
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("groq chat failed: %w", err)
	}

	return g.parseResponse(resp), nil
}

func (g *Groq) buildMessages(req *ChatRequest) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "user":
			if msg.ToolResult != nil {
				messages = append(messages, openai.ToolMessage(msg.ToolResult.ToolUseID, msg.ToolResult.Content))
			} else {
				messages = append(messages, openai.UserMessage(msg.Content))
			}
		case "assistant":
			if len(msg.ToolCalls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(tc.Input),
						},
					}
				}
				assistant := openai.ChatCompletionAssistantMessageParam{
					ToolCalls: toolCalls,
				}
				assistant.Content.OfString = openai.String(msg.Content)
				messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
			} else {
				messages = append(messages, openai.AssistantMessage(msg.Content))
			}
		}
	}

	return messages
}

func (g *Groq) buildTools(tools []ToolDefinition) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam

	for _, t := range tools {
		var schema openai.FunctionParameters
		_ = json.Unmarshal(t.InputSchema, &schema)

		result = append(result, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  schema,
			},
		})
	}

	return result
}

func (g *Groq) parseResponse(resp *openai.ChatCompletion) *ChatResponse {
	result := &ChatResponse{
		ID:         resp.ID,
		StopReason: "end_turn",
	}
	result.Usage = Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}

	if len(resp.Choices) == 0 {
		return result
	}

	choice := resp.Choices[0]
	msg := choice.Message

	if msg.Content != "" {
		result.Content = append(result.Content, ContentBlock{
			Type: "text",
			Text: msg.Content,
		})
	}

	for _, tc := range msg.ToolCalls {
		result.Content = append(result.Content, ContentBlock{
			Type: "tool_use",
			ToolUse: &ToolCall{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: json.RawMessage(tc.Function.Arguments),
			},
		})
	}

	if choice.FinishReason == "tool_calls" {
		result.StopReason = "tool_use"
	}

	return result
}
