// Package agent implements the turn loop: it carries one user message
// through provider calls and tool executions to a final reply, persisting
// the conversation once per turn.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/memory"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/provider"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/session"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/tool"
)

// maxIterations bounds how many provider round-trips one turn may take.
const maxIterations = 10

// errorReply is what the user sees when a turn cannot complete.
const errorReply = "Sorry, I ran into a problem handling that. Please try again."

// Loop coordinates providers, tools, memory and the session store.
type Loop struct {
	provider    provider.Provider
	tools       *tool.Registry
	store       *session.Store
	memory      *memory.FileMemory
	log         zerolog.Logger
	maxTokens   int
	temperature float64
}

// Config holds the loop's collaborators.
type Config struct {
	Provider    provider.Provider
	Tools       *tool.Registry
	Store       *session.Store
	Memory      *memory.FileMemory
	Logger      zerolog.Logger
	MaxTokens   int
	Temperature float64
}

// New creates a turn loop.
func New(cfg Config) *Loop {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &Loop{
		provider:    cfg.Provider,
		tools:       cfg.Tools,
		store:       cfg.Store,
		memory:      cfg.Memory,
		log:         cfg.Logger.With().Str("component", "agent").Logger(),
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// ProcessTurn handles one incoming user message on a channel and returns
// the reply text. The conversation is loaded (or created), advanced, and
// persisted as a single snapshot; failures are reported inside the
// conversation rather than surfaced to the channel as errors.
func (l *Loop) ProcessTurn(ctx context.Context, channelName, userID, text string) string {
	convID := session.ConversationID(channelName, userID)
	log := l.log.With().
		Str("conversation", convID).
		Str("turn_id", uuid.New().String()).
		Logger()

	conv, err := l.store.LoadOrCreate(convID, userID, channelName)
	if err != nil {
		log.Error().Err(err).Msg("failed to load conversation")
		return errorReply
	}

	conv.AddMessage("user", text, nil)

	reply, turnErr := l.runTurn(ctx, conv, log)
	if turnErr != nil {
		log.Error().Err(turnErr).Msg("turn failed")
		reply = errorReply
		conv.AddMessage("assistant", reply, map[string]string{"error": "true"})
	}

	if err := l.store.Save(conv); err != nil {
		// The reply already exists; losing the snapshot is bad but not
		// worth swallowing the answer over.
		log.Error().Err(err).Msg("failed to persist conversation")
	}

	return reply
}

// runTurn drives provider calls and tool executions until the model stops
// requesting tools. It appends assistant and tool messages to conv but
// does not persist.
func (l *Loop) runTurn(ctx context.Context, conv *session.Conversation, log zerolog.Logger) (string, error) {
	systemPrompt := l.systemPrompt()
	toolDefs := l.buildToolDefinitions()
	working := buildProviderMessages(conv)

	var reply string
	for i := 0; i < maxIterations; i++ {
		resp, err := l.provider.Chat(ctx, &provider.ChatRequest{
			System:      systemPrompt,
			Messages:    working,
			Tools:       toolDefs,
			MaxTokens:   l.maxTokens,
			Temperature: l.temperature,
		})
		if err != nil {
			return "", fmt.Errorf("chat failed: %w", err)
		}

		text := resp.Text()
		calls := resp.ToolCalls()

		working = append(working, provider.Message{
			Role:      "assistant",
			Content:   text,
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			conv.AddMessage("assistant", text, nil)
			reply = text
			break
		}

		if text != "" {
			conv.AddMessage("assistant", text, nil)
		}

		for _, tc := range calls {
			log.Info().Str("tool", tc.Name).Msg("executing tool")
			result := l.tools.Execute(ctx, tc.Name, tc.Input)

			conv.AddMessage("tool", result.Content, map[string]string{"tool": tc.Name})
			working = append(working, provider.Message{
				Role: "user",
				ToolResult: &provider.ToolResult{
					ToolUseID: tc.ID,
					Content:   result.Content,
					IsError:   result.IsError,
				},
			})
		}
	}

	if reply == "" {
		return "", fmt.Errorf("no final response after %d iterations", maxIterations)
	}
	return reply, nil
}

// systemPrompt builds the persona plus whatever the memory document holds.
func (l *Loop) systemPrompt() string {
	if l.memory == nil {
		return memory.BuildSystemPrompt("")
	}

	notes, err := l.memory.Load()
	if err != nil {
		l.log.Warn().Err(err).Msg("failed to load memory, continuing without it")
		notes = ""
	}
	return memory.BuildSystemPrompt(notes)
}

// buildProviderMessages converts the stored transcript into provider
// messages. Tool messages from earlier turns are folded into user-role
// context lines; within the current turn tool results travel structured.
func buildProviderMessages(conv *session.Conversation) []provider.Message {
	messages := make([]provider.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		switch msg.Role {
		case "user", "assistant":
			messages = append(messages, provider.Message{Role: msg.Role, Content: msg.Content})
		case "tool":
			name := msg.Metadata["tool"]
			messages = append(messages, provider.Message{
				Role:    "user",
				Content: fmt.Sprintf("[Tool result: %s]\n%s", name, msg.Content),
			})
		}
	}
	return messages
}

func (l *Loop) buildToolDefinitions() []provider.ToolDefinition {
	tools := l.tools.All()
	defs := make([]provider.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}
	}
	return defs
}
