// Package channel implements the messaging surfaces the assistant
// listens on: Slack (socket mode) and an interactive terminal.
package channel

import (
	"context"
)

// Handler processes one user message and returns the reply text.
type Handler func(ctx context.Context, userID, text string) string

// Channel is any messaging surface. Run blocks until the context is
// cancelled or the surface closes, invoking the handler once per
// incoming user message.
type Channel interface {
	// Name returns the channel identifier, e.g. "slack" or "terminal".
	Name() string

	// Run starts the channel and dispatches incoming messages.
	Run(ctx context.Context, handle Handler) error
}
