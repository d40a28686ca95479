package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoProviderAvailable is returned when no backend is configured.
var ErrNoProviderAvailable = errors.New("no llm provider available")

// Retry policy per backend. Retries never cross backends: the primary gets
// its full attempt budget before the secondary is tried at all.
const (
	maxAttempts  = 3
	baseBackoff  = 2 * time.Second
	maxBackoff   = 10 * time.Second
	backoffPower = 2.0
)

// Fallback presents one uniform Provider over an ordered list of backends.
// Selection order is fixed: the primary is always tried first, even right
// after it failed. There is deliberately no circuit breaker or health
// caching.
type Fallback struct {
	providers []Provider
	log       zerolog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFallback creates a fallback layer over the given backends, in
// preference order. Nil entries are skipped.
func NewFallback(log zerolog.Logger, providers ...Provider) *Fallback {
	f := &Fallback{
		log:   log.With().Str("component", "provider-fallback").Logger(),
		sleep: sleepCtx,
	}
	for _, p := range providers {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

func (f *Fallback) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return "fallback(" + strings.Join(names, "->") + ")"
}

func (f *Fallback) Models() []string {
	var models []string
	for _, p := range f.providers {
		models = append(models, p.Models()...)
	}
	return models
}

// Primary returns the preferred backend, or nil when none is configured.
func (f *Fallback) Primary() Provider {
	if len(f.providers) == 0 {
		return nil
	}
	return f.providers[0]
}

// Chat tries each backend in order, retrying transient failures within a
// backend before moving on. The last backend's error wins; earlier errors
// are only logged.
func (f *Fallback) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProviderAvailable
	}

	var lastErr error
	for i, p := range f.providers {
		resp, err := f.chatWithRetry(ctx, p, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		if i < len(f.providers)-1 {
			// Not the last backend: its error is logged, not surfaced.
			f.log.Error().Err(err).Str("provider", p.Name()).Msg("backend exhausted, trying fallback")
		}
		lastErr = err
	}

	return nil, lastErr
}

func (f *Fallback) chatWithRetry(ctx context.Context, p Provider, req *ChatRequest) (*ChatResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.Chat(ctx, req)
		if err == nil {
			if attempt > 1 {
				f.log.Info().Str("provider", p.Name()).Int("attempt", attempt).Msg("call succeeded after retry")
			}
			return resp, nil
		}

		lastErr = err
		if !isTransient(err) {
			f.log.Debug().Err(err).Str("provider", p.Name()).Msg("non-transient error, not retrying")
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoff(attempt)
		f.log.Warn().
			Err(err).
			Str("provider", p.Name()).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("retry_delay", delay).
			Msg("retrying provider call")

		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", p.Name(), maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// backoff returns the delay before the next attempt: 2s, 4s, 8s... capped
// at 10s.
func backoff(attempt int) time.Duration {
	d := float64(baseBackoff) * math.Pow(backoffPower, float64(attempt-1))
	if d > float64(maxBackoff) {
		d = float64(maxBackoff)
	}
	return time.Duration(d)
}

var transientMarkers = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"temporary failure",
	"rate limit",
	"overloaded",
	"429",
	"500",
	"502",
	"503",
	"504",
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
