package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/zombor/recibos/internal/extraction"
)

// Breaker stops calling a failing provider for a while so that parsing
// falls straight back to the rules instead of waiting on timeouts.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[*extraction.Fields]
}

// NewBreaker wraps p. The circuit opens after failures consecutive errors
// and probes again after cooldown.
func NewBreaker(p Provider, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next: p,
		cb: gobreaker.NewCircuitBreaker[*extraction.Fields](gobreaker.Settings{
			Name:    "llm",
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// ExtractFields implements extraction.FieldExtractor
func (b *Breaker) ExtractFields(ctx context.Context, text string) (*extraction.Fields, error) {
	return b.cb.Execute(func() (*extraction.Fields, error) {
		return b.next.ExtractFields(ctx, text)
	})
}

// State reports the circuit state, e.g. "closed" or "open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Close closes the wrapped provider
func (b *Breaker) Close() error {
	return b.next.Close()
}
