package app

import (
	"context"

	"recorder-notifier/internal/circuitbreaker"
	"recorder-notifier/internal/common/logging"
	"recorder-notifier/internal/handlers"
)

// guardedNotifier wraps a Notifier with a circuit breaker so a flapping
// Bot API fails fast instead of tying up request goroutines on timeouts.
type guardedNotifier struct {
	inner   handlers.Notifier
	breaker *circuitbreaker.Breaker
}

func newGuardedNotifier(inner handlers.Notifier, logger logging.Logger) *guardedNotifier {
	return &guardedNotifier{
		inner:   inner,
		breaker: circuitbreaker.New("telegram", circuitbreaker.DefaultConfig(), logger),
	}
}

func (g *guardedNotifier) Send(ctx context.Context, text string) error {
	return g.breaker.Execute(ctx, func() error {
		return g.inner.Send(ctx, text)
	})
}
