package provider

import (
	"context"
	"errors"

	"sqlchat/internal/pkg/circuit"
)

// Guarded stops calling a failing provider until its breaker cools down.
// Context cancellation by the caller does not count as a provider failure.
type Guarded struct {
	inner   ModelProvider
	breaker *circuit.Breaker
}

func NewGuarded(inner ModelProvider, breaker *circuit.Breaker) *Guarded {
	return &Guarded{inner: inner, breaker: breaker}
}

func (g *Guarded) ID() string    { return g.inner.ID() }
func (g *Guarded) Model() string { return g.inner.Model() }

func (g *Guarded) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if !g.breaker.Allow() {
		return "", ErrCircuitOpen
	}
	out, err := g.inner.Chat(ctx, req)
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// caller gave up; say nothing about provider health
		g.breaker.Release()
	default:
		g.breaker.RecordFailure()
	}
	return out, err
}
