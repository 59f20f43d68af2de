package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Failover fans calls out over an ordered provider list. Each call goes to
// the first provider that currently reports healthy; on a transport failure
// the next provider is tried. A node-level RPC error is authoritative and is
// returned immediately; a second provider would give the same answer.
type Failover struct {
	providers []Provider
	log       *slog.Logger
}

// NewFailover creates a failover provider. The order of providers is the
// preference order.
func NewFailover(providers []Provider, log *slog.Logger) *Failover {
	if log == nil {
		log = slog.Default()
	}
	return &Failover{providers: providers, log: log}
}

func (f *Failover) GetName() string {
	return "failover"
}

// GetHealth reports available if any underlying provider is.
func (f *Failover) GetHealth() HealthStatus {
	var agg HealthStatus
	for _, p := range f.providers {
		h := p.GetHealth()
		if h.Available {
			agg.Available = true
		}
		if h.LastSuccessAt.After(agg.LastSuccessAt) {
			agg.LastSuccessAt = h.LastSuccessAt
		}
		if h.LastFailureAt.After(agg.LastFailureAt) {
			agg.LastFailureAt = h.LastFailureAt
		}
	}
	return agg
}

func (f *Failover) Call(ctx context.Context, method string, params []any) (any, error) {
	var lastErr error
	tried := make([]bool, len(f.providers))

	// First pass prefers providers reporting healthy; the second pass takes
	// the rest, so a fleet that all degraded at once still gets attempts.
	for _, healthyOnly := range []bool{true, false} {
		for i, p := range f.providers {
			if tried[i] || (healthyOnly && !p.GetHealth().Available) {
				continue
			}
			tried[i] = true

			result, err := p.Call(ctx, method, params)
			if err == nil {
				return result, nil
			}

			var rpcErr *RPCError
			if errors.As(err, &rpcErr) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, err
			}

			f.log.Warn("provider call failed, trying next",
				"provider", p.GetName(), "method", method, "error", err)
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func (f *Failover) Close() error {
	var firstErr error
	for _, p := range f.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
