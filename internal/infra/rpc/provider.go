// Package rpc implements the JSON-RPC provider layer the relay uses to talk
// to blockchain nodes: an HTTP provider with health tracking and a bounded
// retry helper for read calls.
package rpc

import (
	"context"
	"time"
)

// Provider is a JSON-RPC endpoint.
type Provider interface {
	// GetName returns the provider identifier (e.g., "alchemy", "infura")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// Call makes a single JSON-RPC request
	Call(ctx context.Context, method string, params []any) (any, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
}
