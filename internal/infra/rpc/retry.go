package rpc

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for read calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults for oracle reads.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError determines the action for a given error. Node-side
// rejections of the request itself never succeed on retry; transport
// failures and 5xx responses might.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		// -32700: Parse error, -32600: Invalid Request,
		// -32601: Method not found, -32602: Invalid params
		switch rpcErr.Code {
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		}
		// Execution-level errors (reverts, insufficient funds, nonce too
		// low) are deterministic for the same input.
		return ActionFatal
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "http 4") && !strings.Contains(s, "http 429") {
		return ActionFatal
	}

	// Default to Retry (network, timeouts, 5xx, 429)
	return ActionRetry
}

// CallWithRetry executes a read call with exponential backoff. Never use it
// for broadcast calls: resubmitting a signed transaction after an ambiguous
// failure risks double-spending a nonce.
func CallWithRetry(
	ctx context.Context,
	p Provider,
	method string,
	params []any,
	config RetryConfig,
) (any, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := p.Call(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return nil, err
		}

		delay := time.Duration(float64(config.InitialDelay) *
			math.Pow(config.BackoffMultiple, float64(attempt)))
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
