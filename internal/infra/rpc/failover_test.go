package rpc

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	name      string
	available bool
	result    any
	err       error
	calls     int
}

func (f *fakeProvider) GetName() string { return f.name }
func (f *fakeProvider) GetHealth() HealthStatus {
	return HealthStatus{Available: f.available}
}
func (f *fakeProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	f.calls++
	return f.result, f.err
}
func (f *fakeProvider) Close() error { return nil }

func TestFailover_PrefersHealthyProvider(t *testing.T) {
	down := &fakeProvider{name: "primary", available: false, err: errors.New("down")}
	up := &fakeProvider{name: "secondary", available: true, result: "0x1"}
	fo := NewFailover([]Provider{down, up}, nil)

	result, err := fo.Call(context.Background(), "eth_chainId", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x1" {
		t.Errorf("result = %v", result)
	}
	if down.calls != 0 {
		t.Error("unhealthy provider should not be tried while a healthy one answers")
	}
}

func TestFailover_FallsThroughOnTransportError(t *testing.T) {
	broken := &fakeProvider{name: "primary", available: true, err: errors.New("connection refused")}
	up := &fakeProvider{name: "secondary", available: true, result: "0x2"}
	fo := NewFailover([]Provider{broken, up}, nil)

	result, err := fo.Call(context.Background(), "eth_blockNumber", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x2" {
		t.Errorf("result = %v", result)
	}
	if broken.calls != 1 {
		t.Errorf("primary tried %d times, want 1", broken.calls)
	}
}

func TestFailover_RPCErrorIsAuthoritative(t *testing.T) {
	node := &fakeProvider{name: "primary", available: true, err: &RPCError{Code: -32000, Message: "nonce too low"}}
	backup := &fakeProvider{name: "secondary", available: true, result: "ok"}
	fo := NewFailover([]Provider{node, backup}, nil)

	_, err := fo.Call(context.Background(), "eth_sendRawTransaction", nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if backup.calls != 0 {
		t.Error("a node-level error must not be retried elsewhere")
	}
}

func TestFailover_SecondPassTriesDegradedFleet(t *testing.T) {
	a := &fakeProvider{name: "a", available: false, err: errors.New("down")}
	b := &fakeProvider{name: "b", available: false, result: "0x3"}
	fo := NewFailover([]Provider{a, b}, nil)

	result, err := fo.Call(context.Background(), "eth_gasPrice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "0x3" {
		t.Errorf("result = %v", result)
	}
}

func TestFailover_AllFail(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: errors.New("down")}
	b := &fakeProvider{name: "b", available: true, err: errors.New("also down")}
	fo := NewFailover([]Provider{a, b}, nil)

	if _, err := fo.Call(context.Background(), "eth_gasPrice", nil); err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
	}
}
