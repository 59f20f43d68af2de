package relay

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

func TestOracle_BalanceDegradesToZero(t *testing.T) {
	mock := newMockChain()
	mock.balanceErr = errors.New("all providers down")
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)

	reading := oracle.Balance(context.Background(), testAddress)
	if !reading.Degraded {
		t.Fatal("expected a degraded reading")
	}
	if reading.Wei.Sign() != 0 {
		t.Errorf("degraded balance = %s, want 0", reading.Wei)
	}
	if reading.Cause == nil {
		t.Error("degraded reading must carry its cause")
	}
}

func TestOracle_BalanceHealthy(t *testing.T) {
	mock := newMockChain()
	mock.balance = big.NewInt(42)
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)

	reading := oracle.Balance(context.Background(), testAddress)
	if reading.Degraded {
		t.Fatalf("unexpected degraded reading: %v", reading.Cause)
	}
	if reading.Wei.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("balance = %s, want 42", reading.Wei)
	}
}

func TestOracle_StrictBalanceSurfacesError(t *testing.T) {
	mock := newMockChain()
	mock.balanceErr = errors.New("timeout")
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)

	if _, err := oracle.BalanceStrict(context.Background(), testAddress); err == nil {
		t.Fatal("strict read must not degrade")
	}
}

func TestOracle_FeesLegacyNode(t *testing.T) {
	mock := newMockChain()
	mock.gasPrice = big.NewInt(7)
	mock.tip = nil
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)

	reading, err := oracle.FeesStrict(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.GasPrice.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("gasPrice = %s, want 7", reading.GasPrice)
	}
	if reading.MaxFeePerGas != nil || reading.MaxPriorityFeePerGas != nil {
		t.Error("legacy-only node must yield nil dynamic-fee fields")
	}
}

func TestOracle_FeesDynamic(t *testing.T) {
	mock := newMockChain()
	mock.gasPrice = big.NewInt(100)
	mock.tip = big.NewInt(3)
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)

	reading, err := oracle.FeesStrict(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.MaxPriorityFeePerGas.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("tip = %s, want 3", reading.MaxPriorityFeePerGas)
	}
	// maxFee = 2*gasPrice + tip
	if reading.MaxFeePerGas.Cmp(big.NewInt(203)) != 0 {
		t.Errorf("maxFee = %s, want 203", reading.MaxFeePerGas)
	}
}

func TestFeeReading_CacheRoundTrip(t *testing.T) {
	in := FeeReading{
		GasPrice:             big.NewInt(100),
		MaxFeePerGas:         big.NewInt(203),
		MaxPriorityFeePerGas: big.NewInt(3),
	}
	out, ok := decodeFeeReading(encodeFeeReading(in))
	if !ok {
		t.Fatal("decode failed")
	}
	if out.GasPrice.Cmp(in.GasPrice) != 0 ||
		out.MaxFeePerGas.Cmp(in.MaxFeePerGas) != 0 ||
		out.MaxPriorityFeePerGas.Cmp(in.MaxPriorityFeePerGas) != 0 {
		t.Errorf("round trip mismatch: %+v", out)
	}

	if _, ok := decodeFeeReading("not json"); ok {
		t.Error("garbage must not decode")
	}
}
