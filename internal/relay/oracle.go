package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"time"

	"github.com/vietddude/relay/internal/core/metrics"
	"github.com/vietddude/relay/internal/infra/chain"
	rediscache "github.com/vietddude/relay/internal/infra/redis"
)

// BalanceReading is a tagged balance result. A degraded reading carries the
// zero value plus the cause, so callers can tell "actually zero" from
// "failed and defaulted".
type BalanceReading struct {
	Wei      *big.Int
	Degraded bool
	Cause    error
}

// FeeReading is a tagged fee-estimate result. The 1559 fields are nil on
// networks (or nodes) without dynamic fees.
type FeeReading struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Degraded             bool
	Cause                error
}

// Oracle reads balances and fee parameters from the chain. Display reads
// (Balance, Fees) degrade to safe defaults on failure; the relay's admission
// checks use the strict variants, which surface errors instead: a funds
// check must never run against a defaulted zero.
type Oracle struct {
	client  chain.Client
	cache   *rediscache.Cache // optional
	network string
	ttl     time.Duration
	log     *slog.Logger
}

// NewOracle creates an oracle over the chain client. cache may be nil.
func NewOracle(client chain.Client, cache *rediscache.Cache, network string, ttl time.Duration, log *slog.Logger) *Oracle {
	if log == nil {
		log = slog.Default()
	}
	return &Oracle{
		client:  client,
		cache:   cache,
		network: network,
		ttl:     ttl,
		log:     log,
	}
}

// BalanceStrict returns the current balance or an error.
func (o *Oracle) BalanceStrict(ctx context.Context, address string) (*big.Int, error) {
	return o.client.BalanceAt(ctx, address)
}

// Balance returns a reading for display. On RPC failure it degrades to zero
// and logs the cause; a UI renders a 0 balance rather than crashing.
func (o *Oracle) Balance(ctx context.Context, address string) BalanceReading {
	if o.cache != nil {
		if cached, err := o.cache.GetBalance(ctx, o.network, address); err == nil {
			if wei, ok := new(big.Int).SetString(cached, 10); ok {
				metrics.OracleCacheHits.WithLabelValues("balance").Inc()
				return BalanceReading{Wei: wei}
			}
		}
	}

	wei, err := o.BalanceStrict(ctx, address)
	if err != nil {
		o.log.Warn("balance read failed, degrading to zero", "address", address, "error", err)
		metrics.OracleDegradedReads.WithLabelValues("balance").Inc()
		return BalanceReading{Wei: big.NewInt(0), Degraded: true, Cause: err}
	}

	if o.cache != nil {
		if err := o.cache.SetBalance(ctx, o.network, address, wei.String(), o.ttl); err != nil {
			o.log.Debug("balance cache write failed", "error", err)
		}
	}
	return BalanceReading{Wei: wei}
}

// FeesStrict returns current fee parameters or an error. The priority-tip
// read is allowed to fail: legacy-only nodes simply yield a nil 1559 pair.
func (o *Oracle) FeesStrict(ctx context.Context) (FeeReading, error) {
	gasPrice, err := o.client.GasPrice(ctx)
	if err != nil {
		return FeeReading{}, err
	}

	reading := FeeReading{GasPrice: gasPrice}
	if tip, err := o.client.MaxPriorityFeePerGas(ctx); err == nil {
		reading.MaxPriorityFeePerGas = tip
		// maxFee = 2*gasPrice + tip leaves headroom for base-fee drift
		// between estimation and inclusion.
		maxFee := new(big.Int).Mul(gasPrice, big.NewInt(2))
		reading.MaxFeePerGas = maxFee.Add(maxFee, tip)
	}
	return reading, nil
}

// Fees returns a reading for display, degrading to zeros on failure.
func (o *Oracle) Fees(ctx context.Context) FeeReading {
	if o.cache != nil {
		if cached, err := o.cache.GetFees(ctx, o.network); err == nil {
			if reading, ok := decodeFeeReading(cached); ok {
				metrics.OracleCacheHits.WithLabelValues("fees").Inc()
				return reading
			}
		}
	}

	reading, err := o.FeesStrict(ctx)
	if err != nil {
		o.log.Warn("fee read failed, degrading to zero", "error", err)
		metrics.OracleDegradedReads.WithLabelValues("fees").Inc()
		return FeeReading{GasPrice: big.NewInt(0), Degraded: true, Cause: err}
	}

	if o.cache != nil {
		if err := o.cache.SetFees(ctx, o.network, encodeFeeReading(reading), o.ttl); err != nil {
			o.log.Debug("fee cache write failed", "error", err)
		}
	}
	return reading
}

type cachedFees struct {
	GasPrice             string `json:"gasPrice"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
}

func encodeFeeReading(r FeeReading) string {
	c := cachedFees{GasPrice: r.GasPrice.String()}
	if r.MaxFeePerGas != nil {
		c.MaxFeePerGas = r.MaxFeePerGas.String()
	}
	if r.MaxPriorityFeePerGas != nil {
		c.MaxPriorityFeePerGas = r.MaxPriorityFeePerGas.String()
	}
	b, _ := json.Marshal(c)
	return string(b)
}

func decodeFeeReading(s string) (FeeReading, bool) {
	var c cachedFees
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return FeeReading{}, false
	}
	gasPrice, ok := new(big.Int).SetString(c.GasPrice, 10)
	if !ok {
		return FeeReading{}, false
	}
	r := FeeReading{GasPrice: gasPrice}
	if c.MaxFeePerGas != "" {
		r.MaxFeePerGas, _ = new(big.Int).SetString(c.MaxFeePerGas, 10)
	}
	if c.MaxPriorityFeePerGas != "" {
		r.MaxPriorityFeePerGas, _ = new(big.Int).SetString(c.MaxPriorityFeePerGas, 10)
	}
	return r, true
}
