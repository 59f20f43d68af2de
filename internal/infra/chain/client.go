// Package chain defines the node-level execution interface the relay and
// oracle depend on. Implementations live in chain-specific subpackages.
package chain

import (
	"context"
	"math/big"
)

// CallMsg describes a transfer for gas estimation.
type CallMsg struct {
	From  string
	To    string
	Value *big.Int
}

// Receipt is the mined outcome of a broadcast transaction. Status reflects
// the chain's own success flag; a mined transaction can still report failure.
type Receipt struct {
	TxHash            string
	BlockNumber       uint64
	GasUsed           uint64
	Status            uint64
	EffectiveGasPrice *big.Int
}

// Client is the boundary between the relay core and node-specific RPC. All
// amounts are base units (*big.Int); formatting happens at the HTTP edge.
type Client interface {
	// ChainID returns the network's chain id (used for replay-protected signing)
	ChainID(ctx context.Context) (*big.Int, error)

	// BalanceAt returns the current balance of an address in base units
	BalanceAt(ctx context.Context, address string) (*big.Int, error)

	// GasPrice returns the node's suggested gas price
	GasPrice(ctx context.Context) (*big.Int, error)

	// MaxPriorityFeePerGas returns the suggested priority tip. Errors on
	// nodes that predate dynamic fees; callers fall back to legacy pricing.
	MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error)

	// PendingNonceAt returns the next nonce including pending transactions
	PendingNonceAt(ctx context.Context, address string) (uint64, error)

	// EstimateGas estimates the gas limit for a transfer
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)

	// SendRawTransaction broadcasts a signed transaction, returning its hash.
	// Irreversible once accepted by the node.
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)

	// TransactionReceipt returns the receipt for a hash, or nil while the
	// transaction is still pending
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
}
