// Package ledger defines the append-only activity stores: per-wallet
// transaction history and login history. The relay engine is the sole writer
// of transaction records; the login endpoint is the sole writer of login
// records.
package ledger

import (
	"context"
	"errors"

	"github.com/vietddude/relay/internal/core/domain"
)

var (
	// ErrNotFound is returned when a transaction hash was never recorded
	ErrNotFound = errors.New("transaction not found")
)

// TransactionLedger handles transaction record storage.
type TransactionLedger interface {
	// Append writes one immutable record. Called exactly once per receipt.
	Append(ctx context.Context, rec *domain.TransactionRecord) error

	// GetByHash retrieves a record by transaction hash
	GetByHash(ctx context.Context, txHash string) (*domain.TransactionRecord, error)

	// ListByAddress returns up to limit records for a sender, newest first.
	// An address with no history yields an empty slice, not an error.
	ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.TransactionRecord, error)
}

// LoginLedger handles login record storage.
type LoginLedger interface {
	// Append writes one immutable login record
	Append(ctx context.Context, rec *domain.LoginRecord) error

	// ListByAddress returns up to limit records for a wallet, newest first
	ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.LoginRecord, error)
}
