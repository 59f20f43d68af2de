// Package memory implements the ledgers in process memory. Used when no
// database URL is configured, and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/ledger"
)

type MemoryStorage struct {
	txs    []*domain.TransactionRecord
	logins []*domain.LoginRecord
	mu     sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// -----------------------------------------------------------------------------
// Transaction Ledger
// -----------------------------------------------------------------------------

type TxLedger struct {
	store *MemoryStorage
}

func NewTxLedger(store *MemoryStorage) *TxLedger {
	return &TxLedger{store: store}
}

func (l *TxLedger) Append(ctx context.Context, rec *domain.TransactionRecord) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	l.store.txs = append(l.store.txs, &cp)
	return nil
}

func (l *TxLedger) GetByHash(ctx context.Context, txHash string) (*domain.TransactionRecord, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	for _, t := range l.store.txs {
		if t.TxHash == txHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (l *TxLedger) ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.TransactionRecord, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	out := make([]*domain.TransactionRecord, 0)
	for _, t := range l.store.txs {
		if t.WalletAddress == walletAddress {
			cp := *t
			out = append(out, &cp)
		}
	}

	// Newest first, stable for equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Login Ledger
// -----------------------------------------------------------------------------

type LoginLedger struct {
	store *MemoryStorage
}

func NewLoginLedger(store *MemoryStorage) *LoginLedger {
	return &LoginLedger{store: store}
}

func (l *LoginLedger) Append(ctx context.Context, rec *domain.LoginRecord) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	l.store.logins = append(l.store.logins, &cp)
	return nil
}

func (l *LoginLedger) ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.LoginRecord, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	out := make([]*domain.LoginRecord, 0)
	for _, r := range l.store.logins {
		if r.WalletAddress == walletAddress {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
