package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/ledger"
)

// TxLedger implements ledger.TransactionLedger using PostgreSQL.
type TxLedger struct {
	db *DB
}

// NewTxLedger creates a new PostgreSQL transaction ledger.
func NewTxLedger(db *DB) *TxLedger {
	return &TxLedger{db: db}
}

// Append writes a transaction record.
func (l *TxLedger) Append(ctx context.Context, rec *domain.TransactionRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `
		INSERT INTO transaction_history (
			id, wallet_address, to_address, ip_address, value_sent, tx_hash,
			network, gas_price, effective_gas_price, gas_used, block_number,
			status, nonce, token_symbol, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := l.db.ExecContext(ctx, query,
		id, rec.WalletAddress, rec.ToAddress, rec.IPAddress, rec.ValueSent,
		rec.TxHash, rec.Network, rec.GasPrice, rec.EffectiveGasPrice,
		rec.GasUsed, rec.BlockNumber, string(rec.Status), rec.Nonce,
		rec.TokenSymbol, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction record: %w", err)
	}
	return nil
}

type txRow struct {
	ID                string    `db:"id"`
	WalletAddress     string    `db:"wallet_address"`
	ToAddress         string    `db:"to_address"`
	IPAddress         string    `db:"ip_address"`
	ValueSent         string    `db:"value_sent"`
	TxHash            string    `db:"tx_hash"`
	Network           string    `db:"network"`
	GasPrice          string    `db:"gas_price"`
	EffectiveGasPrice string    `db:"effective_gas_price"`
	GasUsed           uint64    `db:"gas_used"`
	BlockNumber       uint64    `db:"block_number"`
	Status            string    `db:"status"`
	Nonce             uint64    `db:"nonce"`
	TokenSymbol       string    `db:"token_symbol"`
	CreatedAt         time.Time `db:"created_at"`
}

func (r txRow) toDomain() *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:                r.ID,
		Timestamp:         r.CreatedAt,
		IPAddress:         r.IPAddress,
		WalletAddress:     r.WalletAddress,
		ToAddress:         r.ToAddress,
		ValueSent:         r.ValueSent,
		TxHash:            r.TxHash,
		Network:           r.Network,
		GasPrice:          r.GasPrice,
		EffectiveGasPrice: r.EffectiveGasPrice,
		GasUsed:           r.GasUsed,
		BlockNumber:       r.BlockNumber,
		Status:            domain.TxStatus(r.Status),
		Nonce:             r.Nonce,
		TokenSymbol:       r.TokenSymbol,
	}
}

// GetByHash retrieves a record by transaction hash.
func (l *TxLedger) GetByHash(ctx context.Context, txHash string) (*domain.TransactionRecord, error) {
	var row txRow
	query := `SELECT * FROM transaction_history WHERE tx_hash = $1`
	err := l.db.GetContext(ctx, &row, query, txHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}
	return row.toDomain(), nil
}

// ListByAddress returns records for a sender, newest first.
func (l *TxLedger) ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.TransactionRecord, error) {
	var rows []txRow
	query := `
		SELECT * FROM transaction_history
		WHERE wallet_address = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if err := l.db.SelectContext(ctx, &rows, query, walletAddress, limit); err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}

	out := make([]*domain.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
