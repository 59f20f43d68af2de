package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/relay/internal/core/domain"
)

// LoginLedger implements ledger.LoginLedger using PostgreSQL.
type LoginLedger struct {
	db *DB
}

// NewLoginLedger creates a new PostgreSQL login ledger.
func NewLoginLedger(db *DB) *LoginLedger {
	return &LoginLedger{db: db}
}

// Append writes a login record.
func (l *LoginLedger) Append(ctx context.Context, rec *domain.LoginRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `
		INSERT INTO login_history (
			id, wallet_address, ip_address, device_info, location, event, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := l.db.ExecContext(ctx, query,
		id, rec.WalletAddress, rec.IPAddress, rec.DeviceInfo, rec.Location, rec.Event, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to append login record: %w", err)
	}
	return nil
}

type loginRow struct {
	ID            string    `db:"id"`
	WalletAddress string    `db:"wallet_address"`
	IPAddress     string    `db:"ip_address"`
	DeviceInfo    string    `db:"device_info"`
	Location      string    `db:"location"`
	Event         string    `db:"event"`
	CreatedAt     time.Time `db:"created_at"`
}

// ListByAddress returns login records for a wallet, newest first.
func (l *LoginLedger) ListByAddress(ctx context.Context, walletAddress string, limit int) ([]*domain.LoginRecord, error) {
	var rows []loginRow
	query := `
		SELECT * FROM login_history
		WHERE wallet_address = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if err := l.db.SelectContext(ctx, &rows, query, walletAddress, limit); err != nil {
		return nil, fmt.Errorf("failed to list login records: %w", err)
	}

	out := make([]*domain.LoginRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &domain.LoginRecord{
			ID:            r.ID,
			Timestamp:     r.CreatedAt,
			IPAddress:     r.IPAddress,
			WalletAddress: r.WalletAddress,
			DeviceInfo:    r.DeviceInfo,
			Location:      r.Location,
			Event:         r.Event,
		})
	}
	return out, nil
}
