package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// LedgerRepo is the append-only completion ledger: one row per delivery
// completion. Lifetime and rolling-window totals are derived by counting
// rows, never by diffing snapshots.
type LedgerRepo struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Append records one completion event.
func (r *LedgerRepo) Append(ctx context.Context, deliveryID string, amount float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO completion_ledger (delivery_id, amount, completed_at) VALUES (?, ?, ?)`,
		deliveryID, amount, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append completion %q: %w", deliveryID, err)
	}
	return nil
}

// Count returns the total number of recorded completions.
func (r *LedgerRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count(ctx, `SELECT COUNT(*) FROM completion_ledger`)
}

// CountSince returns the number of completions recorded at or after since.
func (r *LedgerRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count(ctx,
		`SELECT COUNT(*) FROM completion_ledger WHERE completed_at >= ?`, since.Unix())
}

func (r *LedgerRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}
