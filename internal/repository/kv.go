package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// KVRepo is a string key-value repository over the kv table. Values are
// JSON-encoded collections; the repository does not interpret them.
type KVRepo struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewKVRepo creates a new KVRepo.
func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db}
}

// Get returns the stored value for key. The second return value reports
// whether the key was present.
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (r *KVRepo) Put(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}
