package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"driver-portal/internal/repository"
)

var openDB = repository.Open

// openDbWithRetry opens the on-device database, retrying with a fixed delay.
// A busy or locked database file right after process start is the common
// case this covers.
func openDbWithRetry(ctx context.Context, path string, retries int, delay time.Duration) (*sql.DB, error) {
	var lastErr error
	const attemptTimeout = 3 * time.Second
	for i := 1; i <= retries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		db, err := openDB(attemptCtx, path)
		cancel()
		if err == nil {
			log.Printf("database opened on attempt %d", i)
			return db, nil
		}
		lastErr = err
		log.Printf("database open failed (attempt %d/%d): %v", i, retries, err)
		if i < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("database open failed after %d attempts: %w", retries, lastErr)
}
