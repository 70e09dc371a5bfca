package app

import (
	"context"
	"time"

	"driver-portal/internal/logx"
	"driver-portal/internal/store"
)

// StatsRefresher periodically rederives the statistics snapshot so today's
// counters roll over on a date change even while the driver is idle.
type StatsRefresher struct {
	interval time.Duration
	store    *store.Store
	logger   logx.Logger
}

// NewStatsRefresher creates a refresher with the given interval.
func NewStatsRefresher(interval time.Duration, s *store.Store, logger logx.Logger) *StatsRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsRefresher{interval: interval, store: s, logger: logger}
}

// Run blocks until ctx is cancelled.
func (r *StatsRefresher) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.store.RecomputeStatistics(ctx); err != nil {
				r.logger.Warn("periodic statistics recompute failed", logx.Any("err", err))
			}
		}
	}
}
