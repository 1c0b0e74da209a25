// Package autosync periodically re-syncs stores that opted into
// automatic updates.
package autosync

import (
	"context"
	"log/slog"
	"time"

	"github.com/branddash/storesync/internal/db"
)

// Runner is the sync entry point the scheduler drives
type Runner interface {
	ExtractStoreData(ctx context.Context, storeID string) error
}

// Config holds scheduler settings
type Config struct {
	// Interval between due-store scans.
	Interval time.Duration `toml:"interval"`
}

// DefaultConfig returns the scheduler defaults
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
	}
}

// Scheduler scans for stores whose sync frequency has elapsed and runs
// one extraction per due store. Stores are synced sequentially: the
// upstream API is rate limited per shop, and a slow store delaying the
// next scan is acceptable.
type Scheduler struct {
	db     *db.DB
	runner Runner
	config Config
	logger *slog.Logger
	now    func() time.Time

	shutdown chan struct{}
	done     chan struct{}
}

// NewScheduler creates a scheduler. It does nothing until Start is
// called.
func NewScheduler(database *db.DB, runner Runner, config Config, logger *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Scheduler{
		db:       database,
		runner:   runner,
		config:   config,
		logger:   logger,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the scan loop until Shutdown is called or ctx is canceled
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("auto sync scheduler started", "interval", s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.shutdown:
			s.logger.Info("auto sync scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("auto sync scheduler stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			s.iteration(ctx)
		}
	}
}

// Shutdown signals the scan loop to exit and waits for it
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
	<-s.done
}

// iteration performs one due-store scan
func (s *Scheduler) iteration(ctx context.Context) {
	stores, err := s.db.ListStoresDueForSync(ctx, s.now())
	if err != nil {
		s.logger.Error("due store scan failed", "error", err)
		return
	}
	if len(stores) == 0 {
		return
	}

	s.logger.Info("auto sync scan", "due", len(stores))

	for _, store := range stores {
		select {
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.runner.ExtractStoreData(ctx, store.ID); err != nil {
			// The job row carries the failure; the scheduler only moves on.
			s.logger.Error("auto sync failed", "store_id", store.ID, "error", err)
		}
	}
}
