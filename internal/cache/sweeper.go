package cache

import (
	"context"
	"time"

	"srank/internal/log"
)

// Sweeper periodically removes expired entries from a Store.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *log.Logger
	onSweep  func(removed int64)

	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a sweeper. onSweep, when non-nil, receives the number of
// entries removed by each run.
func NewSweeper(store Store, interval time.Duration, logger *log.Logger, onSweep func(int64)) *Sweeper {
	if logger == nil {
		logger = log.Discard()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentCache),
		onSweep:  onSweep,
	}
}

// Start begins sweeping in a goroutine until ctx is done or Stop is called.
// A non-positive interval disables the sweeper.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	removed, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Cache sweep failed",
			log.NewFields().WithOperation(log.OpSweep).WithError(err).ToSlice()...)
		return 0
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "Removed expired cache entries", log.FieldCount, removed)
	}
	if s.onSweep != nil {
		s.onSweep(removed)
	}
	return removed
}

// Stop gracefully stops the sweep routine
func (s *Sweeper) Stop() {
	if s.stop == nil {
		return
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
