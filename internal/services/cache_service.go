package services

import (
	"context"
	"fmt"

	"srank/internal/cache"
	"srank/internal/log"
	"srank/internal/metrics"
)

// CacheService exposes cache housekeeping to the control surface.
type CacheService struct {
	store   cache.Store
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewCacheService(store cache.Store, m *metrics.Metrics, logger *log.Logger) *CacheService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CacheService{store: store, metrics: m, logger: logger.WithComponent(log.ComponentServices)}
}

// ClearCache removes every cached entry.
func (s *CacheService) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// SweepCache removes expired entries and returns how many were removed.
func (s *CacheService) SweepCache(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	s.metrics.CacheSwept(n)
	s.logger.InfoContext(ctx, "Expired cache entries removed",
		log.FieldOperation, log.OpSweep,
		log.FieldCount, n)
	return n, nil
}
