package ranking

import (
	"context"
	"fmt"
	"time"

	"srank/internal/core"
	"srank/internal/log"
	"srank/internal/metrics"
)

// Stage names reported in Stats, logs and metrics.
const (
	StageFound      = "found"
	StageLiquidity  = "liquidity"
	StageSector     = "sector"
	StageEnriched   = "enriched"
	StageMaturity   = "maturity"
	StageDispersion = "dispersion"
	StagePriced     = "priced"
	StageRanked     = "ranked"
)

// DividendSource provides dividend history per fund.
type DividendSource interface {
	ListDividends(ctx context.Context, ticker, token string) ([]core.Dividend, error)
	HasCachedDividends(ctx context.Context, ticker string) bool
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Stats counts the funds left after each stage.
type Stats struct {
	Found      int
	Liquid     int
	InSector   int
	Enriched   int
	Mature     int
	Consistent int
	Priced     int
	Ranked     int
	// Fetches counts dividend requests that were not served from cache.
	Fetches int
}

// Pipeline runs the filter and rank stages over a fund listing.
type Pipeline struct {
	cfg      Config
	excluded map[string]struct{}
	source   DividendSource
	sleep    Sleeper
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSleeper replaces the timer-based pause.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) { p.sleep = s }
}

// WithMetrics reports stage counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l.WithComponent(log.ComponentRanking) }
}

// New creates a pipeline fetching dividends from source. It fails when the
// thresholds are invalid.
func New(cfg Config, source DividendSource, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      cfg,
		excluded: cfg.excluded(),
		source:   source,
		sleep:    sleepContext,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run filters and ranks funds. Dividends are fetched sequentially; before each
// fetch after the first, the pipeline pauses for FetchDelay unless the fund's
// dividends are already cached. Listing rows without a ticker are skipped with
// a warning; any fetch error aborts the run.
func (p *Pipeline) Run(ctx context.Context, token string, funds []core.Fund) ([]core.RankedFund, Stats, error) {
	var stats Stats
	stats.Found = p.record(ctx, StageFound, len(funds))

	candidates := FilterLiquidity(funds, p.cfg.MinLiquidity)
	stats.Liquid = p.record(ctx, StageLiquidity, len(candidates))

	candidates = FilterSectors(candidates, p.excluded)
	stats.InSector = p.record(ctx, StageSector, len(candidates))

	enriched, fetches, err := p.enrich(ctx, token, candidates)
	stats.Fetches = fetches
	if err != nil {
		return nil, stats, err
	}
	stats.Enriched = p.record(ctx, StageEnriched, len(enriched))

	enriched = FilterMature(enriched, p.cfg.RequiredDividends)
	stats.Mature = p.record(ctx, StageMaturity, len(enriched))

	enriched = FilterDispersion(enriched, p.cfg.MaxDiscrepancyPct)
	stats.Consistent = p.record(ctx, StageDispersion, len(enriched))

	enriched = FilterPriced(enriched)
	stats.Priced = p.record(ctx, StagePriced, len(enriched))

	Rank(enriched)
	stats.Ranked = p.record(ctx, StageRanked, len(enriched))

	return enriched, stats, nil
}

func (p *Pipeline) enrich(ctx context.Context, token string, funds []core.Fund) ([]core.RankedFund, int, error) {
	out := make([]core.RankedFund, 0, len(funds))
	fetches := 0
	visited := 0
	for _, f := range funds {
		if err := ctx.Err(); err != nil {
			return nil, fetches, err
		}
		if err := f.Validate(); err != nil {
			p.logger.WarnContext(ctx, "Skipping invalid fund",
				log.NewFields().WithTicker(f.Ticker).WithError(err).WithErrorType(log.ErrorTypeDataFormat).ToSlice()...)
			continue
		}
		visited++
		cached := p.source.HasCachedDividends(ctx, f.Ticker)
		if visited > 1 && !cached && p.cfg.FetchDelay > 0 {
			if err := p.sleep(ctx, p.cfg.FetchDelay); err != nil {
				return nil, fetches, err
			}
		}
		if !cached {
			fetches++
		}

		dividends, err := p.source.ListDividends(ctx, f.Ticker, token)
		if err != nil {
			return nil, fetches, fmt.Errorf("dividends for %s: %w", f.Ticker, err)
		}

		r := Enrich(f, dividends)
		p.logger.InfoContext(ctx, "Fund dividends loaded",
			log.FieldTicker, f.Ticker,
			log.FieldCount, len(dividends),
			log.FieldCacheHit, cached)
		out = append(out, r)
	}
	return out, fetches, nil
}

func (p *Pipeline) record(ctx context.Context, stage string, n int) int {
	p.metrics.Stage(stage, n)
	p.logger.InfoContext(ctx, "Pipeline stage completed", log.NewFields().WithStage(stage, n).ToSlice()...)
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
