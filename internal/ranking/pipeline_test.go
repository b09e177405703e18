package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srank/internal/cache"
	"srank/internal/core"
	"srank/internal/gateway"
	"srank/internal/log"
	"srank/internal/metrics"
)

type fakeSource struct {
	dividends map[string][]core.Dividend
	cached    map[string]bool
	err       map[string]error
	calls     []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		dividends: map[string][]core.Dividend{},
		cached:    map[string]bool{},
		err:       map[string]error{},
	}
}

func (s *fakeSource) ListDividends(_ context.Context, ticker, _ string) ([]core.Dividend, error) {
	s.calls = append(s.calls, ticker)
	if err := s.err[ticker]; err != nil {
		return nil, err
	}
	s.cached[ticker] = true
	return s.dividends[ticker], nil
}

func (s *fakeSource) HasCachedDividends(_ context.Context, ticker string) bool {
	return s.cached[ticker]
}

type recordingSleeper struct {
	calls []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func fund(ticker, slug string, liquidity, pvpa float64) core.Fund {
	return core.Fund{
		Ticker:         ticker,
		SectorSlug:     slug,
		DailyLiquidity: core.NewNumber(liquidity),
		PriceToBook:    core.NewNumber(pvpa),
	}
}

func series(yields ...float64) []core.Dividend {
	out := make([]core.Dividend, len(yields))
	for i, y := range yields {
		out[i] = core.Dividend{
			Type:      core.DividendTypeIncome,
			Sector:    "Logística",
			Reference: fmt.Sprintf("%02d/2024", 12-i),
			Yield:     core.NewNumber(y),
		}
	}
	return out
}

func flat(n int, y float64) []core.Dividend {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = y
	}
	return series(ys...)
}

func mustNew(t *testing.T, cfg Config, src DividendSource, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(cfg, src, opts...)
	require.NoError(t, err)
	return p
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FetchDelay = time.Second
	return cfg
}

func TestRun_FiltersAndRanks(t *testing.T) {
	src := newFakeSource()
	src.dividends["AAAA11"] = flat(12, 1.0)
	src.dividends["BBBB11"] = flat(12, 0.9)
	src.dividends["YOUNG11"] = flat(11, 1.2)
	src.dividends["NOISY11"] = series(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9)
	src.dividends["NOPVP11"] = flat(12, 1.1)

	funds := []core.Fund{
		fund("AAAA11", "logistica", 300_000, 1.0),
		fund("THIN11", "logistica", 150_000, 0.5),
		fund("OUT11", "outros", 1_000_000, 0.5),
		fund("NOSLUG11", "", 1_000_000, 0.5),
		fund("BBBB11", "shoppings", 200_000, 0.8),
		fund("YOUNG11", "logistica", 900_000, 0.7),
		fund("NOISY11", "lajes-corporativas", 900_000, 0.7),
		{Ticker: "NOPVP11", SectorSlug: "logistica", DailyLiquidity: core.NewNumber(900_000)},
	}

	sleeper := &recordingSleeper{}
	p := mustNew(t, testConfig(), src, WithSleeper(sleeper.sleep))

	ranked, stats, err := p.Run(context.Background(), "tok", funds)
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Found: 8, Liquid: 7, InSector: 5, Enriched: 5,
		Mature: 4, Consistent: 3, Priced: 2, Ranked: 2, Fetches: 5,
	}, stats)
	assert.Equal(t, []string{"AAAA11", "BBBB11", "YOUNG11", "NOISY11", "NOPVP11"}, src.calls)

	require.Len(t, ranked, 2)
	// AAAA11: pvpa 1.0 -> 2, median 1.0 -> 1; BBBB11: pvpa 0.8 -> 1, median 0.9 -> 2.
	// Both composite 3; the median step ordered AAAA11 first and the stable sort keeps it.
	assert.Equal(t, "AAAA11", ranked[0].Ticker)
	assert.Equal(t, 2, ranked[0].PriceToBookRank)
	assert.Equal(t, 1, ranked[0].MedianYieldRank)
	assert.Equal(t, 3, ranked[0].CompositeRank)
	assert.Equal(t, "BBBB11", ranked[1].Ticker)
	assert.Equal(t, 3, ranked[1].CompositeRank)
	assert.InDelta(t, 0.9, ranked[1].YieldMean, 1e-9)
}

func TestRun_DelayOnlyBeforeUncachedFetches(t *testing.T) {
	src := newFakeSource()
	for _, tk := range []string{"A11", "B11", "C11", "D11"} {
		src.dividends[tk] = flat(12, 1)
	}
	src.cached["B11"] = true
	src.cached["D11"] = true

	funds := []core.Fund{
		fund("A11", "logistica", 1e6, 1),
		fund("B11", "logistica", 1e6, 1),
		fund("C11", "logistica", 1e6, 1),
		fund("D11", "logistica", 1e6, 1),
	}

	sleeper := &recordingSleeper{}
	p := mustNew(t, testConfig(), src, WithSleeper(sleeper.sleep))

	_, stats, err := p.Run(context.Background(), "", funds)
	require.NoError(t, err)

	// A11 is first (no pause), B11 and D11 are cached; only C11 waits.
	assert.Equal(t, []time.Duration{time.Second}, sleeper.calls)
	assert.Equal(t, 2, stats.Fetches)
}

func TestRun_NoDelayWhenDisabled(t *testing.T) {
	src := newFakeSource()
	src.dividends["A11"] = flat(12, 1)
	src.dividends["B11"] = flat(12, 1)

	cfg := testConfig()
	cfg.FetchDelay = 0
	sleeper := &recordingSleeper{}
	p := mustNew(t, cfg, src, WithSleeper(sleeper.sleep))

	_, _, err := p.Run(context.Background(), "", []core.Fund{
		fund("A11", "logistica", 1e6, 1),
		fund("B11", "logistica", 1e6, 1),
	})
	require.NoError(t, err)
	assert.Empty(t, sleeper.calls)
}

func TestRun_FetchErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	src := newFakeSource()
	src.dividends["A11"] = flat(12, 1)
	src.err["B11"] = boom

	p := mustNew(t, testConfig(), src, WithSleeper((&recordingSleeper{}).sleep))
	ranked, _, err := p.Run(context.Background(), "", []core.Fund{
		fund("A11", "logistica", 1e6, 1),
		fund("B11", "logistica", 1e6, 1),
		fund("C11", "logistica", 1e6, 1),
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "B11")
	assert.Nil(t, ranked)
	assert.Equal(t, []string{"A11", "B11"}, src.calls)
}

func TestRun_CancelledDuringPause(t *testing.T) {
	src := newFakeSource()
	src.dividends["A11"] = flat(12, 1)
	src.dividends["B11"] = flat(12, 1)

	cfg := testConfig()
	cfg.FetchDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())

	p := mustNew(t, cfg, src)
	done := make(chan error, 1)
	go func() {
		_, _, err := p.Run(ctx, "", []core.Fund{
			fund("A11", "logistica", 1e6, 1),
			fund("B11", "logistica", 1e6, 1),
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func TestRun_RecordsStageMetrics(t *testing.T) {
	src := newFakeSource()
	src.dividends["A11"] = flat(12, 1)
	m := metrics.New()

	p := mustNew(t, testConfig(), src, WithMetrics(m))
	_, _, err := p.Run(context.Background(), "", []core.Fund{
		fund("A11", "logistica", 1e6, 1),
		fund("B11", "logistica", 10, 1),
	})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(m.Registry(), "srank_pipeline_stage_funds")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestRun_EmptyListing(t *testing.T) {
	p := mustNew(t, testConfig(), newFakeSource())
	ranked, stats, err := p.Run(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Equal(t, Stats{}, stats)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MinLiquidity = -1
	cfg.FetchDelay = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min liquidity")
	assert.Contains(t, err.Error(), "fetch delay")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequiredDividends = -1

	p, err := New(cfg, newFakeSource())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "required dividends")
}

func TestRun_SkipsFundsWithoutTicker(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf})

	src := newFakeSource()
	src.dividends["AAAA11"] = flat(12, 1)
	src.dividends["BBBB11"] = flat(12, 1)

	sleeper := &recordingSleeper{}
	p := mustNew(t, testConfig(), src, WithSleeper(sleeper.sleep), WithLogger(logger))

	ctx := log.WithRunID(context.Background(), "run-42")
	ranked, stats, err := p.Run(ctx, "", []core.Fund{
		fund("", "logistica", 1e6, 1),
		fund("AAAA11", "logistica", 1e6, 1),
		fund("  ", "logistica", 1e6, 1),
		fund("BBBB11", "logistica", 1e6, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAAA11", "BBBB11"}, src.calls)
	assert.Equal(t, 4, stats.InSector)
	assert.Equal(t, 2, stats.Enriched)
	assert.Equal(t, 2, stats.Fetches)
	assert.Len(t, ranked, 2)
	// The first valid fund does not wait even though invalid rows came before it.
	assert.Len(t, sleeper.calls, 1)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "Skipping invalid fund"))
	assert.Contains(t, out, `"run_id":"run-42"`)
}

func TestRun_SkipsEmptyTickerWithGateway(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := json.Marshal(flat(12, 1))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	gw := gateway.New(gateway.Config{BaseURL: srv.URL}, cache.NewMemory())
	cfg := testConfig()
	cfg.FetchDelay = 0
	p := mustNew(t, cfg, gw)

	ranked, stats, err := p.Run(context.Background(), "", []core.Fund{
		fund("AAAA11", "logistica", 1e6, 1),
		fund("", "logistica", 1e6, 1),
	})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "AAAA11", ranked[0].Ticker)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, int32(1), hits.Load())
}
