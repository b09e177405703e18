package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"srank/internal/amqp"
	"srank/internal/core"
	"srank/internal/export"
	"srank/internal/log"
	"srank/internal/metrics"
	"srank/internal/ranking"
	"srank/internal/sheets"
)

// FundSource provides the request token and the fund listing.
type FundSource interface {
	AuthToken(ctx context.Context) (string, error)
	ListFunds(ctx context.Context, token string) ([]core.Fund, error)
}

// Ranker filters and orders a fund listing.
type Ranker interface {
	Run(ctx context.Context, token string, funds []core.Fund) ([]core.RankedFund, ranking.Stats, error)
}

// FileExporter writes rows to disk and returns the written paths.
type FileExporter interface {
	Export(ctx context.Context, rows []export.Row) ([]string, error)
}

// RankingPublisher announces finished runs.
type RankingPublisher interface {
	PublishRankingPublished(ctx context.Context, msg *amqp.RankingPublishedMessage) error
}

// RunResult summarises one ranking run.
type RunResult struct {
	RunID      string
	Ranked     []core.RankedFund
	Stats      ranking.Stats
	Files      []string
	SheetRange string
	Duration   time.Duration
}

// RankingService orchestrates fetch, rank and export.
type RankingService struct {
	funds     FundSource
	ranker    Ranker
	exporter  FileExporter
	sheets    sheets.RankingWriter
	publisher RankingPublisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	newRunID  func() string
}

// RankingOption configures a RankingService.
type RankingOption func(*RankingService)

// WithSheets uploads every ranking to a spreadsheet.
func WithSheets(w sheets.RankingWriter) RankingOption {
	return func(s *RankingService) { s.sheets = w }
}

// WithPublisher announces every ranking on the message broker.
func WithPublisher(p RankingPublisher) RankingOption {
	return func(s *RankingService) { s.publisher = p }
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) RankingOption {
	return func(s *RankingService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) RankingOption {
	return func(s *RankingService) { s.logger = l.WithComponent(log.ComponentServices) }
}

// WithRunIDs replaces the UUID generator.
func WithRunIDs(gen func() string) RankingOption {
	return func(s *RankingService) { s.newRunID = gen }
}

func NewRankingService(funds FundSource, ranker Ranker, exporter FileExporter, opts ...RankingOption) *RankingService {
	s := &RankingService{
		funds:    funds,
		ranker:   ranker,
		exporter: exporter,
		logger:   log.Discard().WithComponent(log.ComponentServices),
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run fetches the listing, ranks it and writes the files. Spreadsheet upload
// and broker notification are best effort: their failures are logged and the
// run still succeeds.
func (s *RankingService) Run(ctx context.Context) (res *RunResult, err error) {
	start := time.Now()
	runID := s.newRunID()
	ctx = log.WithRunID(log.NewContext(ctx, s.logger), runID)
	logger := log.FromContext(ctx)
	defer func() { s.metrics.Run(err) }()

	logger.InfoContext(ctx, "Ranking run started")

	token, err := s.funds.AuthToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth token: %w", err)
	}

	funds, err := s.funds.ListFunds(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	logger.InfoContext(ctx, "Funds found", log.FieldCount, len(funds))

	ranked, stats, err := s.ranker.Run(ctx, token, funds)
	if err != nil {
		return nil, fmt.Errorf("rank funds: %w", err)
	}
	for i := range ranked {
		ranked[i] = ranked[i].Strip()
	}

	rows := export.Rows(ranked)
	files, err := s.exporter.Export(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("export ranking: %w", err)
	}
	logger.InfoContext(ctx, "JSON and XLSX files generated", log.FieldCount, len(files))

	res = &RunResult{
		RunID:  runID,
		Ranked: ranked,
		Stats:  stats,
		Files:  files,
	}
	res.SheetRange = s.upload(ctx, logger, rows)
	s.publish(ctx, logger, res)

	res.Duration = time.Since(start)
	logger.InfoContext(ctx, "Ranking run completed",
		log.FieldCount, len(ranked),
		log.FieldDuration, res.Duration.Milliseconds())
	return res, nil
}

func (s *RankingService) upload(ctx context.Context, logger *log.Logger, rows []export.Row) string {
	if s.sheets == nil {
		return ""
	}
	ref, err := s.sheets.WriteRanking(ctx, export.Headers, export.Table(rows))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to upload ranking to spreadsheet",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		return ""
	}
	return ref
}

func (s *RankingService) publish(ctx context.Context, logger *log.Logger, res *RunResult) {
	if s.publisher == nil {
		logger.DebugContext(ctx, "AMQP client not available, skipping ranking message")
		return
	}
	tickers := make([]string, len(res.Ranked))
	for i, f := range res.Ranked {
		tickers[i] = f.Ticker
	}
	msg := amqp.NewRankingPublishedMessage(res.RunID, tickers, res.Files, res.SheetRange)
	if err := s.publisher.PublishRankingPublished(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ranking message",
			log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
}
