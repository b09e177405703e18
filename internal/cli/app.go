package cli

import (
	"context"
	"errors"
	"fmt"

	"srank/internal/amqp"
	"srank/internal/cache"
	"srank/internal/config"
	"srank/internal/export"
	"srank/internal/gateway"
	"srank/internal/log"
	"srank/internal/metrics"
	"srank/internal/ranking"
	"srank/internal/services"
	gsheet "srank/internal/sheets/google"
)

// App holds the wired services for one process.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   cache.Store
	Metrics *metrics.Metrics
	Ranking *services.RankingService
	Cache   *services.CacheService

	closers []func() error
}

// NewApp builds every component from cfg. Optional sinks (spreadsheet,
// broker) that fail to initialize are logged and left out.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	m := metrics.New()

	store, closeStore, err := InitCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: m,
		closers: []func() error{closeStore},
	}

	gw := gateway.New(gateway.Config{
		BaseURL:   cfg.FundsBaseURL,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	}, store, gateway.WithMetrics(m), gateway.WithLogger(logger))

	pipeline, err := ranking.New(RankingConfig(cfg), gw,
		ranking.WithMetrics(m), ranking.WithLogger(logger))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("configure ranking: %w", err)
	}

	exporter := export.NewExporter(cfg.OutputDir, export.WithLogger(logger))

	opts := []services.RankingOption{
		services.WithMetrics(m),
		services.WithLogger(logger),
	}

	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client, upload disabled",
				log.NewFields().WithError(err).WithErrorType(log.ErrorTypeConfiguration).ToSlice()...)
		} else {
			opts = append(opts, services.WithSheets(client))
		}
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP, notifications disabled",
				log.NewFields().WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		} else {
			opts = append(opts, services.WithPublisher(client))
			app.closers = append(app.closers, client.Close)
		}
	}

	app.Ranking = services.NewRankingService(gw, pipeline, exporter, opts...)
	app.Cache = services.NewCacheService(store, m, logger)
	return app, nil
}

// RankingConfig maps the pipeline thresholds out of the process configuration.
func RankingConfig(cfg *config.Config) ranking.Config {
	return ranking.Config{
		MinLiquidity:      cfg.MinLiquidity,
		ExcludedSectors:   cfg.ExcludedSectors,
		RequiredDividends: cfg.RequiredDividends,
		MaxDiscrepancyPct: cfg.MaxDiscrepancyPct,
		FetchDelay:        cfg.FetchDelay,
	}
}

// StartBackground starts the cache sweeper and, when configured, the metrics
// endpoint. Both stop when ctx is done or Close is called.
func (a *App) StartBackground(ctx context.Context) {
	sweeper := cache.NewSweeper(a.Store, a.Config.CacheSweepInterval, a.Logger, a.Metrics.CacheSwept)
	sweeper.Start(ctx)
	a.closers = append([]func() error{func() error { sweeper.Stop(); return nil }}, a.closers...)

	if a.Config.MetricsAddr != "" {
		go func() {
			if err := a.Metrics.Serve(ctx, a.Config.MetricsAddr, a.Logger); err != nil {
				a.Logger.Error("Metrics server stopped", log.FieldError, err)
			}
		}()
	}
}

// Close releases everything opened by NewApp and StartBackground.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}
