// Package cli wires configuration, logging and the cache into the services
// used by cmd/srank, and implements the interactive menu.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"srank/internal/cache"
	"srank/internal/config"
	"srank/internal/log"
	"srank/internal/storage"
)

// SetupLogger initializes structured logging from the configuration.
// Logs go to out so stdout stays free for the menu and tables.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, optionally from a YAML file,
// applies overrides (command-line flags) and validates the result.
func LoadAndValidateConfig(path string, overrides ...func(*config.Config)) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("SRANK_CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitCache opens the configured cache backend. The returned close function
// releases it and is never nil.
func InitCache(cfg *config.Config, logger *log.Logger) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		logger.Info("Initialized memory cache", "backend", cfg.CacheBackend)
		return cache.NewMemory(cache.WithMemoryLogger(logger)), func() error { return nil }, nil
	default:
		repo, err := storage.NewCacheRepository(cfg.SQLiteDBPath, storage.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("initialize SQLite cache at %s: %w", cfg.SQLiteDBPath, err)
		}
		logger.Info("Initialized SQLite cache", "backend", cfg.CacheBackend, log.FieldPath, cfg.SQLiteDBPath)
		return repo, repo.Close, nil
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
