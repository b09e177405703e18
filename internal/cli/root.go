package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"srank/internal/config"
	"srank/internal/services"
)

type rootOptions struct {
	configPath string
	dbPath     string
	outputDir  string
	backend    string
}

func (o *rootOptions) apply(cfg *config.Config) {
	if o.dbPath != "" {
		cfg.SQLiteDBPath = o.dbPath
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.backend != "" {
		cfg.CacheBackend = o.backend
	}
}

// NewRootCmd creates the srank command. Without a subcommand it opens the
// interactive menu.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "srank",
		Short: "Rank real-estate funds by price-to-book and median dividend yield",
		Long: `srank fetches the fund listing and dividend history from the funds API,
keeps liquid funds with a stable year of income and ranks them by P/VPA and
median dividend yield. Responses are cached locally to keep upstream traffic low.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				app.StartBackground(ctx)
				actions := menuActions{ranking: app.Ranking, cache: app.Cache}
				return NewMenu(cmd.InOrStdin(), cmd.OutOrStdout(), actions, app.Logger).Loop(ctx)
			})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (env: SRANK_CONFIG_FILE)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite cache file (env: SQLITE_DB_PATH)")
	flags.StringVar(&opts.outputDir, "output", "", "directory for exported files (env: OUTPUT_DIR)")
	flags.StringVar(&opts.backend, "backend", "", "cache backend: sqlite or memory (env: CACHE_BACKEND)")

	cmd.AddCommand(
		newRankCmd(opts),
		newClearCacheCmd(opts),
		newSweepCmd(opts),
	)
	return cmd
}

func newRankCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Fetch, rank and export once, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				app.StartBackground(ctx)
				res, err := app.Ranking.Run(ctx)
				if err != nil {
					return err
				}
				PrintSummary(cmd.OutOrStdout(), res)
				fmt.Fprintln(cmd.OutOrStdout(), MenuGenerated)
				return nil
			})
		},
	}
}

func newClearCacheCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Delete every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Cache.ClearCache(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), MenuCleared)
				return nil
			})
		},
	}
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				n, err := app.Cache.SweepCache(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired cache entries\n", n)
				return nil
			})
		},
	}
}

// withApp loads configuration, builds the App and runs fn under a context
// cancelled by SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *App) error) error {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig(opts.configPath, opts.apply)
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg, cmd.ErrOrStderr())

	ctx, cancel := SignalContext(cmd.Context(), logger)
	defer cancel()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("Failed to close resources", "error", cerr)
		}
	}()

	return fn(ctx, app)
}

type menuActions struct {
	ranking *services.RankingService
	cache   *services.CacheService
}

func (a menuActions) Run(ctx context.Context) (*services.RunResult, error) {
	return a.ranking.Run(ctx)
}

func (a menuActions) ClearCache(ctx context.Context) error {
	return a.cache.ClearCache(ctx)
}
