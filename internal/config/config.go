package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// Cache
	SQLiteDBPath       string        `yaml:"sqlite_db_path"`
	CacheBackend       string        `yaml:"cache_backend"`
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval"`

	// Upstream
	FundsBaseURL string        `yaml:"funds_base_url"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	UserAgent    string        `yaml:"user_agent"`
	FetchDelay   time.Duration `yaml:"fetch_delay"`

	// Ranking
	MinLiquidity      float64  `yaml:"min_liquidity"`
	MaxDiscrepancyPct float64  `yaml:"max_discrepancy_pct"`
	RequiredDividends int      `yaml:"required_dividends"`
	ExcludedSectors   []string `yaml:"excluded_sectors"`

	// Export
	OutputDir string `yaml:"output_dir"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets, disabled when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"`
	GoogleSheetName          string `yaml:"google_sheet_name"`
	GoogleServiceAccountJSON string `yaml:"google_service_account_json"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		SQLiteDBPath:       "./data/cache.db",
		CacheBackend:       BackendSQLite,
		CacheSweepInterval: 10 * time.Minute,

		FundsBaseURL: "https://www.fundsexplorer.com.br",
		HTTPTimeout:  30 * time.Second,
		FetchDelay:   3 * time.Second,

		MinLiquidity:      200000,
		MaxDiscrepancyPct: 20,
		RequiredDividends: 12,
		ExcludedSectors: []string{
			"indefinido",
			"educacional",
			"fundo-de-desenvolvimento",
			"imoveis-residenciais",
			"hoteis",
			"imoveis-comerciais-outros",
			"outros",
		},

		OutputDir: "./files",

		LogLevel:  "info",
		LogFormat: "text",

		AMQPExchange: "srank",
		AMQPQueue:    "srank.rankings",

		GoogleSheetName: "S-Rank",
	}
}

// Load reads the configuration from the environment on top of Defaults.
func Load() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML file on top of Defaults, then applies the environment.
// An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Load(), nil
	}
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.CacheSweepInterval = getEnvDuration("CACHE_SWEEP_INTERVAL", c.CacheSweepInterval)

	c.FundsBaseURL = getEnv("FUNDS_BASE_URL", c.FundsBaseURL)
	c.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", c.HTTPTimeout)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.FetchDelay = getEnvDuration("FETCH_DELAY", c.FetchDelay)

	c.MinLiquidity = getEnvFloat("MIN_LIQUIDITY", c.MinLiquidity)
	c.MaxDiscrepancyPct = getEnvFloat("MAX_DISCREPANCY_PCT", c.MaxDiscrepancyPct)
	c.RequiredDividends = getEnvInt("REQUIRED_DIVIDENDS", c.RequiredDividends)
	c.ExcludedSectors = getEnvList("EXCLUDED_SECTORS", c.ExcludedSectors)

	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
}

// AMQPEnabled reports whether ranking notifications are published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// SheetsEnabled reports whether the ranking is uploaded to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate cache backend
	switch c.CacheBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of [%s %s]", c.CacheBackend, BackendSQLite, BackendMemory))
	}

	if c.CacheSweepInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache sweep interval %v: cannot be negative", c.CacheSweepInterval))
	}

	// Validate upstream
	if parsedURL, err := url.Parse(c.FundsBaseURL); err != nil || c.FundsBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid funds base URL '%s'", c.FundsBaseURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid funds base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.HTTPTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: cannot be negative", c.HTTPTimeout))
	}
	if c.FetchDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid fetch delay %v: cannot be negative", c.FetchDelay))
	} else if c.FetchDelay > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch delay %v: must be at most 1 minute", c.FetchDelay))
	}

	// Validate ranking thresholds
	if c.MinLiquidity < 0 {
		errors = append(errors, fmt.Sprintf("invalid min liquidity %v: cannot be negative", c.MinLiquidity))
	}
	if c.MaxDiscrepancyPct < 0 {
		errors = append(errors, fmt.Sprintf("invalid max discrepancy %v: cannot be negative", c.MaxDiscrepancyPct))
	}
	if c.RequiredDividends < 1 {
		errors = append(errors, fmt.Sprintf("invalid required dividends %d: must be at least 1", c.RequiredDividends))
	}

	if c.OutputDir == "" {
		errors = append(errors, "output directory cannot be empty")
	}

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if an upload target is set
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		hasADC := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
		if !hasJSON && !hasFile && !hasADC {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets upload")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
