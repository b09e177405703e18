// Package gateway fetches the auth token, fund list and dividend history from
// the funds API, memoizing each response in a cache.Store.
//
// Each operation follows the same policy: look up a deterministic key; on a hit
// return the cached value; on a miss issue exactly one request, parse it, store
// it with a fixed TTL and return it. Network failures are not retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"srank/internal/cache"
	"srank/internal/core"
	"srank/internal/log"
	"srank/internal/metrics"
)

const (
	// DefaultBaseURL is the public funds site.
	DefaultBaseURL = "https://www.fundsexplorer.com.br"

	// TokenHeader carries the scraped token on API requests.
	TokenHeader = "x-funds-nonce"

	// MaxDividends is how many recent income distributions are kept per fund.
	MaxDividends = 12

	TokenTTL     = time.Hour
	FundsTTL     = 5 * time.Hour
	DividendsTTL = 5 * time.Hour

	scriptPath    = "/wp-content/themes/fundsexplorer/dist/frontend.min.js"
	rankingPath   = "/wp-json/funds/v1/get-ranking"
	dividendsPath = "/wp-json/funds/v1/dividends-by-period"

	tokenKey          = "nonce"
	fundsKey          = "funds"
	dividendKeyPrefix = "dividends_"
)

// Resource names used in errors, logs and metrics.
const (
	ResourceToken     = "nonce"
	ResourceFunds     = "funds"
	ResourceDividends = "dividends"
)

// Config holds gateway settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Gateway is the memoizing client for the funds API.
type Gateway struct {
	baseURL   string
	userAgent string
	client    *http.Client
	store     cache.Store
	tokens    TokenExtractor
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTokenExtractor replaces the regexp-based extractor.
func WithTokenExtractor(x TokenExtractor) Option {
	return func(g *Gateway) { g.tokens = x }
}

// WithMetrics records cache lookups and upstream requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the gateway logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l.WithComponent(log.ComponentGateway) }
}

// New creates a gateway backed by store.
func New(cfg Config, store cache.Store, opts ...Option) *Gateway {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	g := &Gateway{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		client:    newHTTPClient(cfg.Timeout),
		store:     store,
		tokens:    NewRegexpTokenExtractor(),
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type tokenEntry struct {
	Nonce string `json:"nonce"`
}

// AuthToken returns the request token. When the script no longer contains it
// the token is empty and nothing is cached; callers continue without auth.
func (g *Gateway) AuthToken(ctx context.Context) (string, error) {
	if cached, ok := lookup[tokenEntry](ctx, g, ResourceToken, tokenKey); ok {
		g.logger.InfoContext(ctx, "Token loaded from cache")
		return cached.Nonce, nil
	}

	body, err := g.fetch(ctx, ResourceToken, g.baseURL+scriptPath, "")
	if err != nil {
		return "", err
	}

	token, ok := g.tokens.Extract(string(body))
	if !ok {
		g.logger.WarnContext(ctx, "Token not found in frontend script, continuing without auth",
			log.NewFields().WithErrorType(log.ErrorTypeAuth).ToSlice()...)
		return "", nil
	}

	g.logger.InfoContext(ctx, "Token extracted from frontend script")
	g.remember(ctx, tokenKey, tokenEntry{Nonce: token}, TokenTTL)
	return token, nil
}

// ListFunds returns the full fund listing.
func (g *Gateway) ListFunds(ctx context.Context, token string) ([]core.Fund, error) {
	if cached, ok := lookup[[]core.Fund](ctx, g, ResourceFunds, fundsKey); ok {
		g.logger.InfoContext(ctx, "Funds loaded from cache", log.FieldCount, len(cached))
		return cached, nil
	}

	body, err := g.fetch(ctx, ResourceFunds, g.baseURL+rankingPath, token)
	if err != nil {
		return nil, err
	}

	var funds []core.Fund
	if err := decodeJSON(body, &funds); err != nil {
		g.logger.ErrorContext(ctx, "Failed to parse funds response",
			log.NewFields().WithError(err).WithErrorType(log.ErrorTypeDataFormat).ToSlice()...)
		return nil, &DataFormatError{Resource: ResourceFunds, Err: err}
	}

	g.remember(ctx, fundsKey, funds, FundsTTL)
	return funds, nil
}

// ListDividends returns the most recent income distributions of a fund,
// newest first, at most MaxDividends.
func (g *Gateway) ListDividends(ctx context.Context, ticker, token string) ([]core.Dividend, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, core.ErrEmptyTicker
	}
	key := DividendsKey(ticker)
	if cached, ok := lookup[[]core.Dividend](ctx, g, ResourceDividends, key); ok {
		g.logger.DebugContext(ctx, "Dividends loaded from cache", log.FieldTicker, ticker)
		return cached, nil
	}

	q := url.Values{}
	q.Set("mes", "-1")
	q.Set("ano", "0")
	q.Set("ticker", ticker)
	body, err := g.fetch(ctx, ResourceDividends, g.baseURL+dividendsPath+"?"+q.Encode(), token)
	if err != nil {
		return nil, err
	}

	var raw []core.Dividend
	if err := decodeJSON(body, &raw); err != nil {
		g.logger.ErrorContext(ctx, "Failed to parse dividends response",
			log.NewFields().WithTicker(ticker).WithError(err).WithErrorType(log.ErrorTypeDataFormat).ToSlice()...)
		return nil, &DataFormatError{Resource: ResourceDividends + " of " + ticker, Err: err}
	}

	dividends := core.RecentIncome(raw, MaxDividends)
	g.remember(ctx, key, dividends, DividendsTTL)
	return dividends, nil
}

// HasCachedDividends reports whether a fund's dividends are cached and valid.
func (g *Gateway) HasCachedDividends(ctx context.Context, ticker string) bool {
	ok, err := g.store.Has(ctx, DividendsKey(ticker))
	if err != nil {
		g.logger.WarnContext(ctx, "Cache presence check failed",
			log.NewFields().WithTicker(ticker).WithError(err).ToSlice()...)
		return false
	}
	return ok
}

// DividendsKey is the cache key for a fund's dividends.
func DividendsKey(ticker string) string {
	return dividendKeyPrefix + ticker
}

func (g *Gateway) fetch(ctx context.Context, resource, rawURL, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set(TokenHeader, token)
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	start := time.Now()
	body, err := g.do(req, resource)
	g.metrics.UpstreamRequest(resource, time.Since(start), err)
	if err != nil {
		g.logger.ErrorContext(ctx, "Upstream request failed",
			log.NewFields().WithOperation(log.OpFetch).WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		return nil, err
	}

	g.logger.DebugContext(ctx, "Upstream request completed",
		log.FieldURL, rawURL,
		log.FieldDuration, time.Since(start).Milliseconds())
	return body, nil
}

func (g *Gateway) do(req *http.Request, resource string) ([]byte, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Resource: resource, URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", resource, err)
	}
	return body, nil
}

// lookup consults the cache. Storage failures are logged and treated as a miss.
func lookup[T any](ctx context.Context, g *Gateway, resource, key string) (T, bool) {
	v, ok, err := cache.Lookup[T](ctx, g.store, key)
	if err != nil {
		g.logger.WarnContext(ctx, "Cache lookup failed, fetching from upstream",
			log.NewFields().WithCache(key, false).WithError(err).WithErrorType(log.ErrorTypeDatabase).ToSlice()...)
		ok = false
	}
	g.metrics.CacheLookup(resource, ok)
	return v, ok
}

// remember writes through to the cache. A failed write only costs a refetch.
func (g *Gateway) remember(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := g.store.Set(ctx, key, value, ttl); err != nil {
		g.logger.WarnContext(ctx, "Failed to cache upstream response",
			log.NewFields().WithCache(key, false).WithError(err).WithErrorType(log.ErrorTypeDatabase).ToSlice()...)
	}
}

// decodeJSON parses body into dst. Some endpoints answer with the JSON
// document wrapped in a JSON string, so one level of string wrapping is undone.
func decodeJSON(body []byte, dst any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return errors.New("empty body")
	}
	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return err
		}
		body = []byte(inner)
	}
	return json.Unmarshal(body, dst)
}
