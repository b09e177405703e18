// Package ranking turns the raw fund listing into the S-Rank ordering.
//
// The pipeline narrows the listing with cheap filters first (liquidity,
// sector), then fetches dividend history one fund at a time, drops funds
// without a full year of income or with an erratic yield, and finally ranks
// the survivors by price-to-book and by median yield. The composite rank is
// the sum of both positions; lower is better.
package ranking

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for Config.
const (
	DefaultMinLiquidity      = 200_000
	DefaultRequiredDividends = 12
	DefaultMaxDiscrepancyPct = 20
	DefaultFetchDelay        = 3 * time.Second
)

// DefaultExcludedSectors are the sector slugs never ranked.
var DefaultExcludedSectors = []string{
	"indefinido",
	"educacional",
	"fundo-de-desenvolvimento",
	"imoveis-residenciais",
	"hoteis",
	"imoveis-comerciais-outros",
	"outros",
}

// Config tunes the pipeline thresholds.
type Config struct {
	// MinLiquidity is the minimum average daily traded value, inclusive.
	MinLiquidity float64
	// ExcludedSectors lists sector slugs to drop. Funds without a slug are always dropped.
	ExcludedSectors []string
	// RequiredDividends is the minimum number of income distributions.
	RequiredDividends int
	// MaxDiscrepancyPct bounds |mean-median|/median, in percent, inclusive.
	MaxDiscrepancyPct float64
	// FetchDelay is the pause before fetching a fund whose dividends are not cached.
	FetchDelay time.Duration
}

// DefaultConfig returns the standard S-Rank thresholds.
func DefaultConfig() Config {
	return Config{
		MinLiquidity:      DefaultMinLiquidity,
		ExcludedSectors:   append([]string(nil), DefaultExcludedSectors...),
		RequiredDividends: DefaultRequiredDividends,
		MaxDiscrepancyPct: DefaultMaxDiscrepancyPct,
		FetchDelay:        DefaultFetchDelay,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	var errs []string
	if c.MinLiquidity < 0 {
		errs = append(errs, "min liquidity cannot be negative")
	}
	if c.RequiredDividends < 0 {
		errs = append(errs, "required dividends cannot be negative")
	}
	if c.MaxDiscrepancyPct < 0 {
		errs = append(errs, "max discrepancy cannot be negative")
	}
	if c.FetchDelay < 0 {
		errs = append(errs, "fetch delay cannot be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("ranking config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) excluded() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ExcludedSectors))
	for _, s := range c.ExcludedSectors {
		set[strings.TrimSpace(s)] = struct{}{}
	}
	return set
}
