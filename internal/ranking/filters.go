package ranking

import (
	"strings"

	"srank/internal/core"
)

// FilterLiquidity keeps funds trading at least minimum per day.
func FilterLiquidity(funds []core.Fund, minimum float64) []core.Fund {
	out := make([]core.Fund, 0, len(funds))
	for _, f := range funds {
		if f.DailyLiquidity.Float64() >= minimum {
			out = append(out, f)
		}
	}
	return out
}

// FilterSectors drops funds without a sector slug or with an excluded one.
func FilterSectors(funds []core.Fund, excluded map[string]struct{}) []core.Fund {
	out := make([]core.Fund, 0, len(funds))
	for _, f := range funds {
		slug := strings.TrimSpace(f.SectorSlug)
		if slug == "" {
			continue
		}
		if _, skip := excluded[slug]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Enrich attaches dividends and their yield statistics to a fund.
// An empty series leaves mean and median at zero.
func Enrich(f core.Fund, dividends []core.Dividend) core.RankedFund {
	yields := core.Yields(dividends)
	mean, _ := core.Mean(yields)
	median, _ := core.Median(yields)
	return core.RankedFund{
		Fund:        f,
		Dividends:   dividends,
		YieldMean:   mean,
		YieldMedian: median,
	}
}

// FilterMature keeps funds with at least n income distributions.
func FilterMature(funds []core.RankedFund, n int) []core.RankedFund {
	return keep(funds, func(f core.RankedFund) bool { return len(f.Dividends) >= n })
}

// FilterDispersion keeps funds whose mean yield is within maxPct of the median.
// A zero median never passes.
func FilterDispersion(funds []core.RankedFund, maxPct float64) []core.RankedFund {
	return keep(funds, func(f core.RankedFund) bool {
		return core.Discrepancy(f.YieldMean, f.YieldMedian) <= maxPct
	})
}

// FilterPriced drops funds with no usable price-to-book or median yield.
func FilterPriced(funds []core.RankedFund) []core.RankedFund {
	return keep(funds, func(f core.RankedFund) bool {
		return !f.PriceToBook.IsZero() && f.YieldMedian != 0
	})
}

func keep(funds []core.RankedFund, pred func(core.RankedFund) bool) []core.RankedFund {
	out := make([]core.RankedFund, 0, len(funds))
	for _, f := range funds {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}
