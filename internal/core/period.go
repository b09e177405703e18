package core

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ReferencePeriod is the month/year a distribution refers to ("MM/YYYY").
type ReferencePeriod struct {
	Month int
	Year  int
}

// ParseReferencePeriod parses "MM/YYYY".
func ParseReferencePeriod(s string) (ReferencePeriod, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return ReferencePeriod{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return ReferencePeriod{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || year < 1 {
		return ReferencePeriod{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return ReferencePeriod{Month: month, Year: year}, nil
}

// Compare orders periods chronologically.
func (p ReferencePeriod) Compare(o ReferencePeriod) int {
	if c := cmp.Compare(p.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(p.Month, o.Month)
}

func (p ReferencePeriod) String() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// SortDividendsByPeriodDesc sorts most recent first. The sort is stable and
// rows with an unparseable reference go last.
func SortDividendsByPeriodDesc(dividends []Dividend) {
	slices.SortStableFunc(dividends, func(a, b Dividend) int {
		pa, errA := a.Period()
		pb, errB := b.Period()
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return pb.Compare(pa)
	})
}

// RecentIncome keeps income distributions, newest first, capped at limit.
func RecentIncome(dividends []Dividend, limit int) []Dividend {
	out := make([]Dividend, 0, len(dividends))
	for _, d := range dividends {
		if d.IsIncome() {
			out = append(out, d)
		}
	}
	SortDividendsByPeriodDesc(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
