package ranking

import (
	"cmp"
	"slices"

	"srank/internal/core"
)

// Every ranking step sorts stably, so ties keep the order left by the
// previous step.

// RankByPriceToBook orders funds by ascending P/VPA and numbers them from 1.
func RankByPriceToBook(funds []core.RankedFund) {
	slices.SortStableFunc(funds, func(a, b core.RankedFund) int {
		return cmp.Compare(a.PriceToBook.Float64(), b.PriceToBook.Float64())
	})
	for i := range funds {
		funds[i].PriceToBookRank = i + 1
	}
}

// RankByMedianYield orders funds by descending median yield and numbers them from 1.
func RankByMedianYield(funds []core.RankedFund) {
	slices.SortStableFunc(funds, func(a, b core.RankedFund) int {
		return cmp.Compare(b.YieldMedian, a.YieldMedian)
	})
	for i := range funds {
		funds[i].MedianYieldRank = i + 1
	}
}

// RankComposite sums both ranks and orders funds by the sum, ascending.
func RankComposite(funds []core.RankedFund) {
	for i := range funds {
		funds[i].CompositeRank = funds[i].PriceToBookRank + funds[i].MedianYieldRank
	}
	slices.SortStableFunc(funds, func(a, b core.RankedFund) int {
		return cmp.Compare(a.CompositeRank, b.CompositeRank)
	})
}

// Rank applies the three ranking steps in order.
func Rank(funds []core.RankedFund) {
	RankByPriceToBook(funds)
	RankByMedianYield(funds)
	RankComposite(funds)
}
