// Package export writes the final ranking to disk.
package export

import (
	"srank/internal/core"
)

// Column headers, in file order.
const (
	ColCompositeRank   = "Ranking S-Rank"
	ColTicker          = "Ticker"
	ColPrice           = "Valor"
	ColPriceToBook     = "P/VPA"
	ColDailyLiquidity  = "Liquidez Média Diária"
	ColYieldMean       = "Média DY 12M"
	ColYieldMedian     = "Mediana DY 12M"
	ColPriceToBookRank = "Ranking P/VPA"
	ColMedianYieldRank = "Ranking Mediana"
)

// Headers lists the columns of a Row.
var Headers = []string{
	ColCompositeRank,
	ColTicker,
	ColPrice,
	ColPriceToBook,
	ColDailyLiquidity,
	ColYieldMean,
	ColYieldMedian,
	ColPriceToBookRank,
	ColMedianYieldRank,
}

// Row is the exported projection of a ranked fund.
type Row struct {
	CompositeRank   int         `json:"Ranking S-Rank"`
	Ticker          string      `json:"Ticker"`
	Price           core.Number `json:"Valor"`
	PriceToBook     core.Number `json:"P/VPA"`
	DailyLiquidity  core.Number `json:"Liquidez Média Diária"`
	YieldMean       float64     `json:"Média DY 12M"`
	YieldMedian     float64     `json:"Mediana DY 12M"`
	PriceToBookRank int         `json:"Ranking P/VPA"`
	MedianYieldRank int         `json:"Ranking Mediana"`
}

// NewRow projects a ranked fund. Dividend detail is not carried over.
func NewRow(f core.RankedFund) Row {
	return Row{
		CompositeRank:   f.CompositeRank,
		Ticker:          f.Ticker,
		Price:           f.Price,
		PriceToBook:     f.PriceToBook,
		DailyLiquidity:  f.DailyLiquidity,
		YieldMean:       f.YieldMean,
		YieldMedian:     f.YieldMedian,
		PriceToBookRank: f.PriceToBookRank,
		MedianYieldRank: f.MedianYieldRank,
	}
}

// Rows projects a ranking, keeping its order.
func Rows(funds []core.RankedFund) []Row {
	out := make([]Row, len(funds))
	for i, f := range funds {
		out[i] = NewRow(f)
	}
	return out
}

// Values returns the row cells in Headers order. Unset numbers become nil.
func (r Row) Values() []any {
	return []any{
		r.CompositeRank,
		r.Ticker,
		cell(r.Price),
		cell(r.PriceToBook),
		cell(r.DailyLiquidity),
		r.YieldMean,
		r.YieldMedian,
		r.PriceToBookRank,
		r.MedianYieldRank,
	}
}

// Table returns the rows as cells, without the header line.
func Table(rows []Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

func cell(n core.Number) any {
	if !n.Valid {
		return nil
	}
	return n.Value
}
