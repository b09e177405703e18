package core

import (
	"errors"
	"strings"
)

// DividendTypeIncome is the distribution type kept by the ranking ("Rendimento").
const DividendTypeIncome = "Rendimento"

type (
	// Fund is a listed real-estate fund as returned by the ranking endpoint.
	Fund struct {
		Ticker         string `json:"ticker"`
		Title          string `json:"post_title,omitempty"`
		Sector         string `json:"setor"`
		SectorSlug     string `json:"setor_slug"`
		Price          Number `json:"valor"`
		PriceToBook    Number `json:"p_vpa"`
		PVP            Number `json:"pvp"`
		DailyLiquidity Number `json:"liquidezmediadiaria"`
		LastDividend   Number `json:"dividendo"`
		Yield          Number `json:"yeld"`
		MeanYield3M    Number `json:"media_yield_3m"`
		MeanYield6M    Number `json:"media_yield_6m"`
		MeanYield12M   Number `json:"media_yield_12m"`
		SumYield12M    Number `json:"soma_yield_12m"`
		NetWorth       Number `json:"patrimonio"`
		Shareholders   Number `json:"numero_cotista"`
		BookValue      Number `json:"vpa"`
		AdminFee       Number `json:"tx_admin"`
		Profitability  Number `json:"rentabilidade"`
		Volatility     Number `json:"volatility"`
	}

	// Dividend is a single distribution event of a fund.
	Dividend struct {
		Type         string `json:"tipo"`
		Sector       string `json:"setor"`
		Reference    string `json:"referencia"`
		Yield        Number `json:"yeld"`
		Value        Number `json:"valor"`
		BaseDate     string `json:"data_base,omitempty"`
		PaymentDate  string `json:"data_pagamento,omitempty"`
		ClosingPrice Number `json:"cotacao_fechamento"`
		MeanYield12M Number `json:"media_yield_12m"`
		Title        string `json:"post_title,omitempty"`
	}

	// RankedFund is a Fund enriched by the ranking pipeline.
	RankedFund struct {
		Fund

		Dividends       []Dividend `json:"-"`
		YieldMean       float64    `json:"yield_mean"`
		YieldMedian     float64    `json:"yield_median"`
		PriceToBookRank int        `json:"price_to_book_rank"`
		MedianYieldRank int        `json:"median_yield_rank"`
		CompositeRank   int        `json:"composite_rank"`
	}
)

var (
	ErrEmptyTicker   = errors.New("empty ticker")
	ErrInvalidPeriod = errors.New("invalid reference period")
	ErrInvalidNumber = errors.New("invalid number")
)

// Validate checks the minimum a fund needs to be fetched and ranked.
func (f Fund) Validate() error {
	if strings.TrimSpace(f.Ticker) == "" {
		return ErrEmptyTicker
	}
	return nil
}

// IsIncome reports whether the dividend is a regular income distribution
// attributed to a sector. Amortizations and sectorless rows are not.
func (d Dividend) IsIncome() bool {
	return d.Type == DividendTypeIncome && strings.TrimSpace(d.Sector) != ""
}

// Period parses the dividend reference month.
func (d Dividend) Period() (ReferencePeriod, error) {
	return ParseReferencePeriod(d.Reference)
}

// Yields extracts the yield series used for mean/median.
func Yields(dividends []Dividend) []float64 {
	out := make([]float64, len(dividends))
	for i, d := range dividends {
		out[i] = d.Yield.Float64()
	}
	return out
}

// Strip drops the transient per-dividend detail before export.
func (r RankedFund) Strip() RankedFund {
	r.Dividends = nil
	return r
}
