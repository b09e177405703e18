package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"srank/internal/core"
	"srank/internal/services"
)

// PrintRanking writes the ranked funds with their yield statistics as an
// aligned table.
func PrintRanking(out io.Writer, funds []core.RankedFund) {
	if len(funds) == 0 {
		fmt.Fprintln(out, "No funds passed the filters")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTICKER\tP/VPA\tMEAN DY\tMEDIAN DY\tMEAN DY 12M (SOURCE)")
	for _, f := range funds {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.4f\t%s\n",
			f.CompositeRank,
			f.Ticker,
			number(f.PriceToBook),
			f.YieldMean,
			f.YieldMedian,
			number(f.MeanYield12M),
		)
	}
	w.Flush()
}

// PrintSummary writes the stage counts, the ranking and the generated files.
func PrintSummary(out io.Writer, res *services.RunResult) {
	if res == nil {
		return
	}
	s := res.Stats
	fmt.Fprintf(out, "Funds found: %d\n", s.Found)
	fmt.Fprintf(out, "Funds after filters: %d\n", s.InSector)
	fmt.Fprintf(out, "Funds before discrepancy analysis: %d\n", s.Mature)
	fmt.Fprintf(out, "Funds after discrepancy analysis: %d\n", s.Consistent)
	fmt.Fprintln(out, "----- FUNDS WITH THEIR DY MEAN AND MEDIAN -----")
	PrintRanking(out, res.Ranked)
	for _, f := range res.Files {
		fmt.Fprintf(out, "File %s generated\n", f)
	}
	if res.SheetRange != "" {
		fmt.Fprintf(out, "Spreadsheet updated: %s\n", res.SheetRange)
	}
}

func number(n core.Number) string {
	if !n.Valid {
		return "-"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
