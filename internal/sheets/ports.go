// Package sheets defines the outbound port for publishing a ranking to a
// spreadsheet, with a Google Sheets adapter and an in-memory one.
package sheets

import "context"

// Ports for outbound adapters.
type (
	// RankingWriter replaces the contents of a ranking sheet.
	RankingWriter interface {
		// WriteRanking writes header as the first line followed by rows and
		// returns a reference to the written range.
		WriteRanking(ctx context.Context, header []string, rows [][]any) (rangeRef string, err error)
	}
)
