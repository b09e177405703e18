package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"srank/internal/log"
	ports "srank/internal/sheets"
)

// DefaultSheetName is the tab the ranking is written to.
const DefaultSheetName = "S-Rank"

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.RankingWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Credentials come from cfg, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := serviceAccountCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func serviceAccountCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteRanking creates the sheet if needed, clears it and writes the table from A1.
func (c *Client) WriteRanking(ctx context.Context, header []string, rows [][]any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx); err != nil {
		return "", err
	}

	clearRange := quoteSheet(c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := make([][]any, 0, len(rows)+1)
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	values = append(values, head)
	for _, r := range rows {
		values = append(values, nullCells(r))
	}

	target := quoteSheet(c.sheetName) + "!A1"
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", target, err)
	}

	ref := resp.UpdatedRange
	if ref == "" {
		ref = target
	}
	c.logger.InfoContext(ctx, "Ranking uploaded to spreadsheet",
		log.FieldCount, len(rows),
		"range", ref)
	return ref, nil
}

func (c *Client) ensureSheet(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: c.sheetName}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Created ranking sheet", "sheet", c.sheetName)
	return nil
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// nullCells writes unset cells as empty strings.
func nullCells(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if v == nil {
			out[i] = ""
			continue
		}
		out[i] = v
	}
	return out
}
