package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Writer renders rows into a single file.
type Writer interface {
	// Ext is the file extension, including the dot.
	Ext() string
	Write(ctx context.Context, path string, rows []Row) error
}

// JSONWriter writes an indented JSON array of rows.
type JSONWriter struct{}

// Ext implements Writer.
func (JSONWriter) Ext() string { return ".json" }

// Write implements Writer.
func (JSONWriter) Write(ctx context.Context, path string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rows == nil {
		rows = []Row{}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// XLSXWriter writes a workbook with one sheet: a header line followed by the rows.
type XLSXWriter struct {
	SheetName string
}

// DefaultSheetName is the worksheet used when SheetName is empty.
const DefaultSheetName = "Sheet1"

// Ext implements Writer.
func (XLSXWriter) Ext() string { return ".xlsx" }

// Write implements Writer.
func (x XLSXWriter) Write(ctx context.Context, path string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := x.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if first := f.GetSheetName(0); first != sheet {
		if err := f.SetSheetName(first, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.Values()
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
