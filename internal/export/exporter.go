package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"srank/internal/log"
)

// FilePrefix starts every exported file name.
const FilePrefix = "fundos-srank-"

// DefaultDir is where files are written when no directory is configured.
const DefaultDir = "./files"

// Exporter writes the same rows through every configured Writer.
type Exporter struct {
	dir     string
	writers []Writer
	now     func() time.Time
	logger  *log.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithWriters replaces the default JSON and XLSX writers.
func WithWriters(w ...Writer) Option {
	return func(e *Exporter) { e.writers = w }
}

// WithClock sets the time used for file names.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithLogger sets the exporter logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Exporter) { e.logger = l.WithComponent(log.ComponentExport) }
}

// NewExporter writes into dir, created on first export.
func NewExporter(dir string, opts ...Option) *Exporter {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	e := &Exporter{
		dir:     dir,
		writers: []Writer{JSONWriter{}, XLSXWriter{}},
		now:     time.Now,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BaseName is the timestamped file name shared by all formats of one export:
// the UTC ISO-8601 time with colons replaced by underscores.
func BaseName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return FilePrefix + strings.ReplaceAll(stamp, ":", "_")
}

// Export writes rows with every writer concurrently and returns the written
// paths in writer order. A failure in one writer cancels the others.
func (e *Exporter) Export(ctx context.Context, rows []Row) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(e.dir, BaseName(e.now()))
	paths := make([]string, len(e.writers))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range e.writers {
		w := w
		path := base + w.Ext()
		paths[i] = path
		g.Go(func() error {
			start := time.Now()
			if err := w.Write(gctx, path, rows); err != nil {
				return err
			}
			e.logger.InfoContext(gctx, "File generated",
				log.FieldPath, path,
				log.FieldCount, len(rows),
				log.FieldDuration, time.Since(start).Milliseconds())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "Export failed",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		return nil, err
	}
	return paths, nil
}
