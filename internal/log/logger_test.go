package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentCache, Output: &buf})
	l.Info("hello", FieldCacheKey, "funds")

	out := buf.String()
	if !strings.Contains(out, `"component":"cache"`) {
		t.Fatalf("expected component field, got %s", out)
	}
	if !strings.Contains(out, `"cache_key":"funds"`) {
		t.Fatalf("expected cache_key field, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf})
	ctx := WithRunID(NewContext(context.Background(), l), "run-1")

	FromContext(ctx).InfoContext(ctx, "step")
	if !strings.Contains(buf.String(), "run_id=run-1") {
		t.Fatalf("expected run id in output, got %q", buf.String())
	}
}

func TestRunIDReachesEveryComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	gateway := base.WithComponent(ComponentGateway)
	ranking := base.WithComponent(ComponentRanking).With(FieldTicker, "HGLG11")

	ctx := WithRunID(context.Background(), "run-7")
	gateway.InfoContext(ctx, "fetched")
	ranking.WarnContext(ctx, "skipped")
	base.InfoContext(context.Background(), "outside run")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 records, got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines[:2] {
		if !strings.Contains(line, `"run_id":"run-7"`) {
			t.Errorf("expected run id in %s", line)
		}
		if strings.Count(line, "run_id") != 1 {
			t.Errorf("expected a single run id in %s", line)
		}
	}
	if strings.Contains(lines[2], "run_id") {
		t.Errorf("unexpected run id outside a run: %s", lines[2])
	}
	if id, ok := RunIDFromContext(ctx); !ok || id != "run-7" {
		t.Errorf("RunIDFromContext = %q, %v", id, ok)
	}
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l.Component() != "unknown" {
		t.Fatalf("expected unknown component, got %q", l.Component())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentGateway).
		WithOperation(OpFetch).
		WithError(errors.New("boom")).
		WithCache("nonce", true).
		WithStage("liquidity", 3)

	if f[FieldError] != "boom" || f[FieldCacheHit] != true || f[FieldCount] != 3 {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatalf("ToSlice length mismatch")
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error must not add a field")
	}
}
