package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sma-crossover/internal/config"
	"sma-crossover/internal/domain"
	"sma-crossover/internal/service"

	"github.com/rs/zerolog"
)

type stubViewer struct {
	calls int
	err   error
}

func (v *stubViewer) Render(ctx context.Context, series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error) {
	v.calls++
	return nil, v.err
}

func setupRun(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	origLoadEnv := loadEnvFunc
	origViewer := newViewerFunc
	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		newViewerFunc = origViewer
	})
	loadEnvFunc = func(...string) error { return nil }

	for _, key := range []string{
		"SYMBOL", "LOOKBACK_DAYS", "SHORT_WINDOW", "LONG_WINDOW", "VS_CURRENCY",
		"COINGECKO_API_KEY", "COINGECKO_PRO_API_KEY", "COINGECKO_TIMEOUT_SECS",
		"RENDER_MODE", "CHART_WIDTH", "CHART_HEIGHT", "RUN_TIMEOUT_SECS",
		"METRICS_TEXTFILE", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("COINGECKO_BASE_URL", srv.URL)

	dir := t.TempDir()
	t.Setenv("CHART_OUTPUT", filepath.Join(dir, "chart.png"))
	return dir
}

func marketChart(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(`{"prices":[`)
	for i := 0; i < 30; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "[%d,%d]", 1700000000000+int64(i)*86400000, 100+(i%7)*4)
	}
	b.WriteString(`]}`)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(b.String()))
}

func TestRunWritesPNGAndMetrics(t *testing.T) {
	dir := setupRun(t, marketChart)
	metricsPath := filepath.Join(dir, "sma.prom")
	t.Setenv("METRICS_TEXTFILE", metricsPath)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--render", "png", "--short", "3", "--long", "8"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}

	if _, err := os.Stat(filepath.Join(dir, "chart.png")); err != nil {
		t.Fatalf("expected chart written: %v", err)
	}
	if !strings.Contains(stdout.String(), "bitcoin/usd SMA 3/8 over 30 samples") {
		t.Fatalf("unexpected summary: %s", stdout.String())
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), "sma_crossover_price_samples") {
		t.Fatalf("unexpected metrics: %s", data)
	}
}

func TestRunAutoModeWithoutTerminalWritesPNG(t *testing.T) {
	dir := setupRun(t, marketChart)
	viewer := &stubViewer{}
	newViewerFunc = func() service.ChartRenderer { return viewer }

	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if viewer.calls != 0 {
		t.Fatal("interactive viewer must not open when stdout is not a terminal")
	}
	if _, err := os.Stat(filepath.Join(dir, "chart.png")); err != nil {
		t.Fatalf("expected chart written: %v", err)
	}
}

func TestRunRenderFailureExitsNonZero(t *testing.T) {
	setupRun(t, marketChart)
	newViewerFunc = func() service.ChartRenderer {
		return &stubViewer{err: fmt.Errorf("open tty: %w", domain.ErrRenderFailure)}
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--render", "tui"}, &stdout, &stderr); code != exitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "latest=") {
		t.Fatalf("computed summary should still be printed, got %q", stdout.String())
	}
}

func TestRunUnknownSymbolExitsNonZero(t *testing.T) {
	setupRun(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--symbol", "nope", "--render", "png"}, &stdout, &stderr); code != exitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("nothing should be printed on acquisition failure, got %q", stdout.String())
	}
}

func TestRunFlagErrors(t *testing.T) {
	setupRun(t, marketChart)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--days", "0"}, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected exit 2 for invalid days, got %d", code)
	}
	if code := run([]string{"--bogus"}, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected exit 2 for unknown flag, got %d", code)
	}
	if code := run([]string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected exit 0 for help, got %d", code)
	}
}

func TestParseOptions(t *testing.T) {
	cfg := &config.Config{
		Symbol:       "bitcoin",
		Currency:     "usd",
		LookbackDays: 365,
		ShortWindow:  20,
		LongWindow:   50,
		RenderMode:   config.RenderAuto,
		ChartOutput:  "sma_crossover.png",
	}

	opts, err := parseOptions(nil, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.params != domain.DefaultAnalysisParams() || opts.mode != config.RenderAuto || opts.out != "sma_crossover.png" {
		t.Fatalf("expected config defaults, got %+v", opts)
	}

	opts, err = parseOptions([]string{"--symbol", "ETH", "--days", "90", "--short", "5", "--long", "10", "--render", "both", "--out", "x.png"}, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.AnalysisParams{Symbol: "ETH", Currency: "usd", LookbackDays: 90, ShortWindow: 5, LongWindow: 10}
	if opts.params != want || opts.mode != config.RenderBoth || opts.out != "x.png" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	for _, args := range [][]string{
		{"--render", "svg"},
		{"--short", "-1"},
		{"--symbol", " "},
		{"--out", ""},
		{"extra"},
	} {
		if _, err := parseOptions(args, cfg, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestResolveMode(t *testing.T) {
	if got := resolveMode(config.RenderAuto, true); got != config.RenderTUI {
		t.Fatalf("expected tui on terminal, got %s", got)
	}
	if got := resolveMode(config.RenderAuto, false); got != config.RenderPNG {
		t.Fatalf("expected png off terminal, got %s", got)
	}
	if got := resolveMode(config.RenderBoth, false); got != config.RenderBoth {
		t.Fatalf("explicit mode must be kept, got %s", got)
	}
}

func TestNewRendererBothRunsPNGFirst(t *testing.T) {
	orig := newViewerFunc
	t.Cleanup(func() { newViewerFunc = orig })
	viewer := &stubViewer{}
	newViewerFunc = func() service.ChartRenderer { return viewer }

	cfg := config.Load(zerolog.Nop())
	r, ok := newRenderer(config.RenderBoth, cfg, "x.png").(service.MultiRenderer)
	if !ok || len(r) != 2 {
		t.Fatalf("expected two renderers, got %#v", r)
	}
	if r[1] != viewer {
		t.Fatal("expected viewer to run after the png renderer")
	}
}

func TestIsTerminalNonFile(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Fatal("buffer must not be a terminal")
	}
}
