package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"sma-crossover/internal/chart"
	"sma-crossover/internal/config"
	"sma-crossover/internal/domain"
	"sma-crossover/internal/logger"
	"sma-crossover/internal/metrics"
	"sma-crossover/internal/provider"
	"sma-crossover/internal/service"
	signalengine "sma-crossover/internal/signal"
	"sma-crossover/internal/tracing"
	"sma-crossover/internal/tui"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "sma-crossover"

	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var (
	loadEnvFunc     = godotenv.Load
	loadConfigFunc  = config.Load
	initTracerFunc  = tracing.InitTracer
	isTerminalFunc  = isTerminal
	newProviderFunc = func(tracer trace.Tracer, cfg *config.Config, log zerolog.Logger) service.PriceSeriesProvider {
		return provider.NewCoinGeckoProvider(tracer, provider.CoinGeckoOptions{
			BaseURL:   cfg.CoinGeckoBaseURL,
			APIKey:    cfg.CoinGeckoAPIKey,
			ProAPIKey: cfg.CoinGeckoProAPIKey,
			Timeout:   time.Duration(cfg.CoinGeckoTimeoutSecs) * time.Second,
			Logger:    &log,
		})
	}
	newViewerFunc = func() service.ChartRenderer {
		return tui.NewViewer(tui.ViewerOptions{AltScreen: true})
	}
)

type options struct {
	params domain.AnalysisParams
	mode   config.RenderMode
	out    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	_ = loadEnvFunc()

	cfg := loadConfigFunc(logger.New(os.Getenv("LOG_LEVEL"), stderr))
	opts, err := parseOptions(args, cfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "smacross: %v\n", err)
		return exitUsage
	}

	log := logger.New(cfg.LogLevel, stderr)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize tracer")
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	mode := resolveMode(opts.mode, isTerminalFunc(stdout))
	recorder := metrics.NewRecorder()
	svc := service.NewAnalysisService(
		tracer,
		newProviderFunc(tracer, cfg, log),
		signalengine.NewEngine(),
		newRenderer(mode, cfg, opts.out),
		log,
	)
	svc.SetMetrics(recorder)
	svc.SetFetchTimeout(time.Duration(cfg.RunTimeoutSecs) * time.Second)

	log.Info().
		Str("symbol", opts.params.Symbol).
		Int("days", opts.params.LookbackDays).
		Int("short_window", opts.params.ShortWindow).
		Int("long_window", opts.params.LongWindow).
		Str("render", string(mode)).
		Msg("starting analysis")

	res, runErr := svc.Run(ctx, opts.params)

	if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics textfile")
	}
	if res != nil {
		printSummary(stdout, res)
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("analysis failed")
		return exitFailure
	}
	return exitOK
}

func parseOptions(args []string, cfg *config.Config, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("smacross", flag.ContinueOnError)
	fs.SetOutput(output)

	symbol := fs.String("symbol", cfg.Symbol, "asset symbol or CoinGecko id (default from SYMBOL)")
	days := fs.Int("days", cfg.LookbackDays, "lookback window in days (default from LOOKBACK_DAYS)")
	short := fs.Int("short", cfg.ShortWindow, "short SMA window (default from SHORT_WINDOW)")
	long := fs.Int("long", cfg.LongWindow, "long SMA window (default from LONG_WINDOW)")
	render := fs.String("render", string(cfg.RenderMode), "chart output: auto, tui, png or both (default from RENDER_MODE)")
	out := fs.String("out", cfg.ChartOutput, "PNG output path (default from CHART_OUTPUT)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if strings.TrimSpace(*symbol) == "" {
		return options{}, fmt.Errorf("symbol cannot be empty")
	}
	if *days <= 0 {
		return options{}, fmt.Errorf("days must be > 0")
	}
	if *short <= 0 || *long <= 0 {
		return options{}, fmt.Errorf("windows must be > 0")
	}
	mode, ok := config.ParseRenderMode(*render)
	if !ok {
		return options{}, fmt.Errorf("unsupported render mode: %s", *render)
	}
	if strings.TrimSpace(*out) == "" {
		return options{}, fmt.Errorf("out cannot be empty")
	}

	params := cfg.AnalysisParams()
	params.Symbol = strings.TrimSpace(*symbol)
	params.LookbackDays = *days
	params.ShortWindow = *short
	params.LongWindow = *long

	return options{params: params, mode: mode, out: *out}, nil
}

// resolveMode picks the concrete surface for auto: the terminal chart when
// stdout is interactive, a PNG file otherwise.
func resolveMode(mode config.RenderMode, terminal bool) config.RenderMode {
	if mode != config.RenderAuto {
		return mode
	}
	if terminal {
		return config.RenderTUI
	}
	return config.RenderPNG
}

func newRenderer(mode config.RenderMode, cfg *config.Config, out string) service.ChartRenderer {
	png := chart.NewFileRenderer(chart.NewRenderer(chart.RendererOptions{
		Width:  cfg.ChartWidth,
		Height: cfg.ChartHeight,
	}), out)

	switch mode {
	case config.RenderTUI:
		return newViewerFunc()
	case config.RenderBoth:
		return service.MultiRenderer{png, newViewerFunc()}
	default:
		return png
	}
}

func printSummary(w io.Writer, res *domain.AnalysisResult) {
	s := res.Summary
	fmt.Fprintf(w, "%s/%s SMA %d/%d over %d samples: latest=%s buys=%d sells=%d long=%d short=%d neutral=%d\n",
		res.Series.Symbol,
		res.Series.Currency,
		res.Params.ShortWindow,
		res.Params.LongWindow,
		res.Series.Len(),
		s.Latest,
		s.Buys,
		s.Sells,
		s.Long,
		s.Short,
		s.Neutral,
	)
	if res.Chart != nil && res.Chart.Path != "" {
		fmt.Fprintf(w, "chart: %s\n", res.Chart.Path)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
