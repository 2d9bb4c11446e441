package config

import (
	"os"
	"strconv"
	"strings"

	"sma-crossover/internal/domain"

	"github.com/rs/zerolog"
)

// RenderMode selects which chart surfaces a run produces.
type RenderMode string

const (
	RenderAuto RenderMode = "auto"
	RenderTUI  RenderMode = "tui"
	RenderPNG  RenderMode = "png"
	RenderBoth RenderMode = "both"
)

const (
	DefaultChartOutput       = "sma_crossover.png"
	DefaultCoinGeckoTimeout  = 30
	DefaultRunTimeoutSecs    = 120
	DefaultLogLevel          = "info"
	DefaultCoinGeckoEndpoint = "https://api.coingecko.com/api/v3"
)

type Config struct {
	Symbol       string
	Currency     string
	LookbackDays int
	ShortWindow  int
	LongWindow   int

	CoinGeckoBaseURL     string
	CoinGeckoAPIKey      string
	CoinGeckoProAPIKey   string
	CoinGeckoTimeoutSecs int

	RenderMode  RenderMode
	ChartOutput string
	ChartWidth  int
	ChartHeight int

	RunTimeoutSecs  int
	LogLevel        string
	MetricsTextfile string
	OTLPEndpoint    string
}

// ParseRenderMode reports whether s names a known render mode.
func ParseRenderMode(s string) (RenderMode, bool) {
	switch mode := RenderMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case RenderAuto, RenderTUI, RenderPNG, RenderBoth:
		return mode, true
	default:
		return "", false
	}
}

// Load reads the environment. Invalid values fall back to defaults with a warning.
func Load(logger zerolog.Logger) *Config {
	cfg := &Config{
		CoinGeckoAPIKey:    strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		CoinGeckoProAPIKey: strings.TrimSpace(os.Getenv("COINGECKO_PRO_API_KEY")),
		MetricsTextfile:    strings.TrimSpace(os.Getenv("METRICS_TEXTFILE")),
		OTLPEndpoint:       strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.Symbol = stringEnv("SYMBOL", domain.DefaultSymbol)
	cfg.Currency = strings.ToLower(stringEnv("VS_CURRENCY", domain.DefaultCurrency))
	cfg.CoinGeckoBaseURL = strings.TrimRight(stringEnv("COINGECKO_BASE_URL", DefaultCoinGeckoEndpoint), "/")
	cfg.ChartOutput = stringEnv("CHART_OUTPUT", DefaultChartOutput)
	cfg.LogLevel = strings.ToLower(stringEnv("LOG_LEVEL", DefaultLogLevel))

	cfg.LookbackDays = positiveIntEnv(logger, "LOOKBACK_DAYS", domain.DefaultLookbackDays)
	cfg.ShortWindow = positiveIntEnv(logger, "SHORT_WINDOW", domain.DefaultShortWindow)
	cfg.LongWindow = positiveIntEnv(logger, "LONG_WINDOW", domain.DefaultLongWindow)
	cfg.CoinGeckoTimeoutSecs = positiveIntEnv(logger, "COINGECKO_TIMEOUT_SECS", DefaultCoinGeckoTimeout)
	cfg.ChartWidth = positiveIntEnv(logger, "CHART_WIDTH", 0)
	cfg.ChartHeight = positiveIntEnv(logger, "CHART_HEIGHT", 0)
	cfg.RunTimeoutSecs = positiveIntEnv(logger, "RUN_TIMEOUT_SECS", DefaultRunTimeoutSecs)

	cfg.RenderMode = RenderAuto
	if v := strings.TrimSpace(os.Getenv("RENDER_MODE")); v != "" {
		if mode, ok := ParseRenderMode(v); ok {
			cfg.RenderMode = mode
		} else {
			logger.Warn().Str("value", v).Msg("unsupported RENDER_MODE, defaulting to auto")
		}
	}

	if cfg.CoinGeckoAPIKey == "" && cfg.CoinGeckoProAPIKey == "" {
		logger.Debug().Msg("no CoinGecko API key set, using the public rate limit")
	}
	if cfg.ShortWindow >= cfg.LongWindow {
		logger.Warn().
			Int("short_window", cfg.ShortWindow).
			Int("long_window", cfg.LongWindow).
			Msg("short window is not shorter than long window, signal semantics are inverted")
	}

	return cfg
}

// AnalysisParams returns the pipeline inputs described by the config.
func (c *Config) AnalysisParams() domain.AnalysisParams {
	return domain.AnalysisParams{
		Symbol:       c.Symbol,
		Currency:     c.Currency,
		LookbackDays: c.LookbackDays,
		ShortWindow:  c.ShortWindow,
		LongWindow:   c.LongWindow,
	}
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveIntEnv(logger zerolog.Logger, key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer setting, using default")
		return fallback
	}
	return n
}
