package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sma-crossover/internal/domain"
	"sma-crossover/internal/signal"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	stageFetch   = "fetch"
	stageCompute = "compute"
	stageRender  = "render"
)

type PriceSeriesProvider interface {
	FetchPriceSeries(ctx context.Context, symbol, currency string, days int) (domain.PriceSeries, error)
}

type SignalEngine interface {
	Compute(series domain.PriceSeries, shortWindow, longWindow int) (*domain.DerivedSeries, error)
}

type ChartRenderer interface {
	Render(ctx context.Context, series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error)
}

type MetricsRecorder interface {
	ObserveStage(stage string, d time.Duration)
	RecordFailure(stage string)
	RecordResult(res *domain.AnalysisResult, at time.Time)
}

// AnalysisService runs acquisition, signal computation and rendering in order.
type AnalysisService struct {
	tracer       trace.Tracer
	provider     PriceSeriesProvider
	engine       SignalEngine
	renderer     ChartRenderer
	logger       zerolog.Logger
	metrics      MetricsRecorder
	fetchTimeout time.Duration
	now          func() time.Time
}

// NewAnalysisService builds the pipeline. A nil renderer skips the render stage.
func NewAnalysisService(
	tracer trace.Tracer,
	provider PriceSeriesProvider,
	engine SignalEngine,
	renderer ChartRenderer,
	logger zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		tracer:   tracer,
		provider: provider,
		engine:   engine,
		renderer: renderer,
		logger:   logger.With().Str("component", "analysis").Logger(),
		now:      time.Now,
	}
}

func (s *AnalysisService) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// SetFetchTimeout bounds acquisition and computation. Rendering, which may
// block on an interactive window, runs on the caller's context.
func (s *AnalysisService) SetFetchTimeout(d time.Duration) {
	s.fetchTimeout = d
}

// Run executes one analysis. When only rendering fails the computed result is
// returned together with an error wrapping domain.ErrRenderFailure.
func (s *AnalysisService) Run(ctx context.Context, params domain.AnalysisParams) (*domain.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.run")
	defer span.End()

	if s.provider == nil || s.engine == nil {
		return nil, fmt.Errorf("analysis service is not fully initialized: %w", domain.ErrInvalidArgument)
	}

	params.Symbol = strings.TrimSpace(params.Symbol)
	params.Currency = strings.ToLower(strings.TrimSpace(params.Currency))
	if params.ShortWindow <= 0 || params.LongWindow <= 0 {
		err := fmt.Errorf("windows must be positive, got short=%d long=%d: %w", params.ShortWindow, params.LongWindow, domain.ErrInvalidArgument)
		s.fail(span, stageCompute, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("analysis.symbol", params.Symbol),
		attribute.String("analysis.currency", params.Currency),
		attribute.Int("analysis.days", params.LookbackDays),
		attribute.Int("analysis.short_window", params.ShortWindow),
		attribute.Int("analysis.long_window", params.LongWindow),
	)
	log := s.logger.With().Str("symbol", params.Symbol).Str("currency", params.Currency).Logger()

	result, err := s.analyze(ctx, params, log)
	if err != nil {
		return nil, err
	}

	if s.renderer != nil {
		started := time.Now()
		img, err := s.renderer.Render(ctx, result.Series, result.Derived, result.Markers)
		s.observe(stageRender, time.Since(started))
		result.Chart = img
		if err != nil {
			if !errors.Is(err, domain.ErrRenderFailure) {
				err = fmt.Errorf("%v: %w", err, domain.ErrRenderFailure)
			}
			err = fmt.Errorf("render chart for %s: %w", params.Symbol, err)
			s.fail(span, stageRender, err)
			log.Error().Err(err).Msg("chart rendering failed")
			return result, err
		}
		if img != nil && img.Path != "" {
			log.Info().Str("path", img.Path).Int("bytes", len(img.Bytes)).Msg("chart written")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordResult(result, s.now())
	}
	return result, nil
}

func (s *AnalysisService) analyze(ctx context.Context, params domain.AnalysisParams, log zerolog.Logger) (*domain.AnalysisResult, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	started := time.Now()
	series, err := s.provider.FetchPriceSeries(ctx, params.Symbol, params.Currency, params.LookbackDays)
	s.observe(stageFetch, time.Since(started))
	if err != nil {
		err = fmt.Errorf("fetch %s prices: %w", params.Symbol, err)
		s.fail(span, stageFetch, err)
		log.Error().Err(err).Msg("price acquisition failed")
		return nil, err
	}
	log.Debug().Int("points", series.Len()).Msg("price series fetched")

	started = time.Now()
	derived, err := s.engine.Compute(series, params.ShortWindow, params.LongWindow)
	if err != nil {
		err = fmt.Errorf("compute signals for %s: %w", params.Symbol, err)
		s.fail(span, stageCompute, err)
		log.Error().Err(err).Msg("signal computation failed")
		return nil, err
	}
	markers := signal.Markers(series, derived)
	summary := signal.Summarize(series, derived, markers)
	s.observe(stageCompute, time.Since(started))

	log.Info().
		Int("points", series.Len()).
		Int("buys", summary.Buys).
		Int("sells", summary.Sells).
		Str("latest", summary.Latest.String()).
		Msg("signals computed")

	return &domain.AnalysisResult{
		Params:  params,
		Series:  series,
		Derived: derived,
		Markers: markers,
		Summary: summary,
	}, nil
}

func (s *AnalysisService) observe(stage string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, d)
	}
}

func (s *AnalysisService) fail(span trace.Span, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.metrics != nil {
		s.metrics.RecordFailure(stage)
	}
}
