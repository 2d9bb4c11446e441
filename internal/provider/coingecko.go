package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"sma-crossover/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout          = 30 * time.Second
	userAgent               = "sma-crossover/1.0"

	// maxEpochMillis is 9999-12-31T23:59:59.999Z.
	maxEpochMillis = 253402300799999
)

type CoinGeckoOptions struct {
	BaseURL    string
	APIKey     string
	ProAPIKey  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

type CoinGeckoProvider struct {
	tracer   trace.Tracer
	client   *resty.Client
	validate *validator.Validate
	log      zerolog.Logger
}

// marketChartResponse is the subset of /coins/{id}/market_chart we rely on.
type marketChartResponse struct {
	Prices [][]float64 `json:"prices" validate:"required,min=1,dive,len=2"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func NewCoinGeckoProvider(tracer trace.Tracer, opts CoinGeckoOptions) *CoinGeckoProvider {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	if key := strings.TrimSpace(opts.ProAPIKey); key != "" {
		client.SetHeader("x-cg-pro-api-key", key)
	} else if key := strings.TrimSpace(opts.APIKey); key != "" {
		client.SetHeader("x-cg-demo-api-key", key)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "coingecko").Logger()
	}

	return &CoinGeckoProvider{
		tracer:   tracer,
		client:   client,
		validate: validator.New(),
		log:      log,
	}
}

// FetchPriceSeries returns the price history of symbol quoted in currency over the last days.
func (p *CoinGeckoProvider) FetchPriceSeries(ctx context.Context, symbol, currency string, days int) (domain.PriceSeries, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-price-series")
	defer span.End()

	coinID := domain.ResolveCoinID(symbol)
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	span.SetAttributes(
		attribute.String("coin.id", coinID),
		attribute.String("coin.currency", currency),
		attribute.Int("coin.days", days),
	)

	if coinID == "" {
		return domain.PriceSeries{}, fmt.Errorf("fetch price series: empty symbol: %w", domain.ErrInvalidArgument)
	}
	if days <= 0 {
		return domain.PriceSeries{}, fmt.Errorf("fetch price series: days must be > 0, got %d: %w", days, domain.ErrInvalidArgument)
	}

	series, err := p.fetch(ctx, coinID, currency, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PriceSeries{}, err
	}
	span.SetAttributes(attribute.Int("coin.points", series.Len()))
	return series, nil
}

func (p *CoinGeckoProvider) fetch(ctx context.Context, coinID, currency string, days int) (domain.PriceSeries, error) {
	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", coinID).
		SetQueryParams(map[string]string{
			"vs_currency": currency,
			"days":        strconv.Itoa(days),
		}).
		Get("/coins/{id}/market_chart")
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("coingecko request for %s: %v: %w", coinID, err, domain.ErrDataUnavailable)
	}

	p.log.Debug().
		Str("coin", coinID).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("coingecko market_chart response")

	if resp.IsError() {
		return domain.PriceSeries{}, statusError(coinID, resp.StatusCode(), resp.Body())
	}

	points, err := p.decode(resp.Body())
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("coingecko payload for %s: %v: %w", coinID, err, domain.ErrDataUnavailable)
	}
	return domain.PriceSeries{Symbol: coinID, Currency: currency, Points: points}, nil
}

func statusError(coinID string, status int, body []byte) error {
	var msg string
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Error
		if msg == "" {
			msg = apiErr.Status.ErrorMessage
		}
	}

	if status == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "not found") {
		return fmt.Errorf("unknown symbol %q: %w", coinID, domain.ErrDataUnavailable)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("coingecko returned %d for %s: %s: %w", status, coinID, msg, domain.ErrDataUnavailable)
}

func (p *CoinGeckoProvider) decode(body []byte) ([]domain.PricePoint, error) {
	var payload marketChartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := p.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(payload.Prices))
	for i, pair := range payload.Prices {
		ms, price := pair[0], pair[1]
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			return nil, fmt.Errorf("sample %d: non-positive price %v", i, price)
		}
		if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 || ms > maxEpochMillis {
			return nil, fmt.Errorf("sample %d: bad timestamp %v", i, ms)
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(ms)).UTC(),
			Price:     price,
		})
	}
	return normalizePoints(points), nil
}

// normalizePoints orders samples by time; duplicate timestamps keep the last sample received.
func normalizePoints(in []domain.PricePoint) []domain.PricePoint {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Timestamp.Before(in[j].Timestamp) })
	out := make([]domain.PricePoint, 0, len(in))
	for _, pt := range in {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(pt.Timestamp) {
			out[n-1] = pt
			continue
		}
		out = append(out, pt)
	}
	return out
}
