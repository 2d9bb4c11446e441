package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sma-crossover/internal/domain"

	"go.opentelemetry.io/otel/trace/noop"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*CoinGeckoProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewCoinGeckoProvider(noop.NewTracerProvider().Tracer("test"), CoinGeckoOptions{
		BaseURL: srv.URL,
		APIKey:  "demo-key",
		Timeout: 2 * time.Second,
	})
	return p, srv
}

func TestFetchPriceSeriesSuccess(t *testing.T) {
	var gotPath, gotCurrency, gotDays, gotKey string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCurrency = r.URL.Query().Get("vs_currency")
		gotDays = r.URL.Query().Get("days")
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"prices": [[1700000000000, 35000.5], [1700086400000, 36000.25], [1700172800000, 35500]],
			"market_caps": [[1700000000000, 1]],
			"total_volumes": [[1700000000000, 2]]
		}`))
	})

	series, err := p.FetchPriceSeries(context.Background(), "BTC", "USD", 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/coins/bitcoin/market_chart" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotCurrency != "usd" || gotDays != "365" {
		t.Fatalf("unexpected query: vs_currency=%s days=%s", gotCurrency, gotDays)
	}
	if gotKey != "demo-key" {
		t.Fatalf("expected demo api key header, got %q", gotKey)
	}
	if series.Symbol != "bitcoin" || series.Currency != "usd" || series.Len() != 3 {
		t.Fatalf("unexpected series: %+v", series)
	}
	if !series.Points[0].Timestamp.Equal(time.UnixMilli(1700000000000).UTC()) || series.Points[1].Price != 36000.25 {
		t.Fatalf("unexpected points: %+v", series.Points)
	}
	if series.Points[0].Timestamp.Location() != time.UTC {
		t.Fatal("timestamps should be UTC")
	}
}

func TestFetchPriceSeriesSortsAndDeduplicates(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": [[3000, 3], [1000, 1], [2000, 2], [3000, 3.5]]}`))
	})

	series, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 unique points, got %d", series.Len())
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Points[i].Timestamp.After(series.Points[i-1].Timestamp) {
			t.Fatalf("points not strictly increasing at %d", i)
		}
	}
	if series.Points[2].Price != 3.5 {
		t.Fatalf("duplicate timestamp should keep last sample, got %v", series.Points[2].Price)
	}
}

func TestFetchPriceSeriesUnknownSymbol(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	})

	_, err := p.FetchPriceSeries(context.Background(), "notacoin", "usd", 30)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchPriceSeriesServerError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429,"error_message":"rate limited"}}`))
	})

	_, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 30)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchPriceSeriesNonJSONErrorBody(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 30)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), http.StatusText(http.StatusBadGateway)) {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestFetchPriceSeriesMalformedPayloads(t *testing.T) {
	payloads := map[string]string{
		"not json":       `<<<`,
		"missing prices": `{"market_caps": [[1, 2]]}`,
		"empty prices":   `{"prices": []}`,
		"short pair":     `{"prices": [[1700000000000]]}`,
		"long pair":      `{"prices": [[1700000000000, 1, 2]]}`,
		"string price":   `{"prices": [[1700000000000, "1.0"]]}`,
		"zero price":     `{"prices": [[1700000000000, 0]]}`,
		"negative price": `{"prices": [[1700000000000, -5]]}`,
		"wrong shape":    `{"prices": {"a": 1}}`,
		"huge timestamp": `{"prices": [[1e300, 2]]}`,
		"past year 9999": `{"prices": [[253402300800000, 2]]}`,
		"neg timestamp":  `{"prices": [[-1, 2]]}`,
	}
	for name, body := range payloads {
		t.Run(name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 30)
			if !errors.Is(err, domain.ErrDataUnavailable) {
				t.Fatalf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchPriceSeriesNetworkFailure(t *testing.T) {
	p, srv := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 30)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchPriceSeriesInvalidArguments(t *testing.T) {
	calls := 0
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	if _, err := p.FetchPriceSeries(context.Background(), "  ", "usd", 30); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty symbol, got %v", err)
	}
	if _, err := p.FetchPriceSeries(context.Background(), "bitcoin", "usd", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero days, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("invalid arguments should not reach the network, got %d calls", calls)
	}
}

func TestProAPIKeyTakesPrecedence(t *testing.T) {
	var demo, pro string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		demo = r.Header.Get("x-cg-demo-api-key")
		pro = r.Header.Get("x-cg-pro-api-key")
		_, _ = w.Write([]byte(`{"prices": [[1000, 1]]}`))
	}))
	defer srv.Close()

	p := NewCoinGeckoProvider(noop.NewTracerProvider().Tracer("test"), CoinGeckoOptions{
		BaseURL:   srv.URL + "/",
		APIKey:    "demo",
		ProAPIKey: "pro",
	})
	if _, err := p.FetchPriceSeries(context.Background(), "bitcoin", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pro != "pro" || demo != "" {
		t.Fatalf("expected only pro key header, got demo=%q pro=%q", demo, pro)
	}
}
