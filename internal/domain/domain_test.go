package domain

import (
	"testing"
	"time"
)

func TestResolveCoinID(t *testing.T) {
	cases := map[string]string{
		"BTC":       "bitcoin",
		" eth ":     "ethereum",
		"bitcoin":   "bitcoin",
		"Avalanche": "avalanche",
		"avax":      "avalanche-2",
	}
	for in, want := range cases {
		if got := ResolveCoinID(in); got != want {
			t.Fatalf("ResolveCoinID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPositionString(t *testing.T) {
	if PositionLong.String() != "long" || PositionShort.String() != "short" || PositionNeutral.String() != "neutral" {
		t.Fatalf("unexpected position strings: %s %s %s", PositionLong, PositionShort, PositionNeutral)
	}
	if PositionLong != 1 || PositionShort != -1 || PositionNeutral != 0 {
		t.Fatal("position constants must remain +1/-1/0")
	}
}

func TestPriceSeriesPricesReturnsCopy(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	s := PriceSeries{Points: []PricePoint{{Timestamp: ts, Price: 1}, {Timestamp: ts.Add(time.Hour), Price: 2}}}

	prices := s.Prices()
	prices[0] = 99
	if s.Points[0].Price != 1 {
		t.Fatal("Prices must not alias the series")
	}
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}

func TestDefaultAnalysisParams(t *testing.T) {
	p := DefaultAnalysisParams()
	if p.Symbol != "bitcoin" || p.Currency != "usd" || p.LookbackDays != 365 || p.ShortWindow != 20 || p.LongWindow != 50 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestDerivedSeriesLenNil(t *testing.T) {
	var d *DerivedSeries
	if d.Len() != 0 {
		t.Fatal("nil derived series should have len 0")
	}
}
