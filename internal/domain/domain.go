package domain

import (
	"strings"
	"time"
)

const (
	DefaultSymbol       = "bitcoin"
	DefaultCurrency     = "usd"
	DefaultLookbackDays = 365
	DefaultShortWindow  = 20
	DefaultLongWindow   = 50
)

// CoinGeckoID maps common tickers to CoinGecko coin ids.
var CoinGeckoID = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"AVAX": "avalanche-2",
	"DOT":  "polkadot",
	"LINK": "chainlink",
	"LTC":  "litecoin",
}

// ResolveCoinID turns a ticker or a coin id into the id CoinGecko expects.
func ResolveCoinID(symbol string) string {
	s := strings.TrimSpace(symbol)
	if id, ok := CoinGeckoID[strings.ToUpper(s)]; ok {
		return id
	}
	return strings.ToLower(s)
}

type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceSeries is ordered by strictly increasing timestamp. Treat Points as read-only.
type PriceSeries struct {
	Symbol   string       `json:"symbol"`
	Currency string       `json:"currency"`
	Points   []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int { return len(s.Points) }

// Prices returns a copy of the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

type Position int8

const (
	PositionShort   Position = -1
	PositionNeutral Position = 0
	PositionLong    Position = 1
)

func (p Position) String() string {
	switch p {
	case PositionLong:
		return "long"
	case PositionShort:
		return "short"
	default:
		return "neutral"
	}
}

// DerivedSeries is aligned index-for-index with the PriceSeries it was computed from.
// DailyReturn[0] is NaN.
type DerivedSeries struct {
	ShortWindow int
	LongWindow  int
	DailyReturn []float64
	ShortSMA    []float64
	LongSMA     []float64
	Signal      []Position
}

func (d *DerivedSeries) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Signal)
}

type Marker struct {
	Index     int
	Timestamp time.Time
	Value     float64
	Position  Position
}

type SignalSummary struct {
	Long     int
	Short    int
	Neutral  int
	Buys     int
	Sells    int
	Latest   Position
	LatestAt time.Time
}

type AnalysisParams struct {
	Symbol       string
	Currency     string
	LookbackDays int
	ShortWindow  int
	LongWindow   int
}

func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		Symbol:       DefaultSymbol,
		Currency:     DefaultCurrency,
		LookbackDays: DefaultLookbackDays,
		ShortWindow:  DefaultShortWindow,
		LongWindow:   DefaultLongWindow,
	}
}

type AnalysisResult struct {
	Params  AnalysisParams
	Series  PriceSeries
	Derived *DerivedSeries
	Markers []Marker
	Summary SignalSummary
	Chart   *ChartImage
}

type ChartImage struct {
	MimeType string
	Width    int
	Height   int
	Path     string
	Bytes    []byte
}
