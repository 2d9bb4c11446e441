package signal

import (
	"fmt"
	"math"

	"sma-crossover/internal/domain"
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compute derives daily returns, both trailing means and the position signal.
// Window ordering is not checked; short >= long still yields defined output.
func (e *Engine) Compute(series domain.PriceSeries, shortWindow, longWindow int) (*domain.DerivedSeries, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("compute signals: empty price series: %w", domain.ErrInvalidArgument)
	}
	if shortWindow <= 0 || longWindow <= 0 {
		return nil, fmt.Errorf("compute signals: windows must be positive (short=%d long=%d): %w",
			shortWindow, longWindow, domain.ErrInvalidArgument)
	}

	prices := series.Prices()
	shortSMA := trailingMean(prices, shortWindow)
	longSMA := trailingMean(prices, longWindow)

	return &domain.DerivedSeries{
		ShortWindow: shortWindow,
		LongWindow:  longWindow,
		DailyReturn: dailyReturns(prices),
		ShortSMA:    shortSMA,
		LongSMA:     longSMA,
		Signal:      positions(shortSMA, longSMA),
	}, nil
}

func dailyReturns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

// trailingMean averages prices[max(0, i-window+1) .. i]. The window grows over the
// first window-1 samples instead of leaving them undefined.
func trailingMean(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		start := max(0, i-window+1)
		var sum float64
		for _, p := range prices[start : i+1] {
			sum += p
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}

func positions(shortSMA, longSMA []float64) []domain.Position {
	out := make([]domain.Position, len(shortSMA))
	for i := range shortSMA {
		out[i] = positionFor(shortSMA[i], longSMA[i])
	}
	return out
}

// positionFor is neutral on exact equality; it never carries a prior position.
func positionFor(short, long float64) domain.Position {
	switch {
	case short > long:
		return domain.PositionLong
	case short < long:
		return domain.PositionShort
	default:
		return domain.PositionNeutral
	}
}
