package signal

import "sma-crossover/internal/domain"

// Markers returns a buy or sell marker at every index where the signal moves into
// long or short. The position before the first sample counts as neutral.
func Markers(series domain.PriceSeries, derived *domain.DerivedSeries) []domain.Marker {
	n := min(series.Len(), derived.Len())
	var out []domain.Marker
	prev := domain.PositionNeutral
	for i := 0; i < n; i++ {
		curr := derived.Signal[i]
		if curr != prev && curr != domain.PositionNeutral {
			out = append(out, domain.Marker{
				Index:     i,
				Timestamp: series.Points[i].Timestamp,
				Value:     derived.ShortSMA[i],
				Position:  curr,
			})
		}
		prev = curr
	}
	return out
}

func Summarize(series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) domain.SignalSummary {
	var s domain.SignalSummary
	for _, p := range derived.Signal {
		switch p {
		case domain.PositionLong:
			s.Long++
		case domain.PositionShort:
			s.Short++
		default:
			s.Neutral++
		}
	}
	for _, m := range markers {
		if m.Position == domain.PositionLong {
			s.Buys++
		} else {
			s.Sells++
		}
	}
	if n := derived.Len(); n > 0 {
		s.Latest = derived.Signal[n-1]
		if n <= series.Len() {
			s.LatestAt = series.Points[n-1].Timestamp
		}
	}
	return s
}
