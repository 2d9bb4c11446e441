package service

import (
	"context"
	"errors"

	"sma-crossover/internal/domain"
)

// MultiRenderer runs every renderer in order even when one fails.
// The first image produced is returned alongside the joined errors.
type MultiRenderer []ChartRenderer

func (m MultiRenderer) Render(ctx context.Context, series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error) {
	var (
		first *domain.ChartImage
		errs  []error
	)
	for _, r := range m {
		img, err := r.Render(ctx, series, derived, markers)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first == nil && img != nil {
			first = img
		}
	}
	return first, errors.Join(errs...)
}
