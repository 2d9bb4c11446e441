package chart

import (
	"context"

	"sma-crossover/internal/domain"
)

// FileRenderer renders the analysis to a PNG file at a fixed path.
type FileRenderer struct {
	renderer *Renderer
	path     string
}

func NewFileRenderer(renderer *Renderer, path string) *FileRenderer {
	return &FileRenderer{renderer: renderer, path: path}
}

func (f *FileRenderer) Path() string { return f.path }

func (f *FileRenderer) Render(_ context.Context, series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error) {
	img, err := f.renderer.RenderSeries(series, derived, markers)
	if err != nil {
		return nil, err
	}
	if err := f.renderer.WriteFile(f.path, img); err != nil {
		return nil, err
	}
	return img, nil
}
