package tui

import (
	"context"
	"fmt"
	"io"

	"sma-crossover/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewerOptions configures the terminal the chart program runs on.
// Nil Input and Output fall back to the process stdin and stdout.
type ViewerOptions struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Viewer shows the analysis in an interactive terminal window.
type Viewer struct {
	opts ViewerOptions
}

func NewViewer(opts ViewerOptions) *Viewer {
	return &Viewer{opts: opts}
}

// Render blocks until the user closes the chart window. It produces no image.
func (v *Viewer) Render(ctx context.Context, series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error) {
	if series.Len() == 0 || derived.Len() != series.Len() {
		return nil, fmt.Errorf("interactive chart: derived series not aligned with %d samples: %w", series.Len(), domain.ErrRenderFailure)
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if v.opts.Input != nil {
		opts = append(opts, tea.WithInput(v.opts.Input))
	}
	if v.opts.Output != nil {
		opts = append(opts, tea.WithOutput(v.opts.Output))
	}
	if v.opts.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	p := tea.NewProgram(NewChartModel(series, derived, markers), opts...)
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("interactive chart: %v: %w", err, domain.ErrRenderFailure)
	}
	return nil, nil
}
