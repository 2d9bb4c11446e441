package tui

import (
	"fmt"
	"math"
	"strings"

	"sma-crossover/internal/domain"
	"sma-crossover/internal/signal"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	axisWidth     = 12
	minSpan       = 10
	chromeRows    = 5
)

type cellKind uint8

// Higher kinds win when two series land on the same cell.
const (
	cellEmpty cellKind = iota
	cellLongSMA
	cellShortSMA
	cellPrice
	cellBuy
	cellSell
)

// ChartModel is the Bubble Tea model for the interactive price chart.
type ChartModel struct {
	series   domain.PriceSeries
	derived  *domain.DerivedSeries
	markers  []domain.Marker
	summary  domain.SignalSummary
	keys     KeyMap
	help     help.Model
	width    int
	height   int
	offset   int
	span     int
	quitting bool
}

// NewChartModel creates a chart showing the whole series.
func NewChartModel(series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) ChartModel {
	m := ChartModel{
		series:  series,
		derived: derived,
		markers: markers,
		keys:    DefaultKeyMap,
		help:    help.New(),
		span:    series.Len(),
	}
	if derived != nil {
		m.summary = signal.Summarize(series, derived, markers)
	}
	m.SetSize(defaultWidth, defaultHeight)
	return m
}

func (m ChartModel) Init() tea.Cmd {
	return nil
}

// Update handles resize and navigation keys.
func (m ChartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Left):
			m.pan(-m.step())
		case key.Matches(msg, m.keys.Right):
			m.pan(m.step())
		case key.Matches(msg, m.keys.ZoomIn):
			m.zoom(true)
		case key.Matches(msg, m.keys.ZoomOut):
			m.zoom(false)
		case key.Matches(msg, m.keys.Home):
			m.offset = 0
		case key.Matches(msg, m.keys.End):
			m.offset = m.series.Len() - m.span
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// View renders the header, plot, legend and key help.
func (m ChartModel) View() string {
	if m.quitting {
		return ""
	}
	n := m.series.Len()
	if n == 0 || m.derived.Len() != n {
		return ErrorStyle.Render("  no data to chart") + "\n"
	}

	plotW := max(10, m.width-axisWidth)
	plotH := m.height - chromeRows
	if m.help.ShowAll {
		plotH -= 2
	}
	plotH = max(5, plotH)

	sections := []string{
		m.renderHeader(),
		"",
		m.renderPlot(plotW, plotH),
		m.renderLegend(),
		m.help.View(m.keys),
	}
	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *ChartModel) SetSize(w, h int) {
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	m.width = w
	m.height = h
	m.help.Width = w
}

// Offset returns the index of the first visible sample (for testing).
func (m ChartModel) Offset() int { return m.offset }

// Span returns the number of visible samples (for testing).
func (m ChartModel) Span() int { return m.span }

func (m ChartModel) Quitting() bool { return m.quitting }

func (m ChartModel) step() int {
	return max(1, m.span/10)
}

func (m *ChartModel) pan(delta int) {
	m.offset = clamp(m.offset+delta, 0, m.series.Len()-m.span)
}

func (m *ChartModel) zoom(in bool) {
	n := m.series.Len()
	center := m.offset + m.span/2
	if in {
		m.span = max(min(minSpan, n), m.span*2/3)
	} else {
		m.span = min(n, m.span*3/2+1)
	}
	m.offset = clamp(center-m.span/2, 0, n-m.span)
}

func (m ChartModel) renderHeader() string {
	title := fmt.Sprintf("%s/%s  SMA %d/%d",
		strings.ToUpper(m.series.Symbol),
		strings.ToUpper(m.series.Currency),
		m.derived.ShortWindow,
		m.derived.LongWindow,
	)
	first := m.series.Points[m.offset].Timestamp
	last := m.series.Points[m.offset+m.span-1].Timestamp
	window := fmt.Sprintf("  %s → %s  (%d of %d samples)",
		first.Format("2006-01-02"), last.Format("2006-01-02"), m.span, m.series.Len())

	return HeaderStyle.Render(title) + "  latest " + positionStyle(m.summary.Latest).Render(strings.ToUpper(m.summary.Latest.String())) +
		SubtextStyle.Render(window)
}

func (m ChartModel) renderLegend() string {
	parts := []string{
		PriceStyle.Render("• price"),
		ShortSMAStyle.Render(fmt.Sprintf("+ SMA %d", m.derived.ShortWindow)),
		LongSMAStyle.Render(fmt.Sprintf("· SMA %d", m.derived.LongWindow)),
		BuyMarkerStyle.Render(fmt.Sprintf("▲ buy (%d)", m.summary.Buys)),
		SellMarkerStyle.Render(fmt.Sprintf("▼ sell (%d)", m.summary.Sells)),
	}
	return strings.Repeat(" ", axisWidth) + strings.Join(parts, "  ")
}

func (m ChartModel) renderPlot(plotW, plotH int) string {
	start, end := m.offset, m.offset+m.span
	prices := m.series.Prices()
	minV, maxV := visibleBounds(start, end, prices, m.derived.ShortSMA, m.derived.LongSMA)

	grid := make([][]cellKind, plotH)
	for r := range grid {
		grid[r] = make([]cellKind, plotW)
	}
	put := func(i int, v float64, kind cellKind) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		x := columnFor(i-start, m.span, plotW)
		y := rowFor(v, minV, maxV, plotH)
		if grid[y][x] < kind {
			grid[y][x] = kind
		}
	}
	for i := start; i < end; i++ {
		put(i, m.derived.LongSMA[i], cellLongSMA)
		put(i, m.derived.ShortSMA[i], cellShortSMA)
		put(i, prices[i], cellPrice)
	}
	for _, mk := range m.markers {
		if mk.Index < start || mk.Index >= end {
			continue
		}
		switch mk.Position {
		case domain.PositionLong:
			put(mk.Index, mk.Value, cellBuy)
		case domain.PositionShort:
			put(mk.Index, mk.Value, cellSell)
		}
	}

	var b strings.Builder
	for r := 0; r < plotH; r++ {
		label := ""
		switch r {
		case 0:
			label = formatPrice(maxV)
		case plotH / 2:
			label = formatPrice((minV + maxV) / 2)
		case plotH - 1:
			label = formatPrice(minV)
		}
		b.WriteString(AxisStyle.Render(fmt.Sprintf("%*s ┤", axisWidth-2, label)))
		for _, c := range grid[r] {
			b.WriteString(renderCell(c))
		}
		if r < plotH-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderCell(c cellKind) string {
	switch c {
	case cellLongSMA:
		return LongSMAStyle.Render("·")
	case cellShortSMA:
		return ShortSMAStyle.Render("+")
	case cellPrice:
		return PriceStyle.Render("•")
	case cellBuy:
		return BuyMarkerStyle.Render("▲")
	case cellSell:
		return SellMarkerStyle.Render("▼")
	default:
		return " "
	}
}

func positionStyle(p domain.Position) lipgloss.Style {
	switch p {
	case domain.PositionLong:
		return PositionLongStyle
	case domain.PositionShort:
		return PositionShortStyle
	default:
		return PositionNeutralStyle
	}
}

func visibleBounds(start, end int, series ...[]float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, s := range series {
		for _, v := range s[start:end] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	if math.IsInf(minV, 1) {
		return 0, 1
	}
	if minV == maxV {
		return minV - 1, maxV + 1
	}
	return minV, maxV
}

func columnFor(rel, span, width int) int {
	if span <= 1 {
		return width / 2
	}
	return rel * (width - 1) / (span - 1)
}

func rowFor(v, minV, maxV float64, height int) int {
	if maxV <= minV {
		return height / 2
	}
	ratio := math.Max(0, math.Min(1, (v-minV)/(maxV-minV)))
	return (height - 1) - int(math.Round(ratio*float64(height-1)))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(hi, v))
}
