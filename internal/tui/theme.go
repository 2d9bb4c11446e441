package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Series colors
	PriceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ShortSMAStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3E6AD6"))
	LongSMAStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9500"))

	// Markers
	BuyMarkerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	SellMarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	// Position colors
	PositionLongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	PositionShortStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	PositionNeutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	AxisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)
