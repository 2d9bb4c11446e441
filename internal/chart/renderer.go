package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sma-crossover/internal/domain"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 640
	minDimension  = 200
	markerSize    = 7
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colPrice      = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colShortSMA   = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colLongSMA    = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBuy        = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colSell       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colReturnUp   = color.RGBA{R: 120, G: 184, B: 164, A: 255}
	colReturnDown = color.RGBA{R: 222, G: 140, B: 152, A: 255}
	colText       = color.RGBA{R: 40, G: 44, B: 60, A: 255}
	colSubtext    = color.RGBA{R: 110, G: 118, B: 136, A: 255}
)

var labelFace = basicfont.Face7x13

type RendererOptions struct {
	Width  int
	Height int
}

type Renderer struct {
	width  int
	height int
}

func NewRenderer(opts RendererOptions) *Renderer {
	w, h := opts.Width, opts.Height
	if w < minDimension {
		w = DefaultWidth
	}
	if h < minDimension {
		h = DefaultHeight
	}
	return &Renderer{width: w, height: h}
}

// RenderSeries draws price, both moving averages and the buy/sell markers into a PNG.
// The lower panel holds the daily return bars.
func (r *Renderer) RenderSeries(series domain.PriceSeries, derived *domain.DerivedSeries, markers []domain.Marker) (*domain.ChartImage, error) {
	n := series.Len()
	if n == 0 {
		return nil, fmt.Errorf("render chart: no price samples: %w", domain.ErrRenderFailure)
	}
	if derived == nil || len(derived.ShortSMA) != n || len(derived.LongSMA) != n || len(derived.DailyReturn) != n {
		return nil, fmt.Errorf("render chart: derived series not aligned with %d samples: %w", n, domain.ErrRenderFailure)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fillRect(img, img.Bounds(), colBackground)

	mainRect, auxRect := plotAreas(r.width, r.height)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, auxRect, 8, 3)

	prices := series.Prices()
	minV, maxV := finiteBounds(prices)
	for _, s := range [][]float64{derived.ShortSMA, derived.LongSMA} {
		lo, hi := finiteBounds(s)
		minV = math.Min(minV, lo)
		maxV = math.Max(maxV, hi)
	}
	pad := (maxV - minV) * 0.04
	minV -= pad
	maxV += pad

	drawSeries(img, mainRect, prices, minV, maxV, colPrice)
	drawSeries(img, mainRect, derived.LongSMA, minV, maxV, colLongSMA)
	drawSeries(img, mainRect, derived.ShortSMA, minV, maxV, colShortSMA)

	for _, m := range markers {
		if m.Index < 0 || m.Index >= n {
			continue
		}
		x := mapIndexToX(m.Index, n, mainRect)
		y := mapValueToY(m.Value, minV, maxV, mainRect)
		switch m.Position {
		case domain.PositionLong:
			drawTriangle(img, x, y, markerSize, true, colBuy)
		case domain.PositionShort:
			drawTriangle(img, x, y, markerSize, false, colSell)
		}
	}

	drawReturns(img, auxRect, derived.DailyReturn)

	title := fmt.Sprintf("%s (%s) Analysis with SMA Crossover Strategy",
		strings.ToUpper(series.Symbol), strings.ToUpper(series.Currency))
	drawText(img, (r.width-textWidth(title))/2, 16, title, colText)
	drawLegend(img, mainRect, derived.ShortWindow, derived.LongWindow)
	drawValueLabels(img, mainRect, minV, maxV)
	drawText(img, 8, mainRect.Min.Y-4, "Price", colText)
	drawText(img, mainRect.Min.X, auxRect.Min.Y-3, "Daily return", colSubtext)
	drawDateLabels(img, auxRect, series)
	drawText(img, (r.width-textWidth("Date"))/2, r.height-6, "Date", colText)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render chart: encode png: %v: %w", err, domain.ErrRenderFailure)
	}

	return &domain.ChartImage{
		MimeType: "image/png",
		Width:    r.width,
		Height:   r.height,
		Bytes:    buf.Bytes(),
	}, nil
}

// WriteFile stores the rendered image at path and records the path on the image.
func (r *Renderer) WriteFile(path string, img *domain.ChartImage) error {
	if img == nil || len(img.Bytes) == 0 {
		return fmt.Errorf("write chart: empty image: %w", domain.ErrRenderFailure)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write chart: %v: %w", err, domain.ErrRenderFailure)
		}
	}
	if err := os.WriteFile(path, img.Bytes, 0o644); err != nil {
		return fmt.Errorf("write chart: %v: %w", err, domain.ErrRenderFailure)
	}
	img.Path = path
	return nil
}

// plotAreas returns the price panel and the daily-return panel for a canvas of w x h.
// The band above the price panel holds the title and legend, the band below the
// return panel holds the date labels.
func plotAreas(w, h int) (image.Rectangle, image.Rectangle) {
	main := image.Rect(70, 44, w-20, (h*70)/100)
	aux := image.Rect(70, main.Max.Y+16, w-20, h-36)
	return main, aux
}

func drawLegend(img *image.RGBA, rect image.Rectangle, shortWindow, longWindow int) {
	type entry struct {
		label string
		col   color.RGBA
		mark  int // 0 line, 1 up triangle, -1 down triangle
	}
	entries := []entry{
		{label: "Price", col: colPrice},
		{label: fmt.Sprintf("Short SMA (%d)", shortWindow), col: colShortSMA},
		{label: fmt.Sprintf("Long SMA (%d)", longWindow), col: colLongSMA},
		{label: "Buy", col: colBuy, mark: 1},
		{label: "Sell", col: colSell, mark: -1},
	}
	const swatch, gap = 14, 16
	width := 0
	for _, e := range entries {
		width += swatch + 4 + textWidth(e.label) + gap
	}
	x := max(rect.Min.X, rect.Max.X-width+gap)
	baseline := rect.Min.Y - 10
	for _, e := range entries {
		midY := baseline - 4
		switch e.mark {
		case 1:
			drawTriangle(img, x+swatch/2, midY-3, 5, true, e.col)
		case -1:
			drawTriangle(img, x+swatch/2, midY+3, 5, false, e.col)
		default:
			drawLine(img, x, midY, x+swatch, midY, e.col)
			drawLine(img, x, midY+1, x+swatch, midY+1, e.col)
		}
		x += swatch + 4
		drawText(img, x, baseline, e.label, colText)
		x += textWidth(e.label) + gap
	}
}

func drawValueLabels(img *image.RGBA, rect image.Rectangle, minV, maxV float64) {
	for _, v := range []float64{minV, (minV + maxV) / 2, maxV} {
		label := formatValue(v)
		y := mapValueToY(v, minV, maxV, rect)
		drawText(img, rect.Min.X-6-textWidth(label), y+4, label, colSubtext)
	}
}

func drawDateLabels(img *image.RGBA, rect image.Rectangle, series domain.PriceSeries) {
	n := series.Len()
	seen := make(map[int]bool, 3)
	for _, i := range []int{0, n / 2, n - 1} {
		if seen[i] {
			continue
		}
		seen[i] = true
		label := series.Points[i].Timestamp.Format("2006-01-02")
		w := textWidth(label)
		x := mapIndexToX(i, n, rect) - w/2
		x = max(0, min(x, img.Bounds().Dx()-w))
		drawText(img, x, rect.Max.Y+16, label, colSubtext)
	}
}

// drawText writes s with its baseline at y.
func drawText(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(labelFace, s).Ceil()
}

func formatValue(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1000:
		return groupThousands(strconv.FormatFloat(v, 'f', 0, 64))
	case a >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	b.WriteString(sign)
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func drawReturns(img *image.RGBA, rect image.Rectangle, returns []float64) {
	minV, maxV := finiteBounds(returns)
	if minV > 0 {
		minV = 0
	}
	if maxV < 0 {
		maxV = 0
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)

	barW := max(1, (rect.Dx()-10)/len(returns)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range returns {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		col := colReturnUp
		if v < 0 {
			col = colReturnDown
		}
		x := mapIndexToX(i, len(returns), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		} else {
			img.SetRGBA(x, y, col)
		}
		lastX, lastY = x, y
	}
}

// drawTriangle fills an isosceles triangle whose tip sits at (cx, cy).
// Up-pointing triangles hang below the tip, down-pointing ones sit above it.
func drawTriangle(img *image.RGBA, cx, cy, size int, up bool, col color.RGBA) {
	for row := 0; row <= size; row++ {
		y := cy + row
		if !up {
			y = cy - row
		}
		drawLine(img, cx-row, y, cx+row, y, col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X + rect.Dx()/2
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Min.Y + rect.Dy()/2
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
