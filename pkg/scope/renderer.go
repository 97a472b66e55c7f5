package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/Jeyu73/pwmwave/pkg/synth"
)

// waveRenderer renders the scope widget.
type waveRenderer struct {
	scope *Widget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

func newRenderer(w *Widget) *waveRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &waveRenderer{
		scope:   w,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}

// MinSize returns the minimum size of the widget.
func (r *waveRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *waveRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *waveRenderer) Refresh() {
	r.scope.mu.RLock()
	display := r.scope.display
	applied := r.scope.applied
	yMax := r.scope.yMax
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}
	if yMax <= 0 {
		yMax = 1
	}

	// Clear old objects (but keep the background)
	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMax, xMax)

	if len(display) > 1 {
		r.drawWave(plotX, plotY, plotWidth, plotHeight, display, yMax, xMax)
	}

	if applied.TableSize > 0 {
		r.drawParams(plotX, plotY, applied)
	}
}

// drawGrid draws the oscilloscope-style grid with axis labels.
func (r *waveRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMax float64, xMax time.Duration) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	// Horizontal grid lines (voltage)
	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := yMax - float64(i)*yMax/float64(numHLines)
		text := canvas.NewText(fmt.Sprintf("%.2fV", value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(int64(xMax) * int64(i) / int64(numVLines))
		text := canvas.NewText(formatOffset(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawWave draws the output waveform (orange).
func (r *waveRenderer) drawWave(plotX, plotY, plotWidth, plotHeight float32, display []synth.Sample, yMax float64, xMax time.Duration) {
	if xMax <= 0 {
		return
	}

	waveColor := color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange

	points := make([]fyne.Position, 0, len(display))
	for _, s := range display {
		x := plotX + float32(float64(s.Offset)/float64(xMax))*plotWidth
		y := plotY + plotHeight - float32(s.Volts/yMax)*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(waveColor)
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawParams overlays the effective operating parameters.
func (r *waveRenderer) drawParams(plotX, plotY float32, ap synth.Applied) {
	label := fmt.Sprintf("%.3f Hz  %.3f V  table %d  %d µs/sample",
		ap.FrequencyHz, ap.AmplitudeVolts, ap.TableSize, ap.IntervalMicros)
	text := canvas.NewText(label, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *waveRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *waveRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatOffset(d time.Duration) string {
	switch {
	case d == 0:
		return "0"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
