package scope

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/synth"
)

// Widget is a custom Fyne widget that displays the synthesized output
// waveform oscilloscope-style: voltage against time, with the effective
// operating parameters overlaid.
type Widget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	trace   []synth.Sample
	applied synth.Applied

	// Display buffer (reused for downsampling)
	display []synth.Sample

	// Axis ranges
	yMax float64       // supply rail, fixed vertical scale
	xMax time.Duration // trace span

	maxDisplayPoints int
}

// New creates a new scope widget instance.
func New(cfg *config.Config) *Widget {
	w := &Widget{
		cfg:              cfg,
		display:          make([]synth.Sample, 0, 1000),
		yMax:             cfg.Synth.SupplyVolts,
		maxDisplayPoints: 1000,
	}
	w.ExtendBaseWidget(w)
	// Trigger initial refresh to display the empty scope
	w.Refresh()
	return w
}

// UpdateTrace updates the widget with a new output trace. Call from the
// main Fyne thread (use fyne.Do from goroutines).
func (w *Widget) UpdateTrace(trace []synth.Sample) {
	w.mu.Lock()

	w.display = synth.DownsampleSamples(w.display, trace, w.maxDisplayPoints)
	w.trace = trace

	w.xMax = 0
	if len(w.display) > 0 {
		w.xMax = w.display[len(w.display)-1].Offset
	}

	w.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	w.Refresh()
}

// UpdateApplied updates the parameter overlay.
func (w *Widget) UpdateApplied(ap synth.Applied) {
	w.mu.Lock()
	w.applied = ap
	w.mu.Unlock()

	w.Refresh()
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(w)
}
