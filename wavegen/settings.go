package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/device"
	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSynthTab(state),
		createBandsTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}

	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {})
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				state.cfg.Serial.Port = portSelect.Selected
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createSynthTab creates the Synthesizer configuration tab.
func createSynthTab(state *appState) *container.TabItem {
	supplyEntry := widget.NewEntry()
	supplyEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Synth.SupplyVolts))

	maxTableEntry := widget.NewEntry()
	maxTableEntry.SetText(strconv.Itoa(state.cfg.Synth.MaxTableSize))

	minIntervalEntry := widget.NewEntry()
	minIntervalEntry.SetText(strconv.Itoa(state.cfg.Synth.MinIntervalMicros))

	maxRateEntry := widget.NewEntry()
	maxRateEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Synth.MaxSampleRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Supply Rail (V)", Widget: supplyEntry},
			{Text: "Max Table Size", Widget: maxTableEntry},
			{Text: "Min Sample Interval (µs)", Widget: minIntervalEntry},
			{Text: "Max Sample Rate (Hz)", Widget: maxRateEntry},
		},
		OnSubmit: func() {
			if supply, err := strconv.ParseFloat(supplyEntry.Text, 64); err == nil && supply > 0 {
				state.cfg.Synth.SupplyVolts = supply
			}
			if size, err := strconv.Atoi(maxTableEntry.Text); err == nil && size > 0 {
				state.cfg.Synth.MaxTableSize = size
			}
			if interval, err := strconv.Atoi(minIntervalEntry.Text); err == nil && interval > 0 {
				state.cfg.Synth.MinIntervalMicros = interval
			}
			if rate, err := strconv.ParseFloat(maxRateEntry.Text, 64); err == nil && rate > 0 {
				state.cfg.Synth.MaxSampleRate = rate
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Synthesizer", form)
}

// createBandsTab creates the table-size policy configuration tab. Bands
// are edited as one "upper_hz table_size" pair per line and validated
// against the policy invariants before being saved.
func createBandsTab(state *appState) *container.TabItem {
	bandsEntry := widget.NewMultiLineEntry()
	bandsEntry.SetText(formatBands(state.cfg.Bands))

	fallbackEntry := widget.NewEntry()
	fallbackEntry.SetText(strconv.Itoa(state.cfg.Synth.FallbackTableSize))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Bands (Hz → size)", Widget: bandsEntry},
			{Text: "Fallback Size", Widget: fallbackEntry},
		},
		OnSubmit: func() {
			bands, err := parseBands(bandsEntry.Text)
			if err != nil {
				dialog.ShowError(fmt.Errorf("invalid bands: %w", err), state.window)
				return
			}

			candidate := *state.cfg
			candidate.Bands = bands
			if fallback, err := strconv.Atoi(fallbackEntry.Text); err == nil {
				candidate.Synth.FallbackTableSize = fallback
			}

			// Reject configurations that break the policy invariants.
			if _, err := wavetable.NewPolicy(&candidate); err != nil {
				dialog.ShowError(fmt.Errorf("invalid policy: %w", err), state.window)
				return
			}

			state.cfg.Bands = candidate.Bands
			state.cfg.Synth.FallbackTableSize = candidate.Synth.FallbackTableSize
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Bands", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	latencyEntry := widget.NewEntry()
	latencyEntry.SetText(state.cfg.Mock.Latency.String())

	streamEntry := widget.NewEntry()
	streamEntry.SetText(state.cfg.Mock.StreamInterval.String())

	cyclesEntry := widget.NewEntry()
	cyclesEntry.SetText(strconv.Itoa(state.cfg.Mock.TraceCycles))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Latency", Widget: latencyEntry},
			{Text: "Stream Interval", Widget: streamEntry},
			{Text: "Trace Cycles", Widget: cyclesEntry},
		},
		OnSubmit: func() {
			if latency, err := time.ParseDuration(latencyEntry.Text); err == nil && latency >= 0 {
				state.cfg.Mock.Latency = latency
			}
			if interval, err := time.ParseDuration(streamEntry.Text); err == nil && interval > 0 {
				state.cfg.Mock.StreamInterval = interval
			}
			if cycles, err := strconv.Atoi(cyclesEntry.Text); err == nil && cycles > 0 {
				state.cfg.Mock.TraceCycles = cycles
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}

// formatBands renders bands one per line for editing.
func formatBands(bands []config.BandConfig) string {
	var b strings.Builder
	for _, band := range bands {
		fmt.Fprintf(&b, "%g %d\n", band.UpperHz, band.TableSize)
	}
	return b.String()
}

// parseBands parses one "upper_hz table_size" pair per line.
func parseBands(text string) ([]config.BandConfig, error) {
	var bands []config.BandConfig
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %q: want \"<upper_hz> <table_size>\"", line)
		}
		upper, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		size, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		bands = append(bands, config.BandConfig{UpperHz: upper, TableSize: size})
	}
	return bands, nil
}
