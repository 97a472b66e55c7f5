package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/device"
	"github.com/Jeyu73/pwmwave/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.jeyu73.pwmwave")

	// Create main window
	window := application.NewWindow("PWM Waveform Generator")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		window:  window,
		useMock: *mockFlag,
	}

	// Create scope widget for waveform display
	scopeWidget := scope.New(cfg)
	state.scopeWidget = scopeWidget

	toolbar := createToolbar(state)
	controls := createControls(state)

	content := container.NewBorder(
		container.NewVBox(toolbar, controls),
		nil,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	dev         device.Device
	scopeWidget *scope.Widget
	window      fyne.Window
	connectBtn  *widget.Button
	applyBtn    *widget.Button
	freqEntry   *widget.Entry
	ampEntry    *widget.Entry
	statusLabel *widget.Label
	useMock     bool
	traceDone   chan struct{} // Closed when the trace consumer goroutine exits
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	statusLabel := widget.NewLabel("Disconnected")
	state.statusLabel = statusLabel

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		statusLabel, // right
		nil,         // center (spacer)
	)
}

// createControls creates the frequency/amplitude form with the Apply button.
func createControls(state *appState) fyne.CanvasObject {
	freqEntry := widget.NewEntry()
	freqEntry.SetPlaceHolder("Frequency (Hz)")
	freqEntry.SetText("100")
	state.freqEntry = freqEntry

	ampEntry := widget.NewEntry()
	ampEntry.SetPlaceHolder(fmt.Sprintf("Amplitude (V, max %.1f)", state.cfg.Synth.SupplyVolts))
	ampEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Synth.SupplyVolts))
	state.ampEntry = ampEntry

	applyBtn := widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), func() {
		handleApply(state)
	})
	applyBtn.Importance = widget.HighImportance
	applyBtn.Disable()
	state.applyBtn = applyBtn

	return container.NewBorder(
		nil, nil,
		widget.NewLabel("Frequency (Hz) / Amplitude (V):"),
		applyBtn,
		container.NewGridWithColumns(2, freqEntry, ampEntry),
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.dev != nil && state.dev.IsConnected() {
		// Disconnect - close device and wait for the trace consumer
		if err := state.dev.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
		if state.traceDone != nil {
			<-state.traceDone
			state.traceDone = nil
		}
		state.dev = nil
		state.applyBtn.Disable()
		state.statusLabel.SetText("Disconnected")
		fmt.Println("Disconnected")
		return
	}

	// Connect
	var (
		dev device.Device
		err error
	)
	if state.useMock {
		dev, err = device.NewMock(state.cfg)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to create mocked device: %w", err), state.window)
			return
		}
		fmt.Println("Using mocked device")
	} else {
		dev = device.New(state.cfg)
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.dev = dev
	if state.useMock {
		fmt.Println("Connected to mocked device")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	state.applyBtn.Enable()
	state.statusLabel.SetText("Connected, no parameters applied")

	// Consume traces and feed the scope on the main thread
	done := make(chan struct{})
	state.traceDone = done
	go func() {
		defer close(done)
		for trace := range dev.Traces() {
			tr := trace
			fyne.Do(func() {
				state.scopeWidget.UpdateTrace(tr)
			})
		}
	}()
}

// handleApply reads the form and sends the command to the device.
func handleApply(state *appState) {
	if state.dev == nil || !state.dev.IsConnected() {
		return
	}

	frequency, err := strconv.ParseFloat(state.freqEntry.Text, 64)
	if err != nil {
		dialog.ShowError(fmt.Errorf("invalid frequency %q: %w", state.freqEntry.Text, err), state.window)
		return
	}
	amplitude, err := strconv.ParseFloat(state.ampEntry.Text, 64)
	if err != nil {
		dialog.ShowError(fmt.Errorf("invalid amplitude %q: %w", state.ampEntry.Text, err), state.window)
		return
	}

	applied, err := state.dev.Apply(frequency, amplitude)
	if err != nil {
		dialog.ShowError(fmt.Errorf("apply failed: %w", err), state.window)
		return
	}

	state.statusLabel.SetText(fmt.Sprintf("%.3f Hz, %.3f V, table %d, %d µs/sample",
		applied.FrequencyHz, applied.AmplitudeVolts, applied.TableSize, applied.IntervalMicros))
	state.scopeWidget.UpdateApplied(applied)
}
