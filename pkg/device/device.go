package device

import (
	"errors"

	"github.com/Jeyu73/pwmwave/pkg/synth"
)

// Errors shared by device implementations.
var (
	ErrNotConnected = errors.New("not connected")
	ErrRejected     = errors.New("command rejected by device")
	ErrTimeout      = errors.New("timed out waiting for device response")
)

// Device defines the interface for waveform generator devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	// Apply requests new operating parameters and returns the effective
	// values the device reports back.
	Apply(frequency, amplitude float64) (synth.Applied, error)
	// Traces delivers output waveform traces for display.
	Traces() <-chan []synth.Sample
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
