package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/proto"
	"github.com/Jeyu73/pwmwave/pkg/synth"
)

const (
	// DefaultBaudRate is the standard baud rate for the generator firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the traces channel buffer.
	DefaultBufferSize = 8

	// bannerTimeout bounds the wait for the startup announcement; a board
	// that booted long before we connected has already sent it.
	bannerTimeout = 3 * time.Second
	// responseTimeout bounds the wait for an ACK/NACK exchange.
	responseTimeout = 2 * time.Second

	// previewCycles is the number of waveform cycles in a preview trace.
	previewCycles = 2
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial talks to the generator firmware over its line protocol. The
// firmware has no telemetry path, so after each accepted command the
// expected output waveform is synthesized host-side and delivered as a
// trace.
type Serial struct {
	port        string
	baudRate    int
	supplyVolts float64

	conn      serial.Port
	responses chan string
	ready     chan struct{}
	traces    chan []synth.Sample
	mu        sync.RWMutex
	cmdMu     sync.Mutex // serializes command/response exchanges
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a Serial device from configuration.
func New(cfg *config.Config) *Serial {
	baud := cfg.Serial.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:        cfg.Serial.Port,
		baudRate:    baud,
		supplyVolts: cfg.Synth.SupplyVolts,
		responses:   make(chan string, 16),
		ready:       make(chan struct{}, 1),
		traces:      make(chan []synth.Sample, DefaultBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}
	return result, nil
}

// Connect opens the serial port, starts the response reader, and waits
// briefly for the firmware's startup announcement.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readResponses()

	select {
	case <-d.ready:
	case <-time.After(bannerTimeout):
		// The board may have announced itself before we opened the port.
		log.Printf("No startup announcement from %s, proceeding anyway", d.port)
	}

	return nil
}

// Close closes the connection and stops the reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	close(d.traces)

	return nil
}

// Traces returns the channel delivering expected-waveform traces.
func (d *Serial) Traces() <-chan []synth.Sample {
	return d.traces
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Apply sends a command line and waits for the two-line response. On ACK
// it parses the reported parameters, queues a preview trace, and returns
// the effective values.
func (d *Serial) Apply(frequency, amplitude float64) (synth.Applied, error) {
	// Held for the whole exchange so Close cannot tear down the port or
	// the traces channel mid-command.
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return synth.Applied{}, ErrNotConnected
	}
	conn := d.conn

	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	cmd := fmt.Sprintf("%g %g\n", frequency, amplitude)
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return synth.Applied{}, fmt.Errorf("failed to send command: %w", err)
	}

	status, err := d.nextResponse()
	if err != nil {
		return synth.Applied{}, err
	}
	detail, err := d.nextResponse()
	if err != nil {
		return synth.Applied{}, err
	}

	if status != proto.AckLine {
		return synth.Applied{}, fmt.Errorf("%s: %w", detail, ErrRejected)
	}

	applied, err := proto.ParseDetail(detail)
	if err != nil {
		return synth.Applied{}, fmt.Errorf("bad detail line from device: %w", err)
	}

	// Queue the expected output waveform for display (non-blocking).
	select {
	case d.traces <- synth.Preview(applied, d.supplyVolts, previewCycles):
	default:
		log.Printf("Traces channel full, dropping preview")
	}

	return applied, nil
}

// nextResponse waits for one response line from the reader goroutine.
func (d *Serial) nextResponse() (string, error) {
	select {
	case line, ok := <-d.responses:
		if !ok {
			return "", ErrNotConnected
		}
		return line, nil
	case <-d.ctx.Done():
		return "", ErrNotConnected
	case <-time.After(responseTimeout):
		return "", ErrTimeout
	}
}

// readResponses reads lines from the serial port and routes them: the
// startup banner signals readiness, everything else is a command
// response.
func (d *Serial) readResponses() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readResponses: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if line == proto.BannerLine {
				select {
				case d.ready <- struct{}{}:
				default:
				}
				continue
			}

			select {
			case d.responses <- line:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Response channel full, dropping line %q", line)
			}
		}
	}
}
