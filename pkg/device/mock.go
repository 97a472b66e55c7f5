package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/proto"
	"github.com/Jeyu73/pwmwave/pkg/synth"
	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

// captureMax bounds the mock's duty capture ring.
const captureMax = 4096

// Mock simulates a generator board for testing and development. It runs
// the genuine synthesis engine and protocol handler in-process: commands
// go through the same parser the firmware uses, the engine ticks off a
// real timer, and the produced duty cycles are streamed back as traces.
type Mock struct {
	cfg *config.Config

	engine  *synth.Synth
	runner  *synth.Runner
	handler *proto.Handler
	capture *capturePWM

	traces     chan []synth.Sample
	streamDone chan struct{}
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	connected  bool
}

// NewMock creates a mocked device instance. The configuration's policy
// bands must be valid.
func NewMock(cfg *config.Config) (*Mock, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	policy, err := wavetable.NewPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid policy configuration: %w", err)
	}

	capture := &capturePWM{max: captureMax}

	var engine *synth.Synth
	runner := synth.NewRunner(func() { engine.Tick() })
	engine = synth.New(cfg, policy, capture, runner)

	bufSize := cfg.Mock.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     cfg,
		engine:  engine,
		runner:  runner,
		handler: proto.NewHandler(engine),
		capture: capture,
		traces:  make(chan []synth.Sample, bufSize),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Connect starts the trace streamer.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.streamDone = make(chan struct{})
	go m.streamTraces()

	return nil
}

// Close stops the engine and the streamer.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.streamDone // no sends after this point
	m.runner.Close()
	m.connected = false
	close(m.traces)

	return nil
}

// Traces returns the channel delivering captured output traces.
func (m *Mock) Traces() <-chan []synth.Sample {
	return m.traces
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Apply routes the request through the same line protocol the firmware
// speaks and returns the parameters the handler reports back.
func (m *Mock) Apply(frequency, amplitude float64) (synth.Applied, error) {
	m.mu.RLock()
	connected := m.connected
	m.mu.RUnlock()

	if !connected {
		return synth.Applied{}, ErrNotConnected
	}

	if m.cfg.Mock.Latency > 0 {
		time.Sleep(m.cfg.Mock.Latency)
	}

	lines := m.handler.HandleLine(fmt.Sprintf("%g %g", frequency, amplitude))
	if len(lines) != 2 || lines[0] != proto.AckLine {
		detail := proto.ParseErrorLine
		if len(lines) == 2 {
			detail = lines[1]
		}
		return synth.Applied{}, fmt.Errorf("%s: %w", detail, ErrRejected)
	}

	applied, err := proto.ParseDetail(lines[1])
	if err != nil {
		return synth.Applied{}, err
	}
	return applied, nil
}

// streamTraces periodically snapshots the capture ring into a trace.
func (m *Mock) streamTraces() {
	defer close(m.streamDone)

	interval := m.cfg.Mock.StreamInterval
	if interval <= 0 {
		interval = config.Default().Mock.StreamInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			trace := m.buildTrace()
			if trace == nil {
				continue
			}
			select {
			case m.traces <- trace:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip this trace
			}
		}
	}
}

// buildTrace converts the most recent captured duties into a trace.
func (m *Mock) buildTrace() []synth.Sample {
	ap := m.engine.Snapshot()
	if ap.TableSize <= 0 {
		return nil
	}

	duties := m.capture.snapshot()
	if len(duties) == 0 {
		return nil
	}

	cycles := m.cfg.Mock.TraceCycles
	if cycles <= 0 {
		cycles = 1
	}
	limit := cycles * ap.TableSize
	if len(duties) > limit {
		duties = duties[len(duties)-limit:]
	}

	interval := time.Duration(ap.IntervalMicros) * time.Microsecond
	supply := m.engine.SupplyVolts()

	trace := make([]synth.Sample, len(duties))
	for i, duty := range duties {
		trace[i] = synth.Sample{
			Offset: time.Duration(i) * interval,
			Duty:   duty,
			Volts:  float64(duty) * supply,
		}
	}
	return trace
}

// capturePWM records every duty the engine writes, keeping the most
// recent captureMax values.
type capturePWM struct {
	mu     sync.Mutex
	duties []float32
	max    int
}

func (c *capturePWM) SetDuty(duty float32) {
	c.mu.Lock()
	c.duties = append(c.duties, duty)
	if len(c.duties) > c.max {
		c.duties = c.duties[len(c.duties)-c.max:]
	}
	c.mu.Unlock()
}

func (c *capturePWM) snapshot() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float32, len(c.duties))
	copy(out, c.duties)
	return out
}
