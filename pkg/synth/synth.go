package synth

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

// ErrFrequencyRange is returned when a requested frequency is not strictly positive.
var ErrFrequencyRange = errors.New("frequency must be positive")

// PWM is the output peripheral the oscillator writes to. Duty 0 maps to
// 0 V and duty 1 to the supply rail after external filtering.
type PWM interface {
	SetDuty(duty float32)
}

// Timer schedules the periodic sampling tick. Suspend must not return
// while a tick is still in flight; Resume restarts ticking at the given
// interval. The synthesizer suspends the timer for every table mutation.
type Timer interface {
	Suspend()
	Resume(interval time.Duration)
}

// Applied reports the effective operating parameters after a
// reconfiguration, including any clamping that took place.
type Applied struct {
	FrequencyHz    float64
	AmplitudeVolts float64
	TableSize      int
	IntervalMicros int64
}

// tableState bundles the waveform table with its resolution so both are
// published to the sampler in a single pointer swap.
type tableState struct {
	table wavetable.Table
	size  int
}

// Synth is the synthesis engine: a phase-accumulator oscillator sampled
// by a periodic timer, reconfigured through Apply. The table/size pair
// is swapped atomically with the timer suspended; amplitude scale and
// phase are single word-sized scalars shared with the tick context.
type Synth struct {
	pwm    PWM
	timer  Timer
	policy *wavetable.Policy

	supplyVolts float64
	minInterval int64 // µs

	state    atomic.Pointer[tableState]
	ampScale atomic.Uint32 // float32 bits of amplitude/supply
	phase    atomic.Uint32 // float32 bits, position within the cycle in [0, 1)

	mu   sync.Mutex // serializes Apply
	last Applied
}

// New creates a synthesis engine driving the given PWM peripheral. The
// engine is idle until the first successful Apply.
func New(cfg *config.Config, policy *wavetable.Policy, pwm PWM, timer Timer) *Synth {
	supply := cfg.Synth.SupplyVolts
	if supply <= 0 {
		supply = config.Default().Synth.SupplyVolts
	}
	minInterval := int64(cfg.Synth.MinIntervalMicros)
	if minInterval <= 0 {
		minInterval = 1
	}

	return &Synth{
		pwm:         pwm,
		timer:       timer,
		policy:      policy,
		supplyVolts: supply,
		minInterval: minInterval,
	}
}

// Tick produces one output sample: it interpolates the waveform table at
// the current phase, scales it, writes the duty cycle to the PWM
// peripheral, and advances the phase by one table step. It performs no
// allocation and no blocking, and is a safe no-op while no table is
// published.
func (s *Synth) Tick() {
	st := s.state.Load()
	if st == nil || st.size <= 0 {
		return
	}
	scale := math32.Float32frombits(s.ampScale.Load())
	phase := math32.Float32frombits(s.phase.Load())

	pos := phase * float32(st.size)
	duty := scale * st.table.Lerp(pos)
	if duty < 0 {
		duty = 0
	} else if duty > 1 {
		duty = 1
	}
	s.pwm.SetDuty(duty)

	phase += 1 / float32(st.size)
	if phase >= 1 {
		phase -= math32.Floor(phase)
	}
	s.phase.Store(math32.Float32bits(phase))
}

// Apply reconfigures the engine to the requested frequency and peak
// amplitude. Amplitude is clamped to [0, supply] and takes effect with a
// single scalar store. The frequency path suspends the timer, rebuilds
// the table at the policy-selected resolution, publishes table and size
// together, and resumes ticking at the recomputed interval. Phase is
// deliberately left untouched, so the waveform stays continuous across
// the change up to one table step. A non-positive frequency fails the
// whole request with no state change.
func (s *Synth) Apply(frequency, amplitude float64) (Applied, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frequency <= 0 {
		return Applied{}, fmt.Errorf("apply %g Hz: %w", frequency, ErrFrequencyRange)
	}

	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > s.supplyVolts {
		amplitude = s.supplyVolts
	}
	s.ampScale.Store(math32.Float32bits(float32(amplitude / s.supplyVolts)))

	size := s.policy.SizeFor(frequency)

	s.timer.Suspend()
	table := wavetable.Build(size, s.policy.MaxSize())
	size = table.Size()
	s.state.Store(&tableState{table: table, size: size})

	intervalMicros := int64(math.Round(1e6 / (frequency * float64(size))))
	if intervalMicros < s.minInterval {
		intervalMicros = s.minInterval
	}
	s.timer.Resume(time.Duration(intervalMicros) * time.Microsecond)

	s.last = Applied{
		FrequencyHz:    frequency,
		AmplitudeVolts: amplitude,
		TableSize:      size,
		IntervalMicros: intervalMicros,
	}
	return s.last, nil
}

// Snapshot returns the most recently applied parameters.
func (s *Synth) Snapshot() Applied {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Phase returns the current position within the waveform cycle, in [0, 1).
func (s *Synth) Phase() float32 {
	return math32.Float32frombits(s.phase.Load())
}

// SupplyVolts returns the configured amplitude ceiling.
func (s *Synth) SupplyVolts() float64 {
	return s.supplyVolts
}
