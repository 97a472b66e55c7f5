package synth

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

// fakePWM records every duty value written by the oscillator.
type fakePWM struct {
	duties []float32
}

func (p *fakePWM) SetDuty(duty float32) {
	p.duties = append(p.duties, duty)
}

func (p *fakePWM) last() float32 {
	return p.duties[len(p.duties)-1]
}

// fakeTimer records the suspend/resume protocol without scheduling ticks.
type fakeTimer struct {
	events   []string
	interval time.Duration
}

func (t *fakeTimer) Suspend() {
	t.events = append(t.events, "suspend")
}

func (t *fakeTimer) Resume(interval time.Duration) {
	t.events = append(t.events, "resume")
	t.interval = interval
}

func newTestSynth(t *testing.T) (*Synth, *fakePWM, *fakeTimer) {
	t.Helper()
	cfg := config.Default()
	policy, err := wavetable.NewPolicy(cfg)
	require.NoError(t, err)

	pwm := &fakePWM{}
	timer := &fakeTimer{}
	return New(cfg, policy, pwm, timer), pwm, timer
}

func TestApply_SelectsTableAndInterval(t *testing.T) {
	tests := []struct {
		name         string
		frequency    float64
		amplitude    float64
		wantSize     int
		wantAmp      float64
		wantInterval int64
	}{
		{
			name:      "500 Hz at full supply",
			frequency: 500, amplitude: 3.3,
			wantSize: 50, wantAmp: 3.3, wantInterval: 40,
		},
		{
			name:      "2 kHz beyond all bands, amplitude clamped",
			frequency: 2000, amplitude: 5,
			wantSize: 20, wantAmp: 3.3, wantInterval: 25,
		},
		{
			name:      "low frequency gets dense table",
			frequency: 100, amplitude: 1.5,
			wantSize: 200, wantAmp: 1.5, wantInterval: 50,
		},
		{
			name:      "negative amplitude clamped to zero",
			frequency: 500, amplitude: -1,
			wantSize: 50, wantAmp: 0, wantInterval: 40,
		},
		{
			name:      "interval floored at timer minimum",
			frequency: 40000, amplitude: 1,
			wantSize: 20, wantAmp: 1, wantInterval: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, timer := newTestSynth(t)

			applied, err := s.Apply(tt.frequency, tt.amplitude)
			require.NoError(t, err)

			assert.Equal(t, tt.frequency, applied.FrequencyHz)
			assert.Equal(t, tt.wantAmp, applied.AmplitudeVolts)
			assert.Equal(t, tt.wantSize, applied.TableSize)
			assert.Equal(t, tt.wantInterval, applied.IntervalMicros)
			assert.Equal(t, time.Duration(tt.wantInterval)*time.Microsecond, timer.interval)
			assert.Equal(t, []string{"suspend", "resume"}, timer.events)
		})
	}
}

func TestApply_RejectsNonPositiveFrequency(t *testing.T) {
	s, pwm, timer := newTestSynth(t)

	before, err := s.Apply(500, 3.3)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		s.Tick()
	}
	phaseBefore := s.Phase()
	dutyBefore := pwm.last()
	eventsBefore := len(timer.events)

	for _, freq := range []float64{0, -10} {
		_, err := s.Apply(freq, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFrequencyRange)
	}

	// Prior state is untouched: no timer activity, same parameters, same phase.
	assert.Equal(t, eventsBefore, len(timer.events))
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, phaseBefore, s.Phase())

	s.Tick()
	assert.InDelta(t, float64(dutyBefore), float64(pwm.last()), 0.2) // still the same waveform
}

func TestTick_NoTableIsNoOp(t *testing.T) {
	s, pwm, _ := newTestSynth(t)

	s.Tick()
	s.Tick()

	assert.Empty(t, pwm.duties)
	assert.Equal(t, float32(0), s.Phase())
}

func TestTick_DutyBounds(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		amplitude float64
	}{
		{name: "full amplitude", frequency: 500, amplitude: 3.3},
		{name: "half amplitude", frequency: 250, amplitude: 1.65},
		{name: "zero amplitude", frequency: 100, amplitude: 0},
		{name: "clamped amplitude", frequency: 2000, amplitude: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, pwm, _ := newTestSynth(t)

			applied, err := s.Apply(tt.frequency, tt.amplitude)
			require.NoError(t, err)

			ceiling := float32(applied.AmplitudeVolts / s.SupplyVolts())
			for i := 0; i < 3*applied.TableSize; i++ {
				s.Tick()
			}

			require.Len(t, pwm.duties, 3*applied.TableSize)
			for i, duty := range pwm.duties {
				assert.GreaterOrEqual(t, duty, float32(0), "tick %d", i)
				assert.LessOrEqual(t, duty, ceiling+1e-6, "tick %d", i)
			}
		})
	}
}

func TestTick_TracksIdealSine(t *testing.T) {
	s, pwm, _ := newTestSynth(t)

	applied, err := s.Apply(500, 3.3)
	require.NoError(t, err)

	for i := 0; i < applied.TableSize; i++ {
		s.Tick()
	}

	// Tick i samples phase i/N before advancing.
	for i, duty := range pwm.duties {
		phase := float64(i) / float64(applied.TableSize)
		want := (math.Sin(2*math.Pi*phase) + 1) / 2
		assert.InDelta(t, want, float64(duty), 0.01, "tick %d", i)
	}
}

func TestApply_PhaseContinuity(t *testing.T) {
	s, _, _ := newTestSynth(t)

	_, err := s.Apply(500, 3.3)
	require.NoError(t, err)
	for i := 0; i < 13; i++ {
		s.Tick()
	}
	phase := s.Phase()

	// Amplitude-only change: phase must be bit-for-bit unchanged.
	_, err = s.Apply(500, 1.0)
	require.NoError(t, err)
	assert.Equal(t, phase, s.Phase())

	// Frequency change: phase value itself still carries over untouched.
	_, err = s.Apply(100, 1.0)
	require.NoError(t, err)
	assert.Equal(t, phase, s.Phase())
}

func TestApply_BoundedDiscontinuityAcrossResize(t *testing.T) {
	s, pwm, _ := newTestSynth(t)

	first, err := s.Apply(100, 3.3) // dense table
	require.NoError(t, err)
	require.Equal(t, 200, first.TableSize)

	for i := 0; i < 73; i++ {
		s.Tick()
	}
	phase := float64(s.Phase())

	second, err := s.Apply(500, 3.3) // coarse table
	require.NoError(t, err)
	require.Equal(t, 50, second.TableSize)

	s.Tick()
	got := float64(pwm.last())

	// The first sample after the resize may be off by at most one step of
	// the new table, never a full-cycle jump.
	ideal := (math.Sin(2*math.Pi*phase) + 1) / 2
	step := 2 * math.Pi / float64(second.TableSize)
	assert.InDelta(t, ideal, got, step)
}

func TestApply_Idempotent(t *testing.T) {
	s, _, timer := newTestSynth(t)

	first, err := s.Apply(500, 2.5)
	require.NoError(t, err)
	intervalFirst := timer.interval

	second, err := s.Apply(500, 2.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, intervalFirst, timer.interval)
}
