package synth

import (
	"time"

	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

// Sample is one synthesized output point: the duty cycle written to the
// PWM peripheral and the voltage it settles to after external filtering.
type Sample struct {
	Offset time.Duration
	Duty   float32
	Volts  float64
}

// Preview computes the output sequence the engine produces for the
// applied parameters: cycles full waveform periods, one point per
// sampling tick. Used to display the expected waveform when the real
// device offers no telemetry path back to the host.
func Preview(ap Applied, supplyVolts float64, cycles int) []Sample {
	if ap.TableSize <= 0 || cycles <= 0 || supplyVolts <= 0 {
		return nil
	}

	table := wavetable.Build(ap.TableSize, ap.TableSize)
	scale := float32(ap.AmplitudeVolts / supplyVolts)
	interval := time.Duration(ap.IntervalMicros) * time.Microsecond

	samples := make([]Sample, 0, cycles*ap.TableSize)
	for i := 0; i < cycles*ap.TableSize; i++ {
		duty := scale * table.At(i%ap.TableSize)
		if duty < 0 {
			duty = 0
		} else if duty > 1 {
			duty = 1
		}
		samples = append(samples, Sample{
			Offset: time.Duration(i) * interval,
			Duty:   duty,
			Volts:  float64(duty) * supplyVolts,
		})
	}
	return samples
}

// DownsampleSamples decimates a sample trace to at most maxPoints for
// display. It reuses dst when it has sufficient capacity and returns the
// destination slice.
func DownsampleSamples(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	step := float64(len(samples)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(samples) {
			dst = append(dst, samples[idx])
		}
	}
	return dst
}
