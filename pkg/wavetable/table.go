package wavetable

import (
	"github.com/chewxy/math32"
)

// DefaultMaxSize is the default hard capacity of a waveform table.
const DefaultMaxSize = 256

// Table holds one full cycle of a normalized sine wave sampled at
// equally spaced phase points. Sample values lie in [0, 1], with entry 0
// at the sine's midpoint rising edge. A Table is immutable after Build,
// so it can be shared with a running sampler without copying.
type Table struct {
	samples []float32
}

// Build computes a normalized sine table with the given resolution.
// Sizes above maxSize are clamped; a size ≤ 0 yields an empty table.
// If maxSize is not positive, DefaultMaxSize is used.
func Build(size, maxSize int) Table {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if size <= 0 {
		return Table{}
	}
	if size > maxSize {
		size = maxSize
	}

	samples := make([]float32, size)
	step := 2 * math32.Pi / float32(size)
	for i := range samples {
		samples[i] = (math32.Sin(float32(i)*step) + 1) / 2
	}
	return Table{samples: samples}
}

// Size returns the table resolution (number of samples per cycle).
func (t Table) Size() int {
	return len(t.samples)
}

// At returns the sample at index i. The index must be in [0, Size).
func (t Table) At(i int) float32 {
	return t.samples[i]
}

// Lerp returns the linearly interpolated sample at a fractional table
// position. pos is expressed in table steps, i.e. phase × Size; values
// outside [0, Size) wrap around. Returns 0 for an empty table.
func (t Table) Lerp(pos float32) float32 {
	n := len(t.samples)
	if n == 0 {
		return 0
	}

	idx0 := int(math32.Floor(pos)) % n
	if idx0 < 0 {
		idx0 += n
	}
	idx1 := (idx0 + 1) % n
	frac := pos - math32.Floor(pos)

	s0 := t.samples[idx0]
	s1 := t.samples[idx1]
	return s0 + (s1-s0)*frac
}
