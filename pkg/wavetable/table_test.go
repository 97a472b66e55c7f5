package wavetable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Sizes(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		maxSize  int
		wantSize int
	}{
		{name: "small table", size: 20, maxSize: 256, wantSize: 20},
		{name: "dense table", size: 200, maxSize: 256, wantSize: 200},
		{name: "at capacity", size: 256, maxSize: 256, wantSize: 256},
		{name: "clamped to capacity", size: 1000, maxSize: 256, wantSize: 256},
		{name: "zero size is empty", size: 0, maxSize: 256, wantSize: 0},
		{name: "negative size is empty", size: -5, maxSize: 256, wantSize: 0},
		{name: "default capacity", size: 300, maxSize: 0, wantSize: DefaultMaxSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Build(tt.size, tt.maxSize)
			assert.Equal(t, tt.wantSize, table.Size())
		})
	}
}

func TestBuild_SampleValues(t *testing.T) {
	for _, size := range []int{4, 20, 30, 50, 100, 200, 256} {
		table := Build(size, 256)
		require.Equal(t, size, table.Size())

		// Entry 0 sits at the sine midpoint: (sin(0)+1)/2 = 0.5.
		assert.InDelta(t, 0.5, table.At(0), 1e-6)

		for i := 0; i < size; i++ {
			s := table.At(i)
			assert.GreaterOrEqual(t, s, float32(0), "size %d index %d", size, i)
			assert.LessOrEqual(t, s, float32(1), "size %d index %d", size, i)

			want := (math.Sin(2*math.Pi*float64(i)/float64(size)) + 1) / 2
			assert.InDelta(t, want, float64(s), 1e-5, "size %d index %d", size, i)
		}
	}
}

func TestTable_Lerp_ApproximatesSine(t *testing.T) {
	// Linear interpolation error of a sine table is bounded by O(1/N).
	for _, size := range []int{30, 50, 200} {
		table := Build(size, 256)
		bound := math.Pi / float64(size)

		for i := 0; i < 1000; i++ {
			phase := float64(i) / 1000
			got := float64(table.Lerp(float32(phase * float64(size))))
			want := (math.Sin(2*math.Pi*phase) + 1) / 2
			assert.InDelta(t, want, got, bound, "size %d phase %f", size, phase)
		}
	}
}

func TestTable_Lerp_WrapsAround(t *testing.T) {
	table := Build(50, 256)

	// The position just before the end interpolates toward entry 0.
	end := table.Lerp(49.5)
	mid := (table.At(49) + table.At(0)) / 2
	assert.InDelta(t, mid, end, 1e-6)

	// A full table length maps back to entry 0.
	assert.InDelta(t, table.At(0), table.Lerp(50), 1e-4)
}

func TestTable_Lerp_Empty(t *testing.T) {
	var table Table
	assert.Equal(t, 0, table.Size())
	assert.Equal(t, float32(0), table.Lerp(0.5))
}
