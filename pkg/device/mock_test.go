package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/synth"
)

func mockTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Mock.Latency = 0
	cfg.Mock.StreamInterval = 10 * time.Millisecond
	return cfg
}

func TestNewMock(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)
	assert.NotNil(t, mock)
	assert.False(t, mock.IsConnected())
}

func TestNewMock_NilConfigUsesDefaults(t *testing.T) {
	mock, err := NewMock(nil)
	require.NoError(t, err)
	assert.NotNil(t, mock)
}

func TestNewMock_InvalidBands(t *testing.T) {
	cfg := mockTestConfig()
	cfg.Bands = []config.BandConfig{
		{UpperHz: 300, TableSize: 100},
		{UpperHz: 150, TableSize: 200},
	}

	mock, err := NewMock(cfg)
	assert.Error(t, err)
	assert.Nil(t, mock)
}

func TestMock_ConnectClose(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)

	require.NoError(t, mock.Connect())
	assert.True(t, mock.IsConnected())

	assert.Error(t, mock.Connect(), "double connect should fail")

	require.NoError(t, mock.Close())
	assert.False(t, mock.IsConnected())

	assert.NoError(t, mock.Close(), "closing twice is fine")
}

func TestMock_ApplyNotConnected(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)

	_, err = mock.Apply(500, 3.3)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMock_Apply(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	tests := []struct {
		name      string
		frequency float64
		amplitude float64
		want      synth.Applied
	}{
		{
			name:      "mid band",
			frequency: 500, amplitude: 3.3,
			want: synth.Applied{FrequencyHz: 500, AmplitudeVolts: 3.3, TableSize: 50, IntervalMicros: 40},
		},
		{
			name:      "beyond bands with clamped amplitude",
			frequency: 2000, amplitude: 5,
			want: synth.Applied{FrequencyHz: 2000, AmplitudeVolts: 3.3, TableSize: 20, IntervalMicros: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := mock.Apply(tt.frequency, tt.amplitude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
		})
	}
}

func TestMock_ApplyRejected(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	before, err := mock.Apply(500, 3.3)
	require.NoError(t, err)

	_, err = mock.Apply(0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = mock.Apply(-50, 1)
	assert.ErrorIs(t, err, ErrRejected)

	// Rejected commands leave the engine untouched.
	assert.Equal(t, before, mock.engine.Snapshot())
}

func TestMock_StreamsTraces(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	applied, err := mock.Apply(500, 3.3)
	require.NoError(t, err)

	var trace []synth.Sample
	deadline := time.After(5 * time.Second)
	for trace == nil {
		select {
		case tr, ok := <-mock.Traces():
			require.True(t, ok, "traces channel closed early")
			if len(tr) > 0 {
				trace = tr
			}
		case <-deadline:
			t.Fatal("no trace received within timeout")
		}
	}

	scale := float32(applied.AmplitudeVolts / mock.engine.SupplyVolts())
	for i, s := range trace {
		assert.GreaterOrEqual(t, s.Duty, float32(0), "sample %d", i)
		assert.LessOrEqual(t, s.Duty, scale+1e-6, "sample %d", i)
		assert.InDelta(t, float64(s.Duty)*3.3, s.Volts, 1e-9, "sample %d", i)
	}
	if len(trace) > 1 {
		step := time.Duration(applied.IntervalMicros) * time.Microsecond
		assert.Equal(t, step, trace[1].Offset-trace[0].Offset)
	}
}
