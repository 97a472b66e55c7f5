package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMock_GracefulShutdown tests that the mock closes its traces
// channel when Close() is called and stops the engine timer.
func TestMock_GracefulShutdown(t *testing.T) {
	mock, err := NewMock(mockTestConfig())
	require.NoError(t, err)
	require.NoError(t, mock.Connect())

	_, err = mock.Apply(500, 3.3)
	require.NoError(t, err)

	traces := mock.Traces()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range traces {
			received++
			if received >= 2 {
				mock.Close()
			}
		}
	}()

	select {
	case <-done:
		// Channel closed successfully
	case <-time.After(5 * time.Second):
		t.Fatal("Traces channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 2, "Should receive traces before channel closes")
	assert.False(t, mock.IsConnected())
	assert.False(t, mock.runner.Running(), "engine timer should be stopped")

	_, ok := <-traces
	assert.False(t, ok, "Channel should be closed")
}
