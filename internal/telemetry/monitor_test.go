package telemetry

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRuntimeMonitorSamplesOnStart(t *testing.T) {
	monitor := NewRuntimeMonitor(testLogger(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		monitor.Start(ctx)
		close(done)
	}()

	// The first sample is taken immediately, before the first tick.
	assert.Eventually(t, func() bool {
		return !monitor.Latest().SampledAt.IsZero()
	}, 5*time.Second, 10*time.Millisecond)

	snapshot := monitor.Latest()
	assert.Greater(t, snapshot.Goroutines, 0)
	assert.NotZero(t, snapshot.HeapAlloc)

	monitor.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestRuntimeMonitorStopIsIdempotent(t *testing.T) {
	monitor := NewRuntimeMonitor(testLogger(), time.Second)

	assert.NotPanics(t, func() {
		monitor.Stop()
		monitor.Stop()
	})
}

func TestRuntimeMonitorContextCancellation(t *testing.T) {
	monitor := NewRuntimeMonitor(testLogger(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		monitor.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}

func TestRuntimeMonitorDefaultInterval(t *testing.T) {
	monitor := NewRuntimeMonitor(testLogger(), 0)
	assert.Equal(t, 30*time.Second, monitor.interval)
}
