package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls int64
	err   error
}

func (s *countingSweeper) EvaluateAll(_ context.Context) error {
	atomic.AddInt64(&s.calls, 1)
	return s.err
}

type countingRefresher struct {
	calls int64
	err   error
}

func (r *countingRefresher) RefreshActive(_ context.Context) error {
	atomic.AddInt64(&r.calls, 1)
	return r.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSchedulerRegisterInvalidExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &countingSweeper{}, testLogger())

	err := s.Register("not a cron expression")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register evaluation sweep")
}

func TestSchedulerRunsSweepOnSchedule(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(context.Background(), sweeper, testLogger())

	// Every second, using the six-field expression with a seconds column.
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&sweeper.calls) >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerRegisterRefreshInvalidExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &countingSweeper{}, testLogger())

	err := s.RegisterRefresh("nope", &countingRefresher{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register decomposition refresh")
}

func TestSchedulerRunsRefreshOnSchedule(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewScheduler(context.Background(), &countingSweeper{}, testLogger())

	require.NoError(t, s.RegisterRefresh("* * * * * *", refresher))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&refresher.calls) >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerRefreshErrorIsLoggedNotFatal(t *testing.T) {
	refresher := &countingRefresher{err: context.DeadlineExceeded}
	s := NewScheduler(context.Background(), &countingSweeper{}, testLogger())

	require.NoError(t, s.RegisterRefresh("* * * * * *", refresher))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&refresher.calls) >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerRunSweepNow(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(context.Background(), sweeper, testLogger())

	s.RunSweepNow()
	assert.Equal(t, int64(1), atomic.LoadInt64(&sweeper.calls))
}

func TestSchedulerSweepErrorIsLoggedNotFatal(t *testing.T) {
	sweeper := &countingSweeper{err: context.DeadlineExceeded}
	s := NewScheduler(context.Background(), sweeper, testLogger())

	assert.NotPanics(t, s.RunSweepNow)
}

func TestSchedulerStopWaitsForRunningJobs(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(context.Background(), sweeper, testLogger())
	require.NoError(t, s.Register("* * * * * *"))

	s.Start()
	assert.NotPanics(t, s.Stop)
}
