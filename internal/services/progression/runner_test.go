package progression_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/GLExpress/internal/services/progression"
	progressionmocks "github.com/BearBump/GLExpress/internal/services/progression/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunOnceUpdatesStats(t *testing.T) {
	ev := progressionmocks.NewMockEvaluator(t)
	ev.On("EvaluateAndAdvance", mock.Anything).
		Return(progression.RunResult{Evaluated: 3, Advanced: 2, Failed: 1}, nil).
		Once()

	r := progression.NewRunner(ev, "", nil)
	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Advanced)

	st := r.Stats()
	require.Equal(t, progression.DefaultSchedule, st.Schedule)
	require.EqualValues(t, 1, st.TotalRuns)
	require.EqualValues(t, 2, st.TotalAdvanced)
	require.EqualValues(t, 1, st.TotalFailed)
	require.NotNil(t, st.LastRunAt)
	require.NotNil(t, st.LastResult)
	require.False(t, st.Running)
	require.Empty(t, st.LastError)
}

func TestRunner_RunOnceRecordsError(t *testing.T) {
	ev := progressionmocks.NewMockEvaluator(t)
	ev.On("EvaluateAndAdvance", mock.Anything).
		Return(progression.RunResult{}, errors.New("db down")).
		Once()

	r := progression.NewRunner(ev, "@every 1h", nil)
	_, err := r.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, r.Stats().LastError, "db down")
}

// overlapEvaluator фиксирует одновременные вызовы.
type overlapEvaluator struct {
	inFlight atomic.Int32
	overlaps atomic.Int32
	calls    atomic.Int32
}

func (e *overlapEvaluator) EvaluateAndAdvance(context.Context) (progression.RunResult, error) {
	if e.inFlight.Add(1) > 1 {
		e.overlaps.Add(1)
	}
	time.Sleep(5 * time.Millisecond)
	e.inFlight.Add(-1)
	e.calls.Add(1)
	return progression.RunResult{}, nil
}

func TestRunner_SingleRunInFlight(t *testing.T) {
	ev := &overlapEvaluator{}
	r := progression.NewRunner(ev, "", nil)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = r.RunOnce(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	require.EqualValues(t, 5, ev.calls.Load())
	require.Zero(t, ev.overlaps.Load())
}

func TestRunner_TriggerRunsImmediately(t *testing.T) {
	ev := &overlapEvaluator{}
	r := progression.NewRunner(ev, "@every 1h", nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	r.Trigger()
	require.Eventually(t, func() bool { return ev.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NotNil(t, r.Stats().LastTriggerAt)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_TriggerNonBlocking(t *testing.T) {
	r := progression.NewRunner(&overlapEvaluator{}, "", nil)
	for i := 0; i < 10; i++ {
		r.Trigger()
	}
}

func TestRunner_BadSchedule(t *testing.T) {
	r := progression.NewRunner(&overlapEvaluator{}, "every now and then", nil)
	err := r.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad progression schedule")
}
