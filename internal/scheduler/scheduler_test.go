package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubLifecycle struct {
	calls   atomic.Int32
	changed int
	err     error
}

func (s *stubLifecycle) AdvanceStatuses(ctx context.Context, now time.Time) (int, error) {
	s.calls.Add(1)
	return s.changed, s.err
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("not a schedule", &stubLifecycle{}, nil)
	assert.Error(t, err)
}

func TestRunCohortLifecycle_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	stub := &stubLifecycle{changed: 2, err: errors.New("db down")}

	changed := RunCohortLifecycle(context.Background(), stub, zap.New(core))

	assert.Equal(t, 2, changed)
	assert.Equal(t, int32(1), stub.calls.Load())
	require.Equal(t, 1, logs.FilterMessage("Cohort lifecycle job failed").Len())
}

func TestScheduler_RunsJob(t *testing.T) {
	stub := &stubLifecycle{}
	s, err := New("@every 1s", stub, nil)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return stub.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
