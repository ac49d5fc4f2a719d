package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arzan03/SchoolDesk/internal/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls    atomic.Int32
	err      error
	deadline bool
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int, error) {
	f.calls.Add(1)
	_, f.deadline = ctx.Deadline()
	return 2, f.err
}

func TestAddSweep(t *testing.T) {
	s := New(logger.Discard())

	require.NoError(t, s.AddSweep("exports", "@hourly", &fakeSweeper{}, time.Minute))
	assert.Equal(t, 1, s.Jobs())

	err := s.AddSweep("exports", "not a schedule", &fakeSweeper{}, time.Minute)
	assert.Error(t, err)
	assert.Equal(t, 1, s.Jobs())
}

func TestSweepJob(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s := New(log)

	ok := &fakeSweeper{}
	s.sweepJob("exports", ok, time.Minute)()
	assert.EqualValues(t, 1, ok.calls.Load())
	assert.True(t, ok.deadline)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "job finished", hook.LastEntry().Message)

	failing := &fakeSweeper{err: errors.New("bucket gone")}
	s.sweepJob("exports", failing, time.Minute)()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "exports", hook.LastEntry().Data["job"])
}

func TestStartStop(t *testing.T) {
	s := New(logger.Discard())
	sw := &fakeSweeper{}
	require.NoError(t, s.AddSweep("exports", "@every 1s", sw, time.Second))

	s.Start()
	assert.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
