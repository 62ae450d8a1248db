package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_InvokesJobOnInterval(t *testing.T) {
	var runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}, testLogger())

	go r.Start(ctx)

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_RunOnStart(t *testing.T) {
	var runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner("test", time.Hour, func(ctx context.Context) {
		runs.Add(1)
	}, testLogger(), WithRunOnStart())

	go r.Start(ctx)

	assert.Eventually(t, func() bool {
		return runs.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	var runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())

	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}, testLogger())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_SurvivesPanickingJob(t *testing.T) {
	var runs atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
		panic("job blew up")
	}, testLogger())

	go r.Start(ctx)

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}
