package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
)

type fakeLock struct {
	held     map[string]bool
	released []string
	err      error
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]bool{}}
}

func (f *fakeLock) Acquire(_ context.Context, job string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held[job] {
		return false, nil
	}
	f.held[job] = true
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, job string) error {
	delete(f.held, job)
	f.released = append(f.released, job)
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := newFakeLock()
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(success, failure),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.runCycle(context.Background())

	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}
	if len(lock.released) != 2 {
		t.Fatalf("expected both locks released, got %v", lock.released)
	}
	if len(lock.held) != 0 {
		t.Fatalf("expected no held locks, got %v", lock.held)
	}
}

func TestServiceRunCycleSkipsLockedJob(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	busy := &testJob{name: "busy"}
	free := &testJob{name: "free"}
	lock := newFakeLock()
	lock.held["busy"] = true

	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(busy, free),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.runCycle(context.Background())

	if busy.runs != 0 {
		t.Fatalf("expected locked job to be skipped, ran %d", busy.runs)
	}
	if free.runs != 1 {
		t.Fatalf("expected free job to run once, ran %d", free.runs)
	}
	if !lock.held["busy"] {
		t.Fatal("skipped job must not release a lock it does not own")
	}
}

func TestServiceRunCycleSkipsOnLockError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job := &testJob{name: "job"}
	lock := newFakeLock()
	lock.err = errors.New("redis down")

	service, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(job), Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	service.runCycle(context.Background())

	if job.runs != 0 {
		t.Fatalf("expected job not to run, ran %d", job.runs)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(job), Lock: newFakeLock()})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs after cancel, got %d", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"})}); err == nil {
		t.Fatal("expected error without lock")
	}
}

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (f funcJob) Name() string                  { return f.name }
func (f funcJob) Run(ctx context.Context) error { return f.fn(ctx) }

func TestServiceRecoversPanickingJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	after := &testJob{name: "after"}
	lock := newFakeLock()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(funcJob{name: "panics", fn: func(context.Context) error { panic("boom") }}, after),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	service.runCycle(context.Background())

	assert.Equal(t, 1, after.runs)
	assert.ElementsMatch(t, []string{"panics", "after"}, lock.released)
}

func TestServiceBoundsJobsByTimeout(t *testing.T) {
	var deadlineSet bool
	job := funcJob{name: "slow", fn: func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	}}
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry:   NewRegistry(job),
		Lock:       newFakeLock(),
		JobTimeout: time.Minute,
	})
	require.NoError(t, err)

	service.runCycle(context.Background())

	assert.True(t, deadlineSet)
}
