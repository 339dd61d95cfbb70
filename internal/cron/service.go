package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/logger"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
)

const defaultInterval = time.Minute

// ServiceParams configure the cron service. JobTimeout bounds each run and
// should not exceed the lock TTL; zero leaves runs unbounded.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service ticks every Interval and runs each registered job under its lock.
// A failing job never stops the others.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("cron: logger required")
	case params.Lock == nil:
		return nil, errors.New("cron: lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run executes one cycle right away and then one per tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "cron service stopping")
			return err
		}
		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return
		}
		s.runExclusive(s.logg.WithField(ctx, "job", job.Name()), job)
	}
}

func (s *Service) runExclusive(ctx context.Context, job Job) {
	acquired, err := s.lock.Acquire(ctx, job.Name())
	switch {
	case err != nil:
		s.logg.Error(ctx, "cron lock unavailable, skipping job", err)
		s.metrics.Skipped(job.Name())
		return
	case !acquired:
		s.logg.Debug(ctx, "cron job held by another worker")
		s.metrics.Skipped(job.Name())
		return
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), job.Name()); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	started := time.Now()
	err = s.invoke(ctx, job)
	took := time.Since(started)
	s.metrics.Observe(job.Name(), took, err)

	ctx = s.logg.WithField(ctx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron job failed", err)
		return
	}
	s.logg.Info(ctx, "cron job finished")
}

// invoke runs job with the per-run timeout and turns a panic into an error.
func (s *Service) invoke(ctx context.Context, job Job) (err error) {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cron job %s panicked: %v", job.Name(), rec)
		}
	}()
	return job.Run(ctx)
}
