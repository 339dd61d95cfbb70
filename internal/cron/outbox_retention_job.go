package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

const (
	outboxRetentionDays         = 14
	outboxTerminalRetentionDays = 30
	outboxPurgeBatch            = 500
	day                         = 24 * time.Hour
)

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
	DeleteTerminalBefore(tx *gorm.DB, cutoff time.Time, maxAttempts, limit int) (int64, error)
}

// OutboxRetentionJobParams configure outbox pruning. Zero values fall back
// to 14 days for published rows, 30 days for parked rows and batches of 500.
// MaxAttempts <= 0 leaves parked rows alone.
type OutboxRetentionJobParams struct {
	Logger            *logger.Logger
	DB                txRunner
	Repository        outboxRetentionRepo
	Retention         int
	TerminalRetention int
	MaxAttempts       int
	BatchSize         int
}

type outboxRetentionJob struct {
	logg              *logger.Logger
	db                txRunner
	repo              outboxRetentionRepo
	retention         time.Duration
	terminalRetention time.Duration
	maxAttempts       int
	batch             int
	now               func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("outbox retention: logger required")
	case params.DB == nil:
		return nil, errors.New("outbox retention: db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox retention: repository required")
	}
	return &outboxRetentionJob{
		logg:              params.Logger,
		db:                params.DB,
		repo:              params.Repository,
		retention:         time.Duration(orDefault(params.Retention, outboxRetentionDays)) * day,
		terminalRetention: time.Duration(orDefault(params.TerminalRetention, outboxTerminalRetentionDays)) * day,
		maxAttempts:       params.MaxAttempts,
		batch:             orDefault(params.BatchSize, outboxPurgeBatch),
		now:               time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes in short transactions until a batch comes back partial so a
// large backlog never holds one long lock on outbox_events.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	publishedCutoff := now.Add(-j.retention)

	published, err := j.drain(ctx, func(tx *gorm.DB) (int64, error) {
		return j.repo.DeletePublishedBefore(tx, publishedCutoff, j.batch)
	})
	if err != nil {
		return fmt.Errorf("purge published outbox rows: %w", err)
	}

	var parked int64
	if j.maxAttempts > 0 {
		terminalCutoff := now.Add(-j.terminalRetention)
		parked, err = j.drain(ctx, func(tx *gorm.DB) (int64, error) {
			return j.repo.DeleteTerminalBefore(tx, terminalCutoff, j.maxAttempts, j.batch)
		})
		if err != nil {
			return fmt.Errorf("purge parked outbox rows: %w", err)
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"published_cutoff": publishedCutoff,
		"published_purged": published,
		"parked_purged":    parked,
	}), "outbox retention finished")
	return nil
}

func (j *outboxRetentionJob) drain(ctx context.Context, step func(*gorm.DB) (int64, error)) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = step(tx)
			return err
		})
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(j.batch) {
			return total, nil
		}
	}
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
