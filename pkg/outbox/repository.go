package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/belacosmetics/storefront-backend/pkg/db"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish claims a batch of pending rows. Concurrent publishers skip locked rows.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	query := dbpkg.SkipLocked(tx).
		Where("published_at IS NULL")
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx parks a row at the attempt ceiling so it is never fetched again.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": terminalAttempts,
		}).Error
}

// DeletePublishedBefore removes up to limit rows published before cutoff,
// oldest first. limit <= 0 removes every match.
func (r *Repository) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	return r.purge(tx, limit, "published_at", func(q *gorm.DB) *gorm.DB {
		return q.Where("published_at IS NOT NULL AND published_at < ?", cutoff)
	})
}

// DeleteTerminalBefore removes up to limit rows that were parked at the
// attempt ceiling and created before cutoff.
func (r *Repository) DeleteTerminalBefore(tx *gorm.DB, cutoff time.Time, maxAttempts, limit int) (int64, error) {
	if maxAttempts <= 0 {
		return 0, errors.New("max attempts must be positive")
	}
	return r.purge(tx, limit, "created_at", func(q *gorm.DB) *gorm.DB {
		return q.Where("published_at IS NULL AND attempt_count >= ? AND created_at < ?", maxAttempts, cutoff)
	})
}

func (r *Repository) purge(tx *gorm.DB, limit int, orderBy string, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	if limit <= 0 {
		res := scope(conn).Delete(&models.OutboxEvent{})
		return res.RowsAffected, res.Error
	}
	ids := scope(conn.Model(&models.OutboxEvent{})).
		Select("id").
		Order(orderBy + " ASC").
		Limit(limit)
	res := conn.Where("id IN (?)", ids).Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}
