package shipping

import (
	"context"

	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists shipping zones.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a shipping zone repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the active zones ordered by range start, the order
// pricing uses to pick the first covering zone.
func (r *Repository) ListActive(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("zip_code_start ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *Repository) List(ctx context.Context) ([]models.ShippingZone, error) {
	var zones []models.ShippingZone
	if err := r.db.WithContext(ctx).Order("zip_code_start ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingZone, error) {
	var zone models.ShippingZone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *Repository) Create(ctx context.Context, zone *models.ShippingZone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

func (r *Repository) Update(ctx context.Context, zone *models.ShippingZone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ShippingZone{}).Error
}
