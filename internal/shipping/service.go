package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/belacosmetics/storefront-backend/internal/pricing"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const minNameLength = 2

type zoneRepository interface {
	List(ctx context.Context) ([]models.ShippingZone, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingZone, error)
	Create(ctx context.Context, zone *models.ShippingZone) error
	Update(ctx context.Context, zone *models.ShippingZone) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages shipping zones for the back office.
type Service interface {
	List(ctx context.Context) ([]models.ShippingZone, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ShippingZone, error)
	Create(ctx context.Context, input Input) (*models.ShippingZone, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.ShippingZone, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input carries the editable zone fields.
type Input struct {
	Name            string
	ZipCodeStart    string
	ZipCodeEnd      string
	BasePrice       decimal.Decimal
	PricePerKg      *decimal.Decimal
	FreeShippingMin *decimal.Decimal
	EstimatedDays   int
	IsActive        *bool
}

type service struct {
	repo zoneRepository
}

// NewService builds the shipping zone service.
func NewService(repo zoneRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping zone repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.ShippingZone, error) {
	zones, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping zones")
	}
	return zones, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ShippingZone, error) {
	zone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping zone not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping zone")
	}
	return zone, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.ShippingZone, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	zone := &models.ShippingZone{ID: uuid.New()}
	applyInput(zone, input)
	if err := s.repo.Create(ctx, zone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipping zone")
	}
	return zone, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.ShippingZone, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	zone, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(zone, input)
	if err := s.repo.Update(ctx, zone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping zone")
	}
	return zone, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shipping zone")
	}
	return nil
}

func applyInput(zone *models.ShippingZone, input Input) {
	zone.Name = input.Name
	zone.ZipCodeStart = input.ZipCodeStart
	zone.ZipCodeEnd = input.ZipCodeEnd
	zone.BasePrice = input.BasePrice
	zone.PricePerKg = decimal.Zero
	if input.PricePerKg != nil {
		zone.PricePerKg = *input.PricePerKg
	}
	zone.FreeShippingMin = decimal.NullDecimal{}
	if input.FreeShippingMin != nil {
		zone.FreeShippingMin = decimal.NewNullDecimal(*input.FreeShippingMin)
	}
	zone.EstimatedDays = input.EstimatedDays
	zone.IsActive = input.IsActive == nil || *input.IsActive
}

// validateInput normalizes name and CEPs in place.
func validateInput(input *Input) error {
	details := map[string]string{}

	input.Name = strings.TrimSpace(input.Name)
	if len([]rune(input.Name)) < minNameLength {
		details["name"] = fmt.Sprintf("must have at least %d characters", minNameLength)
	}

	start, startErr := pricing.NormalizePostalCode(input.ZipCodeStart)
	if startErr != nil {
		details["zip_code_start"] = "must have 1 to 8 digits"
	}
	end, endErr := pricing.NormalizePostalCode(input.ZipCodeEnd)
	if endErr != nil {
		details["zip_code_end"] = "must have 1 to 8 digits"
	}
	if startErr == nil && endErr == nil {
		input.ZipCodeStart, input.ZipCodeEnd = start, end
		if start > end {
			details["zip_code_end"] = "must not be lower than zip_code_start"
		}
	}

	if input.BasePrice.IsNegative() {
		details["base_price"] = "must not be negative"
	}
	if input.PricePerKg != nil && input.PricePerKg.IsNegative() {
		details["price_per_kg"] = "must not be negative"
	}
	if input.FreeShippingMin != nil && input.FreeShippingMin.IsNegative() {
		details["free_shipping_min"] = "must not be negative"
	}
	if input.EstimatedDays < 1 {
		details["estimated_days"] = "must be at least 1"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping zone").WithDetails(details)
	}
	return nil
}
