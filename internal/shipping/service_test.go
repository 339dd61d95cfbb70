package shipping

import (
	"context"
	"testing"

	"github.com/belacosmetics/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/belacosmetics/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func zoneInput(name, start, end string) Input {
	return Input{
		Name:          name,
		ZipCodeStart:  start,
		ZipCodeEnd:    end,
		BasePrice:     decimal.RequireFromString("19.90"),
		EstimatedDays: 5,
	}
}

func TestServiceCreateNormalizesZone(t *testing.T) {
	svc, _ := newTestService(t)

	zone, err := svc.Create(context.Background(), zoneInput(" Capital SP ", "01000-000", "05999-999"))
	require.NoError(t, err)
	assert.Equal(t, "Capital SP", zone.Name)
	assert.Equal(t, "01000000", zone.ZipCodeStart)
	assert.Equal(t, "05999999", zone.ZipCodeEnd)
	assert.True(t, zone.PricePerKg.IsZero())
	assert.False(t, zone.FreeShippingMin.Valid)
	assert.True(t, zone.IsActive)
}

func TestServiceCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	negative := decimal.NewFromInt(-1)

	cases := []struct {
		name  string
		mut   func(*Input)
		field string
	}{
		{"short name", func(in *Input) { in.Name = "A" }, "name"},
		{"bad start", func(in *Input) { in.ZipCodeStart = "abc" }, "zip_code_start"},
		{"bad end", func(in *Input) { in.ZipCodeEnd = "123456789" }, "zip_code_end"},
		{"reversed range", func(in *Input) { in.ZipCodeStart = "09000000"; in.ZipCodeEnd = "01000000" }, "zip_code_end"},
		{"negative base", func(in *Input) { in.BasePrice = negative }, "base_price"},
		{"negative per kg", func(in *Input) { in.PricePerKg = &negative }, "price_per_kg"},
		{"negative free minimum", func(in *Input) { in.FreeShippingMin = &negative }, "free_shipping_min"},
		{"zero days", func(in *Input) { in.EstimatedDays = 0 }, "estimated_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := zoneInput("Sul", "80000000", "99999999")
			tc.mut(&input)
			_, err := svc.Create(context.Background(), input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Details(), tc.field)
		})
	}
}

func TestRepositoryListActiveOrdersByRangeStart(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	inactive := false

	_, err := svc.Create(ctx, zoneInput("Sul", "80000000", "99999999"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, zoneInput("Capital", "01000000", "05999999"))
	require.NoError(t, err)
	hidden := zoneInput("Norte", "60000000", "69999999")
	hidden.IsActive = &inactive
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Capital", active[0].Name)
	assert.Equal(t, "Sul", active[1].Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	zone, err := svc.Create(ctx, zoneInput("Capital", "01000000", "05999999"))
	require.NoError(t, err)

	minimum := decimal.NewFromInt(199)
	input := zoneInput("Capital SP", "01000000", "05999999")
	input.FreeShippingMin = &minimum
	updated, err := svc.Update(ctx, zone.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Capital SP", updated.Name)

	reloaded, err := svc.Get(ctx, zone.ID)
	require.NoError(t, err)
	require.True(t, reloaded.FreeShippingMin.Valid)
	assert.True(t, minimum.Equal(reloaded.FreeShippingMin.Decimal))

	require.NoError(t, svc.Delete(ctx, zone.ID))
	_, err = svc.Get(ctx, zone.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
