package payments

import (
	"context"
	"testing"
	"time"

	"github.com/belacosmetics/storefront-backend/pkg/db/dbtest"
	"github.com/belacosmetics/storefront-backend/pkg/db/models"
	"github.com/belacosmetics/storefront-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryFindAndLockByExternalID(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	_, payment := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "mp-1"})

	found, err := repo.FindByExternalID(ctx, "mp-1")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)

	err = conn.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).LockByExternalID(ctx, "mp-1")
		if err != nil {
			return err
		}
		assert.Equal(t, payment.OrderID, locked.OrderID)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.FindByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStatusSetsAndClearsPaidAt(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	order, payment := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, ExternalID: "mp-2"})

	paidAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusPaid, &paidAt))

	reloaded, err := repo.FindByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.Status)
	require.NotNil(t, reloaded.PaidAt)
	assert.True(t, paidAt.Equal(*reloaded.PaidAt))

	require.NoError(t, repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusRefunded, nil))
	reloaded, err = repo.FindByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, reloaded.Status)
	assert.Nil(t, reloaded.PaidAt)
}

func TestRepositoryListExpiredOpen(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	setPix := func(p *models.Payment, expires time.Time) {
		require.NoError(t, conn.Model(&models.Payment{}).Where("id = ?", p.ID).Update("pix_expires_at", expires).Error)
	}
	setBoleto := func(p *models.Payment, due time.Time) {
		require.NoError(t, conn.Model(&models.Payment{}).Where("id = ?", p.ID).Update("boleto_due_date", due).Error)
	}

	_, expiredPix := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, PaymentMethod: enums.PaymentMethodPix, CreatedAt: now.Add(-2 * time.Hour)})
	setPix(expiredPix, now.Add(-time.Minute))

	_, livePix := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, PaymentMethod: enums.PaymentMethodPix})
	setPix(livePix, now.Add(time.Minute))

	_, oldBoleto := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusProcessing, PaymentMethod: enums.PaymentMethodBoleto, CreatedAt: now.Add(-time.Hour)})
	setBoleto(oldBoleto, now.Add(-96*time.Hour))

	_, graceBoleto := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, PaymentMethod: enums.PaymentMethodBoleto})
	setBoleto(graceBoleto, now.Add(-24*time.Hour))

	_, staleCard := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{PaymentStatus: enums.PaymentStatusPending, PaymentMethod: enums.PaymentMethodCreditCard, CreatedAt: now.Add(-3 * time.Hour)})

	_, paidPix := dbtest.SeedOrder(t, conn, dbtest.OrderFixture{Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid, PaymentMethod: enums.PaymentMethodPix})
	setPix(paidPix, now.Add(-time.Hour))

	got, err := repo.ListExpiredOpen(ctx, ExpiryCutoffs{
		Now:               now,
		BoletoDueBefore:   now.Add(-72 * time.Hour),
		CardCreatedBefore: now.Add(-30 * time.Minute),
	}, 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID.String())
	}
	assert.ElementsMatch(t, []string{expiredPix.ID.String(), oldBoleto.ID.String(), staleCard.ID.String()}, ids)
}
