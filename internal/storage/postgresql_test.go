package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/budget-premium/internal/models"
	"github.com/magabrotheeeer/budget-premium/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestStorage(t *testing.T) {
	s := setupTestDatabase(t)
	factory := NewTestDataFactory(s)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create and read latest active", func(t *testing.T) {
		userID := uuid.NewString()
		rec := models.PurchaseRecord{
			ID:           uuid.NewString(),
			UserID:       userID,
			PurchaseType: models.PurchaseMonthly,
			Amount:       ptr(4.99),
			Currency:     ptr("USD"),
			PurchaseDate: now,
			ExpiryDate:   models.PurchaseMonthly.ExpiryFrom(now),
			Status:       models.StatusActive,
		}
		require.NoError(t, s.CreatePurchase(ctx, rec))

		got, err := s.LatestActive(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, models.PurchaseMonthly, got.PurchaseType)
		assert.True(t, rec.PurchaseDate.Equal(got.PurchaseDate))
		require.NotNil(t, got.ExpiryDate)
		assert.True(t, rec.ExpiryDate.Equal(*got.ExpiryDate))
		require.NotNil(t, got.Amount)
		assert.InDelta(t, 4.99, *got.Amount, 0.001)
		assert.Equal(t, "USD", *got.Currency)
		assert.Nil(t, got.ExternalTransactionID)
	})

	t.Run("latest active not found", func(t *testing.T) {
		_, err := s.LatestActive(ctx, uuid.NewString())
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("new purchase supersedes previous active", func(t *testing.T) {
		userID := uuid.NewString()
		first := factory.CreatePurchase(t, userID, models.PurchaseMonthly, now, nil)
		second := factory.CreatePurchase(t, userID, models.PurchaseLifetime, now.Add(time.Second), nil)

		assert.Equal(t, models.StatusSuperseded, factory.StatusOf(t, first.ID))
		assert.Equal(t, 1, factory.CountActive(t, userID))

		got, err := s.LatestActive(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("monthly does not replace active lifetime", func(t *testing.T) {
		userID := uuid.NewString()
		lifetime := factory.CreatePurchase(t, userID, models.PurchaseLifetime, now, nil)

		err := s.CreatePurchase(ctx, models.PurchaseRecord{
			ID:           uuid.NewString(),
			UserID:       userID,
			PurchaseType: models.PurchaseMonthly,
			PurchaseDate: now.Add(time.Second),
			ExpiryDate:   models.PurchaseMonthly.ExpiryFrom(now.Add(time.Second)),
			Status:       models.StatusActive,
		})
		require.ErrorIs(t, err, storage.ErrLifetimeActive)

		assert.Equal(t, models.StatusActive, factory.StatusOf(t, lifetime.ID))
		assert.Equal(t, 1, factory.CountActive(t, userID))
	})

	t.Run("duplicate external transaction", func(t *testing.T) {
		txID := "store-" + uuid.NewString()
		factory.CreatePurchase(t, uuid.NewString(), models.PurchaseMonthly, now, &txID)

		err := s.CreatePurchase(ctx, models.PurchaseRecord{
			ID:                    uuid.NewString(),
			UserID:                uuid.NewString(),
			PurchaseType:          models.PurchaseLifetime,
			PurchaseDate:          now,
			ExternalTransactionID: &txID,
			Status:                models.StatusActive,
		})
		require.ErrorIs(t, err, storage.ErrTransactionExists)

		got, err := s.FindByExternalTransactionID(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, txID, *got.ExternalTransactionID)
	})

	t.Run("mark expired is idempotent", func(t *testing.T) {
		rec := factory.CreatePurchase(t, uuid.NewString(), models.PurchaseMonthly, now.AddDate(0, 0, -40), nil)

		flipped, err := s.MarkExpired(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = s.MarkExpired(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, flipped)
		assert.Equal(t, models.StatusExpired, factory.StatusOf(t, rec.ID))
	})

	t.Run("cancel active", func(t *testing.T) {
		userID := uuid.NewString()
		rec := factory.CreatePurchase(t, userID, models.PurchaseLifetime, now, nil)

		n, err := s.CancelActive(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, models.StatusCancelled, factory.StatusOf(t, rec.ID))

		n, err = s.CancelActive(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("expire stale and find expiring", func(t *testing.T) {
		stale := factory.CreatePurchase(t, uuid.NewString(), models.PurchaseMonthly, now.AddDate(0, 0, -31), nil)
		soon := factory.CreatePurchase(t, uuid.NewString(), models.PurchaseMonthly, now.AddDate(0, 0, -29).Add(time.Hour), nil)
		lifetime := factory.CreatePurchase(t, uuid.NewString(), models.PurchaseLifetime, now.AddDate(-1, 0, 0), nil)

		expiring, err := s.FindExpiringBetween(ctx, now, now.Add(48*time.Hour))
		require.NoError(t, err)
		assert.True(t, containsID(expiring, soon.ID))
		assert.False(t, containsID(expiring, stale.ID))

		expired, err := s.ExpireStale(ctx, now)
		require.NoError(t, err)
		assert.True(t, containsID(expired, stale.ID))
		assert.False(t, containsID(expired, soon.ID))
		assert.False(t, containsID(expired, lifetime.ID))
		assert.Equal(t, models.StatusExpired, factory.StatusOf(t, stale.ID))
		assert.Equal(t, models.StatusActive, factory.StatusOf(t, lifetime.ID))
	})
}

func TestCheckDatabaseReady(t *testing.T) {
	s := setupTestDatabase(t)
	require.NoError(t, storage.CheckDatabaseReady(context.Background(), s))
}

func containsID(recs []*models.PurchaseRecord, id string) bool {
	for _, r := range recs {
		if r.ID == id {
			return true
		}
	}
	return false
}
