package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/budget-premium/internal/migrations"
	"github.com/magabrotheeeer/budget-premium/internal/models"
	"github.com/magabrotheeeer/budget-premium/internal/storage"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *storage.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := storage.New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DB.Close() })

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, migrationsPath))

	return s
}

// TestDataFactory создаёт тестовые записи о покупках.
type TestDataFactory struct {
	storage *storage.Storage
}

func NewTestDataFactory(s *storage.Storage) *TestDataFactory {
	return &TestDataFactory{storage: s}
}

// CreatePurchase вставляет активную запись через CreatePurchase и возвращает её.
func (f *TestDataFactory) CreatePurchase(t *testing.T, userID string, purchaseType models.PurchaseType,
	purchaseDate time.Time, externalTxID *string) models.PurchaseRecord {
	t.Helper()
	rec := models.PurchaseRecord{
		ID:                    uuid.NewString(),
		UserID:                userID,
		PurchaseType:          purchaseType,
		PurchaseDate:          purchaseDate.UTC().Truncate(time.Microsecond),
		ExternalTransactionID: externalTxID,
		Status:                models.StatusActive,
	}
	rec.ExpiryDate = purchaseType.ExpiryFrom(rec.PurchaseDate)
	require.NoError(t, f.storage.CreatePurchase(context.Background(), rec))
	return rec
}

// StatusOf возвращает сохранённый статус записи.
func (f *TestDataFactory) StatusOf(t *testing.T, id string) models.PurchaseStatus {
	t.Helper()
	var status models.PurchaseStatus
	err := f.storage.DB.QueryRow(`SELECT status FROM premium_purchases WHERE id = $1`, id).Scan(&status)
	require.NoError(t, err)
	return status
}

// CountActive возвращает количество активных записей пользователя.
func (f *TestDataFactory) CountActive(t *testing.T, userID string) int {
	t.Helper()
	var count int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM premium_purchases
		WHERE user_id = $1 AND status = 'active'`, userID).Scan(&count)
	require.NoError(t, err)
	return count
}
