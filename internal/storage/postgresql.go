// Package storage реализует хранилище записей о покупках премиума на основе PostgreSQL.
// Записи никогда не удаляются: меняется только их статус.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/budget-premium/internal/models"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("purchase not found")
	// ErrTransactionExists внешний идентификатор транзакции уже записан.
	ErrTransactionExists = errors.New("external transaction already recorded")
	// ErrActiveConflict параллельная вставка активной записи для того же пользователя.
	ErrActiveConflict = errors.New("concurrent active purchase for user")
	// ErrLifetimeActive у пользователя активна бессрочная запись, месячная её не заменяет.
	ErrLifetimeActive = errors.New("lifetime purchase is active")
)

const (
	constraintExternalTx = "uq_premium_purchases_external_tx"
	constraintOneActive  = "uq_premium_purchases_one_active"
)

const purchaseColumns = `id, user_id, purchase_type, amount, currency, purchase_date,
	expiry_date, external_transaction_id, status`

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'premium_purchases'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: table premium_purchases missing")
	}
	return nil
}

// CreatePurchase переводит прежние активные записи пользователя в superseded
// и вставляет новую запись в одной транзакции. Активная lifetime запись месячной
// не заменяется: в этом случае возвращается ErrLifetimeActive.
func (s *Storage) CreatePurchase(ctx context.Context, rec models.PurchaseRecord) error {
	const op = "storage.CreatePurchase"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT purchase_type FROM premium_purchases
		WHERE user_id = $1 AND status = $2
		FOR UPDATE`, rec.UserID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	active, err := scanTypes(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rec.PurchaseType == models.PurchaseMonthly {
		for _, t := range active {
			if t == models.PurchaseLifetime {
				return fmt.Errorf("%s: %w", op, ErrLifetimeActive)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE premium_purchases SET status = $1
		WHERE user_id = $2 AND status = $3`,
		models.StatusSuperseded, rec.UserID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO premium_purchases (`+purchaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.UserID, rec.PurchaseType, rec.Amount, rec.Currency, rec.PurchaseDate,
		rec.ExpiryDate, rec.ExternalTransactionID, rec.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// LatestActive возвращает самую новую активную запись пользователя.
func (s *Storage) LatestActive(ctx context.Context, userID string) (*models.PurchaseRecord, error) {
	const op = "storage.LatestActive"

	row := s.DB.QueryRowContext(ctx, `SELECT `+purchaseColumns+`
		FROM premium_purchases
		WHERE user_id = $1 AND status = $2
		ORDER BY seq DESC
		LIMIT 1`, userID, models.StatusActive)

	rec, err := scanPurchase(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// FindByExternalTransactionID ищет запись по идентификатору транзакции магазина.
func (s *Storage) FindByExternalTransactionID(ctx context.Context, txID string) (*models.PurchaseRecord, error) {
	const op = "storage.FindByExternalTransactionID"

	row := s.DB.QueryRowContext(ctx, `SELECT `+purchaseColumns+`
		FROM premium_purchases WHERE external_transaction_id = $1`, txID)

	rec, err := scanPurchase(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// MarkExpired переводит активную запись в expired. Повторный вызов ничего не меняет
// и возвращает false.
func (s *Storage) MarkExpired(ctx context.Context, id string) (bool, error) {
	const op = "storage.MarkExpired"

	result, err := s.DB.ExecContext(ctx, `UPDATE premium_purchases SET status = $1
		WHERE id = $2 AND status = $3`,
		models.StatusExpired, id, models.StatusActive)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}

// CancelActive переводит все активные записи пользователя в cancelled
// и возвращает количество изменённых строк.
func (s *Storage) CancelActive(ctx context.Context, userID string) (int, error) {
	const op = "storage.CancelActive"

	result, err := s.DB.ExecContext(ctx, `UPDATE premium_purchases SET status = $1
		WHERE user_id = $2 AND status = $3`,
		models.StatusCancelled, userID, models.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ExpireStale переводит в expired все активные месячные записи, срок которых наступил к now,
// и возвращает их.
func (s *Storage) ExpireStale(ctx context.Context, now time.Time) ([]*models.PurchaseRecord, error) {
	const op = "storage.ExpireStale"

	rows, err := s.DB.QueryContext(ctx, `UPDATE premium_purchases SET status = $1
		WHERE status = $2 AND purchase_type = $3 AND expiry_date <= $4
		RETURNING `+purchaseColumns,
		models.StatusExpired, models.StatusActive, models.PurchaseMonthly, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanPurchases(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindExpiringBetween возвращает активные месячные записи со сроком в интервале (from, to].
func (s *Storage) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.PurchaseRecord, error) {
	const op = "storage.FindExpiringBetween"

	rows, err := s.DB.QueryContext(ctx, `SELECT `+purchaseColumns+`
		FROM premium_purchases
		WHERE status = $1 AND purchase_type = $2 AND expiry_date > $3 AND expiry_date <= $4
		ORDER BY expiry_date`,
		models.StatusActive, models.PurchaseMonthly, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := scanPurchases(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row scanner) (*models.PurchaseRecord, error) {
	var rec models.PurchaseRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.PurchaseType, &rec.Amount, &rec.Currency,
		&rec.PurchaseDate, &rec.ExpiryDate, &rec.ExternalTransactionID, &rec.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.PurchaseDate = rec.PurchaseDate.UTC()
	if rec.ExpiryDate != nil {
		expiry := rec.ExpiryDate.UTC()
		rec.ExpiryDate = &expiry
	}
	return &rec, nil
}

func scanPurchases(rows *sql.Rows) ([]*models.PurchaseRecord, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PurchaseRecord
	for rows.Next() {
		rec, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanTypes(rows *sql.Rows) ([]models.PurchaseType, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PurchaseType
	for rows.Next() {
		var t models.PurchaseType
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintExternalTx:
		return fmt.Errorf("%w: %s", ErrTransactionExists, pgErr.Message)
	case constraintOneActive:
		return fmt.Errorf("%w: %s", ErrActiveConflict, pgErr.Message)
	default:
		return err
	}
}
