// Package premium содержит бизнес-логику премиум-доступа: покупки, активацию кодов,
// получение статуса с ленивым истечением и отмену.
package premium

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/budget-premium/internal/cache"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/metrics"
	"github.com/magabrotheeeer/budget-premium/internal/models"
	"github.com/magabrotheeeer/budget-premium/internal/storage"
)

// Repository определяет методы работы с записями о покупках.
type Repository interface {
	CreatePurchase(ctx context.Context, rec models.PurchaseRecord) error
	LatestActive(ctx context.Context, userID string) (*models.PurchaseRecord, error)
	FindByExternalTransactionID(ctx context.Context, txID string) (*models.PurchaseRecord, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	CancelActive(ctx context.Context, userID string) (int, error)
}

// Cache описывает кеш статуса.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	SetIfGeneration(ctx context.Context, key string, gen int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует события премиум-доступа.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Codes общие секреты кодов активации.
type Codes struct {
	Monthly  string
	Lifetime string
}

// Resolve сравнивает код с известными секретами точно, с учётом регистра.
func (c Codes) Resolve(code string) (models.PurchaseType, bool) {
	switch {
	case equal(code, c.Lifetime):
		return models.PurchaseLifetime, true
	case equal(code, c.Monthly):
		return models.PurchaseMonthly, true
	default:
		return "", false
	}
}

func equal(code, secret string) bool {
	return secret != "" && subtle.ConstantTimeCompare([]byte(code), []byte(secret)) == 1
}

// Service реализует правила премиум-доступа поверх хранилища.
// cache и publisher могут быть nil.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	codes     Codes
	statusTTL time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, publisher Publisher, codes Codes, statusTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		codes:     codes,
		statusTTL: statusTTL,
		log:       log,
		now:       time.Now,
	}
}

// CreatePurchase записывает покупку. Повторный запрос с тем же внешним идентификатором
// транзакции от того же пользователя возвращает уже существующую запись, если она
// всё ещё действует, и ErrTransactionNotActive в противном случае.
func (s *Service) CreatePurchase(ctx context.Context, userID string, req models.NewPurchase) (*models.PurchaseRecord, error) {
	const op = "services.premium.CreatePurchase"

	if !req.PurchaseType.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidPurchaseType, req.PurchaseType)
	}

	if req.ExternalTransactionID != nil {
		existing, err := s.existingTransaction(ctx, userID, *req.ExternalTransactionID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if existing != nil {
			s.log.Info("external transaction already recorded",
				slog.String("op", op), slog.String("purchase_id", existing.ID))
			return s.replay(op, existing)
		}
	}

	rec := s.newRecord(userID, req)
	err := s.insert(ctx, rec, "purchase")
	if errors.Is(err, storage.ErrTransactionExists) && req.ExternalTransactionID != nil {
		existing, lookupErr := s.existingTransaction(ctx, userID, *req.ExternalTransactionID)
		if lookupErr != nil {
			return nil, fmt.Errorf("%s: %w", op, lookupErr)
		}
		if existing != nil {
			return s.replay(op, existing)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// VerifyCode активирует премиум по коду и создает активную запись.
// Месячный код не заменяет действующий бессрочный премиум: тогда возвращается
// существующая lifetime запись.
func (s *Service) VerifyCode(ctx context.Context, userID, code string) (*models.PurchaseRecord, error) {
	const op = "services.premium.VerifyCode"

	purchaseType, ok := s.codes.Resolve(code)
	if !ok {
		metrics.CodeRedemptions.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCode)
	}
	metrics.CodeRedemptions.WithLabelValues("accepted").Inc()

	rec := s.newRecord(userID, models.NewPurchase{PurchaseType: purchaseType})
	err := s.insert(ctx, rec, "code")
	if errors.Is(err, ErrLifetimeActive) {
		current, lookupErr := s.repo.LatestActive(ctx, userID)
		if lookupErr != nil {
			return nil, fmt.Errorf("%s: %w", op, lookupErr)
		}
		s.log.Info("lifetime premium already active, code not applied",
			slog.String("op", op), slog.String("purchase_id", current.ID))
		return current, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// GetStatus возвращает текущий статус премиума пользователя.
//
// Если самая новая активная запись истекла, она переводится в expired прямо
// во время чтения. Перевод идемпотентен, а ошибка перевода только логируется:
// ответ в этом случае всё равно "не премиум".
//
// Поколение ключа кеша читается до обращения к базе, и ответ кешируется только
// если за это время ключ никто не инвалидировал.
func (s *Service) GetStatus(ctx context.Context, userID string) (models.PremiumStatus, error) {
	const op = "services.premium.GetStatus"
	log := s.log.With(slog.String("op", op))
	now := s.now()
	key := cache.StatusKey(userID)

	if cached, ok := s.cachedStatus(ctx, key, now); ok {
		return cached, nil
	}
	gen, cacheable := s.generation(ctx, key)
	store := func(status models.PremiumStatus, ttl time.Duration) {
		if cacheable {
			s.storeStatus(ctx, key, gen, status, ttl)
		}
	}

	rec, err := s.repo.LatestActive(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		status := models.NotPremium()
		store(status, s.statusTTL)
		return status, nil
	}
	if err != nil {
		return models.PremiumStatus{}, fmt.Errorf("%s: %w", op, err)
	}

	if rec.ExpiredAt(now) {
		flipped, err := s.repo.MarkExpired(ctx, rec.ID)
		if err != nil {
			log.Warn("failed to mark purchase expired", slog.String("purchase_id", rec.ID), sl.Err(err))
		}
		if flipped {
			metrics.ExpiredFlips.WithLabelValues("read").Inc()
			log.Info("purchase expired on read", slog.String("purchase_id", rec.ID))
			s.publish(ctx, models.EventExpired, rec)
		}
		status := models.NotPremium()
		store(status, s.statusTTL)
		return status, nil
	}

	status := models.PremiumStatus{
		IsPremium:  true,
		Type:       rec.PurchaseType,
		ExpiryDate: rec.ExpiryDate,
	}
	ttl := s.statusTTL
	if rec.ExpiryDate != nil {
		if left := rec.ExpiryDate.Sub(now); left < ttl {
			ttl = left
		}
	}
	store(status, ttl)
	return status, nil
}

// CancelSubscription переводит все активные записи пользователя в cancelled.
// Отсутствие активных записей не является ошибкой.
func (s *Service) CancelSubscription(ctx context.Context, userID string) error {
	const op = "services.premium.CancelSubscription"

	n, err := s.repo.CancelActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, cache.StatusKey(userID))

	if n == 0 {
		metrics.Cancellations.WithLabelValues("false").Inc()
		return nil
	}
	metrics.Cancellations.WithLabelValues("true").Inc()
	s.log.Info("cancelled active purchases", slog.String("op", op), slog.Int("count", n))
	s.publish(ctx, models.EventCancelled, &models.PurchaseRecord{UserID: userID})
	return nil
}

func (s *Service) newRecord(userID string, req models.NewPurchase) models.PurchaseRecord {
	purchaseDate := s.now().UTC().Truncate(time.Microsecond)
	return models.PurchaseRecord{
		ID:                    uuid.NewString(),
		UserID:                userID,
		PurchaseType:          req.PurchaseType,
		Amount:                req.Amount,
		Currency:              req.Currency,
		PurchaseDate:          purchaseDate,
		ExpiryDate:            req.PurchaseType.ExpiryFrom(purchaseDate),
		ExternalTransactionID: req.ExternalTransactionID,
		Status:                models.StatusActive,
	}
}

func (s *Service) insert(ctx context.Context, rec models.PurchaseRecord, source string) error {
	err := s.repo.CreatePurchase(ctx, rec)
	if errors.Is(err, storage.ErrActiveConflict) {
		return fmt.Errorf("%w: %w", ErrConcurrentPurchase, err)
	}
	if errors.Is(err, storage.ErrLifetimeActive) {
		return fmt.Errorf("%w: %w", ErrLifetimeActive, err)
	}
	if err != nil {
		return err
	}

	metrics.PurchasesCreated.WithLabelValues(string(rec.PurchaseType), source).Inc()
	s.log.Info("created purchase record",
		slog.String("purchase_id", rec.ID),
		slog.String("type", string(rec.PurchaseType)),
		slog.String("source", source))

	s.invalidate(ctx, cache.StatusKey(rec.UserID))
	s.publish(ctx, models.EventPurchased, &rec)
	return nil
}

// existingTransaction возвращает запись этого пользователя с тем же внешним идентификатором,
// nil если такой нет, или ошибку если запись принадлежит другому пользователю.
func (s *Service) existingTransaction(ctx context.Context, userID, txID string) (*models.PurchaseRecord, error) {
	rec, err := s.repo.FindByExternalTransactionID(ctx, txID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrTransactionOwnedByOtherUser
	}
	return rec, nil
}

// replay отдаёт запись повторной транзакции, только пока она действует.
func (s *Service) replay(op string, rec *models.PurchaseRecord) (*models.PurchaseRecord, error) {
	if rec.Status != models.StatusActive || rec.ExpiredAt(s.now()) {
		return nil, fmt.Errorf("%s: %w: status %s", op, ErrTransactionNotActive, rec.Status)
	}
	return rec, nil
}

func (s *Service) cachedStatus(ctx context.Context, key string, now time.Time) (models.PremiumStatus, bool) {
	if s.cache == nil {
		return models.PremiumStatus{}, false
	}
	var status models.PremiumStatus
	found, err := s.cache.Get(ctx, key, &status)
	if err != nil {
		s.log.Warn("failed to read status from cache", slog.String("key", key), sl.Err(err))
		return models.PremiumStatus{}, false
	}
	if !found || (status.ExpiryDate != nil && !now.Before(*status.ExpiryDate)) {
		metrics.StatusCache.WithLabelValues("miss").Inc()
		return models.PremiumStatus{}, false
	}
	metrics.StatusCache.WithLabelValues("hit").Inc()
	return status, true
}

func (s *Service) generation(ctx context.Context, key string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, key)
	if err != nil {
		s.log.Warn("failed to read cache generation", slog.String("key", key), sl.Err(err))
		return 0, false
	}
	return gen, true
}

func (s *Service) storeStatus(ctx context.Context, key string, gen int64, status models.PremiumStatus, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored, err := s.cache.SetIfGeneration(ctx, key, gen, status, ttl)
	if err != nil {
		s.log.Warn("failed to cache status", slog.String("key", key), sl.Err(err))
		return
	}
	if !stored {
		s.log.Debug("status changed while reading, not cached", slog.String("key", key))
	}
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, rec *models.PurchaseRecord) {
	if s.publisher == nil {
		return
	}
	event := models.PremiumEvent{
		Type:         eventType,
		UserID:       rec.UserID,
		PurchaseID:   rec.ID,
		PurchaseType: rec.PurchaseType,
		ExpiryDate:   rec.ExpiryDate,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, eventType, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("event", eventType), sl.Err(err))
	}
}
