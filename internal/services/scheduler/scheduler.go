// Package scheduler периодически приводит хранилище в соответствие со сроками покупок:
// переводит истёкшие месячные записи в expired и рассылает напоминания
// о скором окончании доступа.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/cache"
	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/metrics"
	"github.com/magabrotheeeer/budget-premium/internal/models"
)

const runTimeout = time.Minute

// Repository методы хранилища, нужные планировщику.
type Repository interface {
	ExpireStale(ctx context.Context, now time.Time) ([]*models.PurchaseRecord, error)
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.PurchaseRecord, error)
}

// Invalidator удаляет закешированный статус пользователя.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует события премиум-доступа.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Service выполняет периодические проверки сроков. cache и publisher могут быть nil.
type Service struct {
	repo           Repository
	cache          Invalidator
	publisher      Publisher
	reminderWindow time.Duration
	log            *slog.Logger
	now            func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Invalidator, publisher Publisher, reminderWindow time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		cache:          cache,
		publisher:      publisher,
		reminderWindow: reminderWindow,
		log:            log,
		now:            time.Now,
	}
}

// RunExpirer выполняет ExpireStale сразу и затем каждые interval, пока не отменён ctx.
func (s *Service) RunExpirer(ctx context.Context, interval time.Duration) {
	s.loop(ctx, interval, s.ExpireStale)
}

// RunReminder выполняет RemindExpiring сразу и затем каждые interval, пока не отменён ctx.
func (s *Service) RunReminder(ctx context.Context, interval time.Duration) {
	s.loop(ctx, interval, s.RemindExpiring)
}

func (s *Service) loop(ctx context.Context, interval time.Duration, run func(ctx context.Context) int) {
	runOnce := func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		run(runCtx)
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// ExpireStale переводит истёкшие записи в expired и возвращает их количество.
// Это то же идемпотентное обновление, что выполняет чтение статуса.
func (s *Service) ExpireStale(ctx context.Context) int {
	const op = "services.scheduler.ExpireStale"
	log := s.log.With(slog.String("op", op))
	now := s.now()

	expired, err := s.repo.ExpireStale(ctx, now)
	if err != nil {
		log.Error("failed to expire stale purchases", sl.Err(err))
		return 0
	}
	if len(expired) == 0 {
		log.Debug("no stale purchases found")
		return 0
	}

	metrics.ExpiredFlips.WithLabelValues("sweep").Add(float64(len(expired)))
	log.Info("expired stale purchases", slog.Int("count", len(expired)))
	for _, rec := range expired {
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, cache.StatusKey(rec.UserID)); err != nil {
				log.Warn("failed to invalidate status cache", slog.String("user_id", rec.UserID), sl.Err(err))
			}
		}
		s.publish(ctx, models.EventExpired, rec, now)
	}
	return len(expired)
}

// RemindExpiring публикует напоминания по месячным записям, истекающим в ближайшее окно.
func (s *Service) RemindExpiring(ctx context.Context) int {
	const op = "services.scheduler.RemindExpiring"
	log := s.log.With(slog.String("op", op))
	now := s.now()

	expiring, err := s.repo.FindExpiringBetween(ctx, now, now.Add(s.reminderWindow))
	if err != nil {
		log.Error("failed to find expiring purchases", sl.Err(err))
		return 0
	}
	if len(expiring) == 0 {
		log.Debug("no expiring purchases found")
		return 0
	}

	log.Info("found expiring purchases", slog.Int("count", len(expiring)))
	for _, rec := range expiring {
		s.publish(ctx, models.EventExpiring, rec, now)
	}
	return len(expiring)
}

func (s *Service) publish(ctx context.Context, eventType string, rec *models.PurchaseRecord, now time.Time) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, eventType, models.PremiumEvent{
		Type:         eventType,
		UserID:       rec.UserID,
		PurchaseID:   rec.ID,
		PurchaseType: rec.PurchaseType,
		ExpiryDate:   rec.ExpiryDate,
		OccurredAt:   now.UTC(),
	})
	if err != nil {
		s.log.Error("failed to publish message", slog.String("event", eventType), sl.Err(err))
	}
}
