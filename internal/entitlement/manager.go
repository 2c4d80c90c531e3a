package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/lib/sl"
	"github.com/magabrotheeeer/budget-premium/internal/models"
	"github.com/magabrotheeeer/budget-premium/internal/premiumclient"
)

// Remote сервер премиум-доступа.
type Remote interface {
	VerifyCode(ctx context.Context, code string) premiumclient.Redemption
	Purchase(ctx context.Context, purchaseType models.PurchaseType, externalTransactionID *string) (*models.PurchaseInfo, error)
	Status(ctx context.Context) (models.PremiumStatus, error)
	Cancel(ctx context.Context) error
}

// Manager владеет статусом премиума устройства. Создается один раз в точке сборки
// приложения и передается потребителям явно. Операции выполняются последовательно.
type Manager struct {
	mu     sync.Mutex
	store  LocalStore
	remote Remote
	codes  FallbackCodes
	log    *slog.Logger
	now    func() time.Time
	status Status
}

// NewManager восстанавливает сохраненный статус как есть. При первом запуске
// выдается пробный период и сразу сохраняется.
func NewManager(store LocalStore, remote Remote, codes FallbackCodes, log *slog.Logger) (*Manager, error) {
	return newManager(store, remote, codes, log, time.Now)
}

func newManager(store LocalStore, remote Remote, codes FallbackCodes, log *slog.Logger, now func() time.Time) (*Manager, error) {
	const op = "entitlement.NewManager"

	m := &Manager{
		store:  store,
		remote: remote,
		codes:  codes,
		log:    log,
		now:    now,
	}

	status, found, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		m.status = status
		return m, nil
	}

	trial := Trial(now())
	if err := store.Save(trial); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("first run, trial started", slog.Time("end_date", *trial.EndDate))
	m.status = trial
	return m, nil
}

// Status сохраненный статус.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Effective статус для отображения в момент now.
func (m *Manager) Effective(now time.Time) Status {
	return m.Status().Effective(now)
}

// ApplyCode активирует код. Сначала спрашивается сервер; локальная таблица кодов
// используется только если сервер недоступен или нет сессии. Явный отказ сервера
// возвращает false без обращения к локальной таблице. Ошибка возвращается только
// если не удалось сохранить статус.
func (m *Manager) ApplyCode(ctx context.Context, code string) (bool, error) {
	const op = "entitlement.ApplyCode"
	log := m.log.With(slog.String("op", op))

	m.mu.Lock()
	defer m.mu.Unlock()

	code = NormalizeCode(code)
	if code == "" {
		return false, nil
	}

	redemption := m.redeem(ctx, code)
	switch redemption.Outcome {
	case premiumclient.OutcomeOK:
		next, err := fromPurchase(redemption.PremiumType, redemption.ExpiryDate, m.now())
		if err != nil {
			log.Error("server returned unusable redemption", sl.Err(err))
			return false, nil
		}
		if err := m.commit(next); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("code redeemed on server", slog.String("kind", string(next.Kind)))
		return true, nil

	case premiumclient.OutcomeRejected:
		log.Info("code rejected by server", sl.Err(redemption.Err))
		return false, nil

	default:
		log.Warn("server unreachable, checking local codes", sl.Err(redemption.Err))
		purchaseType, ok := m.codes.Resolve(code)
		if !ok {
			return false, nil
		}
		next, err := fromPurchase(purchaseType, nil, m.now())
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if err := m.commit(next); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("code redeemed locally", slog.String("kind", string(next.Kind)))
		return true, nil
	}
}

func (m *Manager) redeem(ctx context.Context, code string) premiumclient.Redemption {
	if m.remote == nil {
		return premiumclient.Redemption{
			Outcome: premiumclient.OutcomeTransportFailure,
			Err:     premiumclient.ErrNoSession,
		}
	}
	return m.remote.VerifyCode(ctx, code)
}

// Purchase записывает покупку на сервере и применяет ее локально. Локально покупку
// создать нельзя, поэтому любая ошибка сервера возвращается вызывающему.
func (m *Manager) Purchase(ctx context.Context, purchaseType models.PurchaseType, externalTransactionID *string) (Status, error) {
	const op = "entitlement.Purchase"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.remote == nil {
		return m.status, fmt.Errorf("%s: %w", op, premiumclient.ErrNoSession)
	}
	info, err := m.remote.Purchase(ctx, purchaseType, externalTransactionID)
	if err != nil {
		return m.status, fmt.Errorf("%s: %w", op, err)
	}

	next, err := fromPurchase(info.PurchaseType, info.ExpiryDate, m.now())
	if err != nil {
		return m.status, fmt.Errorf("%s: %w", op, err)
	}
	next.HasExternalSubscription = externalTransactionID != nil
	if err := m.commit(next); err != nil {
		return m.status, fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("purchase applied", slog.String("op", op), slog.String("purchase_id", info.ID))
	return next, nil
}

// FetchStatus сверяет статус с сервером. Ответ "не премиум" не затирает локальный
// статус (например, пробный период). Ошибки только логируются.
func (m *Manager) FetchStatus(ctx context.Context) Status {
	const op = "entitlement.FetchStatus"
	log := m.log.With(slog.String("op", op))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.remote == nil {
		return m.status
	}
	remote, err := m.remote.Status(ctx)
	if err != nil {
		log.Warn("failed to fetch premium status", sl.Err(err))
		return m.status
	}
	if !remote.IsPremium || remote.Type == models.PurchaseNone {
		log.Debug("server reports no premium, local status kept", slog.String("kind", string(m.status.Kind)))
		return m.status
	}

	next, err := fromPurchase(remote.Type, remote.ExpiryDate, m.now())
	if err != nil {
		log.Warn("server returned unusable status", sl.Err(err))
		return m.status
	}
	next.HasExternalSubscription = true
	if err := m.commit(next); err != nil {
		log.Error("failed to save fetched status", sl.Err(err))
		return m.status
	}
	return next
}

// Cancel отменяет премиум на сервере и сбрасывает локальный статус.
func (m *Manager) Cancel(ctx context.Context) error {
	const op = "entitlement.Cancel"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.remote == nil {
		return fmt.Errorf("%s: %w", op, premiumclient.ErrNoSession)
	}
	if err := m.remote.Cancel(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.commit(None()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// commit сохраняет статус и только после успешной записи делает его текущим.
func (m *Manager) commit(next Status) error {
	next = next.normalize()
	if err := m.store.Save(next); err != nil {
		return err
	}
	m.status = next
	return nil
}
