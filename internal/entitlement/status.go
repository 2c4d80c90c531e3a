// Package entitlement хранит статус премиум-доступа на устройстве и проводит
// через него все операции: активацию кода, покупку, сверку с сервером и отмену.
package entitlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/budget-premium/internal/models"
)

// Kind уровень доступа.
type Kind string

const (
	KindNone     Kind = "none"
	KindTrial    Kind = "trial"
	KindMonthly  Kind = "monthly"
	KindLifetime Kind = "lifetime"
	// KindExpired только результат Effective, в хранилище не записывается.
	KindExpired Kind = "expired"
)

// TrialPeriod длительность пробного периода при первом запуске.
const TrialPeriod = 14 * 24 * time.Hour

// ErrInvalidStatus нарушено правило: дата окончания есть ровно у trial, monthly и expired.
var ErrInvalidStatus = errors.New("invalid entitlement status")

// Status статус премиума на устройстве.
type Status struct {
	Kind                    Kind       `json:"kind"`
	EndDate                 *time.Time `json:"endDate"`
	HasExternalSubscription bool       `json:"hasExternalSubscription"`
}

// None статус без премиума.
func None() Status {
	return Status{Kind: KindNone}
}

// Trial пробный период от now.
func Trial(now time.Time) Status {
	return Status{Kind: KindTrial, EndDate: timePtr(now.Add(TrialPeriod))}
}

// Monthly месячный доступ до end.
func Monthly(end time.Time) Status {
	return Status{Kind: KindMonthly, EndDate: timePtr(end)}
}

// Lifetime бессрочный доступ.
func Lifetime() Status {
	return Status{Kind: KindLifetime}
}

// fromPurchase переводит тип покупки сервера в статус. Месячная покупка без даты
// окончания получает срок от now.
func fromPurchase(purchaseType models.PurchaseType, expiry *time.Time, now time.Time) (Status, error) {
	switch purchaseType {
	case models.PurchaseLifetime:
		return Lifetime(), nil
	case models.PurchaseMonthly:
		if expiry == nil {
			return Monthly(now.Add(models.MonthlyPeriod)), nil
		}
		return Monthly(*expiry), nil
	default:
		return Status{}, fmt.Errorf("%w: unknown purchase type %q", ErrInvalidStatus, purchaseType)
	}
}

// Validate проверяет согласованность kind и endDate.
func (s Status) Validate() error {
	switch s.Kind {
	case KindNone, KindLifetime:
		if s.EndDate != nil {
			return fmt.Errorf("%w: %s must not have endDate", ErrInvalidStatus, s.Kind)
		}
	case KindTrial, KindMonthly, KindExpired:
		if s.EndDate == nil {
			return fmt.Errorf("%w: %s requires endDate", ErrInvalidStatus, s.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStatus, s.Kind)
	}
	return nil
}

// Effective статус для отображения в момент now. Trial и Monthly с наступившей
// датой окончания показываются как expired, сам Status при этом не меняется.
func (s Status) Effective(now time.Time) Status {
	if (s.Kind == KindTrial || s.Kind == KindMonthly) && s.EndDate != nil && !now.Before(*s.EndDate) {
		s.Kind = KindExpired
	}
	return s
}

// IsPremium есть ли доступ к премиуму в момент now.
func (s Status) IsPremium(now time.Time) bool {
	switch s.Effective(now).Kind {
	case KindTrial, KindMonthly, KindLifetime:
		return true
	default:
		return false
	}
}

// normalize приводит время к UTC без монотонных показаний, чтобы статус
// после записи и чтения совпадал побитово.
func (s Status) normalize() Status {
	if s.EndDate != nil {
		s.EndDate = timePtr(*s.EndDate)
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	t = t.UTC().Round(0)
	return &t
}
