package premiumclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome итог обращения к серверу премиум-доступа.
type Outcome int

const (
	// OutcomeOK сервер выполнил запрос.
	OutcomeOK Outcome = iota
	// OutcomeRejected сервер доступен и явно отказал.
	OutcomeRejected
	// OutcomeTransportFailure сервер недоступен, сессии нет или сервер не смог ответить.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrNoSession у клиента нет сессионного токена.
var ErrNoSession = errors.New("no session token")

// Error ошибка обращения к серверу с классификацией.
type Error struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("premium api %s (status %d): %v", e.Outcome, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("premium api %s: %v", e.Outcome, e.Err)
	default:
		return fmt.Sprintf("premium api %s (status %d): %s", e.Outcome, e.StatusCode, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// OutcomeOf классифицирует ошибку, полученную от Client.
// Любая ошибка не типа *Error считается транспортной.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Outcome
	}
	return OutcomeTransportFailure
}

// classifyStatus 5xx, 401 и 403 означают, что сервер не вынес решения по запросу.
// Остальные 4xx это явный отказ.
func classifyStatus(code int) Outcome {
	switch {
	case code >= 200 && code < 300:
		return OutcomeOK
	case code >= 500, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return OutcomeTransportFailure
	default:
		return OutcomeRejected
	}
}
