package premium

import "errors"

var (
	// ErrInvalidPurchaseType тип покупки не lifetime и не monthly.
	ErrInvalidPurchaseType = errors.New("invalid purchase type")
	// ErrInvalidCode код не совпадает ни с одним известным.
	ErrInvalidCode = errors.New("invalid code")
	// ErrTransactionOwnedByOtherUser транзакция магазина уже записана на другого пользователя.
	ErrTransactionOwnedByOtherUser = errors.New("external transaction belongs to another user")
	// ErrConcurrentPurchase параллельная покупка того же пользователя, повторите запрос.
	ErrConcurrentPurchase = errors.New("concurrent purchase in progress")
	// ErrTransactionNotActive транзакция уже записана, но её запись отменена, заменена или истекла.
	ErrTransactionNotActive = errors.New("external transaction is no longer active")
	// ErrLifetimeActive у пользователя уже есть бессрочный премиум.
	ErrLifetimeActive = errors.New("lifetime premium already active")
)
