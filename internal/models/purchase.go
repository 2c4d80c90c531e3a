// Package models содержит доменные структуры премиум-доступа: записи о покупках,
// статус премиума пользователя и события изменения доступа.
package models

import "time"

// PurchaseType тип покупки премиума.
type PurchaseType string

const (
	// PurchaseLifetime бессрочный доступ.
	PurchaseLifetime PurchaseType = "lifetime"
	// PurchaseMonthly доступ на MonthlyPeriod с момента покупки.
	PurchaseMonthly PurchaseType = "monthly"
)

// PurchaseNone используется в ответе статуса, когда премиума нет.
const PurchaseNone PurchaseType = "none"

// MonthlyPeriod срок действия месячной покупки.
const MonthlyPeriod = 30 * 24 * time.Hour

// Valid сообщает, является ли тип одним из покупаемых.
func (t PurchaseType) Valid() bool {
	return t == PurchaseLifetime || t == PurchaseMonthly
}

// ExpiryFrom вычисляет дату окончания для покупки, совершённой в момент purchaseDate.
// Для lifetime возвращает nil.
func (t PurchaseType) ExpiryFrom(purchaseDate time.Time) *time.Time {
	if t != PurchaseMonthly {
		return nil
	}
	expiry := purchaseDate.Add(MonthlyPeriod)
	return &expiry
}

// PurchaseStatus состояние записи о покупке.
type PurchaseStatus string

const (
	StatusActive    PurchaseStatus = "active"
	StatusExpired   PurchaseStatus = "expired"
	StatusCancelled PurchaseStatus = "cancelled"
	// StatusSuperseded запись заменена более новой покупкой того же пользователя.
	StatusSuperseded PurchaseStatus = "superseded"
)

// PurchaseRecord одна строка о покупке или активации кода. Записи никогда не удаляются.
type PurchaseRecord struct {
	ID                    string         // Уникальный идентификатор (uuid)
	UserID                string         // Владелец записи
	PurchaseType          PurchaseType   // lifetime или monthly
	Amount                *float64       // Сумма, только для информации
	Currency              *string        // Валюта, только для информации
	PurchaseDate          time.Time      // Время создания по часам сервера
	ExpiryDate            *time.Time     // nil для lifetime
	ExternalTransactionID *string        // Ключ идемпотентности покупок из магазина приложений
	Status                PurchaseStatus // active, expired, cancelled или superseded
}

// ExpiredAt сообщает, истёк ли срок записи к моменту now.
func (p PurchaseRecord) ExpiredAt(now time.Time) bool {
	return p.ExpiryDate != nil && !now.Before(*p.ExpiryDate)
}

// NewPurchase параметры создания покупки, уже прошедшие валидацию.
type NewPurchase struct {
	PurchaseType          PurchaseType
	ExternalTransactionID *string
	Amount                *float64
	Currency              *string
}
