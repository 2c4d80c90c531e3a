package models

import "time"

// Ключи маршрутизации событий премиум-доступа.
const (
	EventPurchased = "premium.purchased"
	EventCancelled = "premium.cancelled"
	EventExpired   = "premium.expired"
	EventExpiring  = "premium.expiring"
)

// PremiumEvent сообщение об изменении премиум-доступа пользователя.
type PremiumEvent struct {
	Type         string       `json:"type"`
	UserID       string       `json:"user_id"`
	PurchaseID   string       `json:"purchase_id,omitempty"`
	PurchaseType PurchaseType `json:"purchase_type,omitempty"`
	ExpiryDate   *time.Time   `json:"expiry_date,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}
