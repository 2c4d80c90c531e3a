package models

import "time"

// PurchaseRequest тело запроса POST /api/premium/purchase.
type PurchaseRequest struct {
	PurchaseType          string   `json:"purchaseType" validate:"required,oneof=lifetime monthly"`
	ExternalTransactionID *string  `json:"externalTransactionId,omitempty" validate:"omitempty,min=1,max=255"`
	Amount                *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Currency              *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// PurchaseInfo описание созданной покупки в ответе.
type PurchaseInfo struct {
	ID           string       `json:"id"`
	PurchaseType PurchaseType `json:"purchaseType"`
	ExpiryDate   *time.Time   `json:"expiryDate"`
}

// PurchaseResponse ответ 201 на создание покупки.
type PurchaseResponse struct {
	Success  bool         `json:"success"`
	Purchase PurchaseInfo `json:"purchase"`
}

// PremiumStatus ответ GET /api/premium/status, также кешируется в redis.
type PremiumStatus struct {
	IsPremium  bool         `json:"isPremium"`
	Type       PurchaseType `json:"type"`
	ExpiryDate *time.Time   `json:"expiryDate"`
}

// NotPremium статус пользователя без активной покупки.
func NotPremium() PremiumStatus {
	return PremiumStatus{IsPremium: false, Type: PurchaseNone}
}

// VerifyCodeRequest тело запроса POST /api/premium/verify-code.
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// VerifyCodeResponse ответ на успешную активацию кода.
type VerifyCodeResponse struct {
	Success     bool         `json:"success"`
	PremiumType PurchaseType `json:"premiumType"`
	ExpiryDate  *time.Time   `json:"expiryDate"`
}

// SuccessResponse ответ DELETE /api/premium/cancel.
type SuccessResponse struct {
	Success bool `json:"success"`
}
