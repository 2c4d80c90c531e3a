package entitlement

import (
	"strings"

	"github.com/magabrotheeeer/budget-premium/internal/models"
)

// FallbackCodes коды, которые принимаются локально, когда сервер недоступен.
// Совпадают с кодами сервера.
type FallbackCodes struct {
	Monthly  string
	Lifetime string
}

// NormalizeCode убирает пробелы по краям и приводит код к нижнему регистру.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Resolve сравнивает нормализованный код с нормализованными секретами.
func (c FallbackCodes) Resolve(code string) (models.PurchaseType, bool) {
	code = NormalizeCode(code)
	if code == "" {
		return "", false
	}
	switch code {
	case NormalizeCode(c.Lifetime):
		return models.PurchaseLifetime, true
	case NormalizeCode(c.Monthly):
		return models.PurchaseMonthly, true
	default:
		return "", false
	}
}
