// Package jwt проверяет сессионные JWT токены.
//
// Выдачей токенов при входе занимается внешний сервис аутентификации; здесь
// используется тот же секрет, чтобы сервис премиум-доступа мог проверить сессию
// и определить владельца запроса.
package jwt

import (
	"time"
)

// MakerImpl проверяет токены по секретному ключу. tokenTTL нужен только GenerateToken.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewVerifier создаёт MakerImpl, который только проверяет токены.
func NewVerifier(secretKey string) *MakerImpl {
	return &MakerImpl{secretKey: secretKey}
}

// NewJWTMaker создаёт MakerImpl, способный и выпускать токены со сроком ttl.
// Сервис токены не выпускает, выпуск нужен тестам и локальной отладке.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
