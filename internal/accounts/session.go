package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTTL — срок жизни указателя активной сессии
const sessionTTL = 24 * time.Hour

// sessionClaims — JWT claims указателя «какой слот активен».
// Токен живет только в сессионном слое: долговечным носителем признака
// активности остаются сами записи слотов.
type sessionClaims struct {
	SlotID int    `json:"slot_id"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// newSessionToken создает подписанный указатель активного слота
func (s *Service) newSessionToken(slotID int, userID string) (string, error) {
	now := s.now()

	claims := sessionClaims{
		SlotID: slotID,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "japakeeper",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.sessionSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// parseSessionToken валидирует указатель; просроченный или чужой токен —
// это просто отсутствие быстрого указателя, не ошибка уровня аккаунта
func (s *Service) parseSessionToken(tokenString string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.sessionSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
