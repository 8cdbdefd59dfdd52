// Package slottoken кодирует котировку слота в подписанный токен.
//
// Токен выдается при выдаче доступных слотов и возвращается клиентом при
// создании бронирования. Подпись (HS256) не позволяет клиенту подменить
// цену или окно между котировкой и бронированием; срок жизни токена
// ограничивает, насколько устаревшей может быть котировка.
package slottoken

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid возвращается для токена с неверной подписью или структурой
	ErrTokenInvalid = errors.New("slottoken: invalid token")

	// ErrTokenExpired возвращается для просроченной котировки
	ErrTokenExpired = errors.New("slottoken: quote expired")
)

// Quote данные котировки слота, зашитые в токен
type Quote struct {
	ServiceID       int64   `json:"svc"`
	Activity        string  `json:"act"`
	Date            string  `json:"date"` // YYYY-MM-DD
	StartTime       string  `json:"start"`
	DurationMinutes int     `json:"dur"`
	ResourceIDs     []int64 `json:"res"` // кандидаты, отсортированы по id
	UnitPrice       float64 `json:"price"`
	PricingType     string  `json:"ptype"`
}

type claims struct {
	Quote
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет токены котировок
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec создает кодек с секретом подписи и сроком жизни котировки
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue подписывает котировку и возвращает компактный токен
func (c *Codec) Issue(q Quote, now time.Time) (string, error) {
	cl := claims{
		Quote: q,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("slottoken: sign: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок жизни токена и возвращает котировку
func (c *Codec) Parse(tokenStr string) (*Quote, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	cl, ok := t.Claims.(*claims)
	if !ok || !t.Valid {
		return nil, ErrTokenInvalid
	}
	return &cl.Quote, nil
}
