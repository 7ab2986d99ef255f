package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager 签发与校验 HS256 访问令牌，subject 为用户 ID
type TokenManager struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, expire time.Duration) *TokenManager {
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), expire: expire, now: time.Now}
}

func (m *TokenManager) Issue(userID uint) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
		Issuer:    "yatube",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(token string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("yatube"),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// MaxAge is the cookie lifetime matching the token expiry.
func (m *TokenManager) MaxAge() int { return int(m.expire / time.Second) }
