package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "topar-market"

// TokenIssuer выпускает и проверяет HS256 JWT с идентификатором аккаунта в
// subject.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен на идентификатор аккаунта.
func (i *TokenIssuer) Issue(accountID string) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   accountID,
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify проверяет подпись и срок токена и возвращает идентификатор
// аккаунта.
func (i *TokenIssuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return i.secret, nil
	})
	if err != nil {
		return "", err
	}

	if !parsed.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}

	if claims.Subject == "" {
		return "", errors.New("token subject is empty")
	}

	return claims.Subject, nil
}
