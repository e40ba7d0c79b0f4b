package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller identity. The claim names match the tokens
// issued by earlier releases.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return Issuer{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (i Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue signs an HS256 token for the user.
func (i Issuer) Issue(userID int64, role string) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret not configured")
	}
	issued := i.now()
	exp := issued.Add(i.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i Issuer) Parse(raw string) (Claims, error) {
	var claims Claims
	if len(i.Secret) == 0 || raw == "" {
		return claims, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
