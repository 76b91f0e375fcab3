package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims scope a bearer token to a single notebook.
type Claims struct {
	NotebookID string `json:"nid"`
	jwt.RegisteredClaims
}

func SignJWT(notebookID, secret string, ttl time.Duration) (string, error) {
	if notebookID == "" {
		return "", errors.New("notebook id is required")
	}
	now := time.Now()
	claims := Claims{
		NotebookID: notebookID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   notebookID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseJWT validates tokenStr and returns the notebook it grants access to.
func ParseJWT(tokenStr, secret string) (string, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.NotebookID == "" {
		return "", ErrInvalidToken
	}
	return claims.NotebookID, nil
}
