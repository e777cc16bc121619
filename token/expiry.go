package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed bearer token")
	ErrMissingExpiry  = errors.New("bearer token has no exp claim")
)

// JWTExpiry reads the exp claim from a JWT without verifying its signature.
// The portal never holds the backend's signing key; the backend re-validates every request.
type JWTExpiry struct {
	parser *jwtlib.Parser
}

func NewJWTExpiry() *JWTExpiry {
	return &JWTExpiry{parser: jwtlib.NewParser()}
}

// Expiry returns the instant the token stops being valid
func (j *JWTExpiry) Expiry(rawToken string) (time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, ErrMalformedToken
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := j.parser.ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return exp.Time, nil
}
