package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/atelier-portal/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("1234"))
	require.NoError(t, err)
	return s
}

func TestJWTExpiry(t *testing.T) {
	parser := token.NewJWTExpiry()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("reads exp", func(t *testing.T) {
		got, err := parser.Expiry(signed(t, jwtlib.MapClaims{"sub": "7", "exp": exp.Unix()}))
		require.NoError(t, err)
		require.True(t, exp.Equal(got))
	})

	t.Run("expired tokens still parse", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).Truncate(time.Second)
		got, err := parser.Expiry(signed(t, jwtlib.MapClaims{"exp": past.Unix()}))
		require.NoError(t, err)
		require.True(t, past.Equal(got))
	})

	t.Run("missing exp", func(t *testing.T) {
		_, err := parser.Expiry(signed(t, jwtlib.MapClaims{"sub": "7"}))
		require.ErrorIs(t, err, token.ErrMissingExpiry)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := parser.Expiry("opaque-token")
		require.ErrorIs(t, err, token.ErrMalformedToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := parser.Expiry("  ")
		require.ErrorIs(t, err, token.ErrMalformedToken)
	})

	t.Run("non numeric exp", func(t *testing.T) {
		_, err := parser.Expiry(signed(t, jwtlib.MapClaims{"exp": "tomorrow"}))
		require.ErrorIs(t, err, token.ErrMalformedToken)
	})
}
