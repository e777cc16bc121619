package devbackend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/atelier-portal/roles"
)

// Principal is the caller identified by a bearer token
type Principal struct {
	UserID  int64
	Role    roles.Role
	IsAdmin bool
}

// IssueToken signs an HS256 access token for u
func (b *Backend) IssueToken(u User) (string, error) {
	now := b.nowFunc()
	claims := jwtlib.MapClaims{
		"sub":      strconv.FormatInt(u.ID, 10),
		"tipo":     string(u.Role),
		"is_admin": u.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(b.tokenTTL).Unix(),
		"jti":      uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(b.signingKey)
	if err != nil {
		return "", fmt.Errorf("[devbackend IssueToken] %w", err)
	}
	return signed, nil
}

func (b *Backend) verifyToken(raw string) (Principal, error) {
	parsed, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (any, error) {
		return b.signingKey, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(b.nowFunc), jwtlib.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Principal{}, errors.New("error extracting claims from token")
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid subject: %w", err)
	}
	tipo, _ := claims["tipo"].(string)
	role, err := roles.Parse(tipo)
	if err != nil {
		return Principal{}, err
	}
	isAdmin, _ := claims["is_admin"].(bool)

	return Principal{UserID: id, Role: role, IsAdmin: isAdmin}, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
