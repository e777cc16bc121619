// Package session holds the portal's authentication state for one browser: the current
// identity and bearer token, mirrored into a per-browser key/value storage.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/roles"
)

// Storage keys. The identity blob and the token are kept apart so either can be dropped alone.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Session is the authenticated identity of a browser
type Session struct {
	UserID       string
	Role         roles.Role
	DisplayName  string
	Email        string
	IsPrivileged bool
	Token        string
	TokenExpiry  time.Time // Derived from the token, never persisted
}

// Complete reports whether the session carries every required field
func (s Session) Complete() bool {
	return strings.TrimSpace(s.UserID) != "" && s.Role.Valid() && strings.TrimSpace(s.Token) != ""
}

// storedUser is the persisted identity blob (the session minus its token)
type storedUser struct {
	ID      backend.ID `json:"id"`
	Role    string     `json:"tipo"`
	Name    string     `json:"nome"`
	Email   string     `json:"email"`
	IsAdmin any        `json:"is_admin"`
}

func (s Session) marshalUser() (string, error) {
	b, err := json.Marshal(storedUser{
		ID:      backend.ID(s.UserID),
		Role:    string(s.Role),
		Name:    s.DisplayName,
		Email:   s.Email,
		IsAdmin: s.IsPrivileged,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// strictBool is true only for a boolean true. Strings, numbers, nil and absence are false.
func strictBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
