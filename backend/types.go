package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/atelier-portal/roles"
)

// ID is a record identifier. The backend emits integers; older payloads used strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Credentials is the login form submission
type Credentials struct {
	Email    string     `json:"email"`
	Password string     `json:"senha"`
	Role     roles.Role `json:"tipo"`
}

// AuthResponse is the identity returned by a successful login or registration.
// IsAdmin is kept raw; callers decide how to coerce it.
type AuthResponse struct {
	Token   string `json:"token"`
	Role    string `json:"tipo"`
	UserID  ID     `json:"id"`
	Name    string `json:"nome"`
	Email   string `json:"email"`
	IsAdmin any    `json:"is_admin"`
}

// HasIdentity reports whether the response carries the fields needed to open a session
func (a AuthResponse) HasIdentity() bool {
	return strings.TrimSpace(a.Token) != "" && a.UserID != "" && strings.TrimSpace(a.Role) != ""
}

// RegisterResponse keeps the raw payload for callers when no identity was returned
type RegisterResponse struct {
	AuthResponse
	Raw map[string]any `json:"-"`
}

// errorBody is the backend's error envelope
type errorBody struct {
	Erro    string            `json:"erro"`
	Message string            `json:"message"`
	Erros   map[string]string `json:"erros"`
}
