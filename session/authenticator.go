package session

import (
	"context"

	"github.com/jrsteele09/atelier-portal/backend"
)

// Authenticator is the part of the backend the store calls. *backend.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, credentials backend.Credentials) (backend.AuthResponse, error)
	Register(ctx context.Context, form backend.RegistrationForm) (backend.RegisterResponse, error)
}
