// Package devbackend is an in-memory stand-in for the atelier REST backend. It serves the
// same auth and resource contract the portal consumes, for tests and local development.
package devbackend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/atelier-portal/roles"
	"golang.org/x/crypto/bcrypt"
)

// User is a registered account
type User struct {
	ID            int64
	Role          roles.Role
	Name          string
	Email         string
	Phone         string
	Address       string
	AdmissionDate string
	IsAdmin       bool
	PasswordHash  string
}

// Backend holds users, resource collections and the token signing key
type Backend struct {
	mu          sync.RWMutex
	users       map[roles.Role]map[string]*User // role -> email -> user
	collections map[string]map[int64]map[string]any
	nextID      int64

	signingKey      []byte
	adminSecret     string
	tokenTTL        time.Duration
	loginOnRegister bool
	omitAdminFlag   bool
	nowFunc         func() time.Time
	mux             *http.ServeMux
}

// Option defines a function type to modify the Backend instance.
type Option func(*Backend)

// WithNowFunc sets the clock used for token issue and validation (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(b *Backend) {
		b.nowFunc = now
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.tokenTTL = ttl
	}
}

func WithSigningKey(key []byte) Option {
	return func(b *Backend) {
		b.signingKey = key
	}
}

// WithAdminSecret sets the shared secret sellers must present to register as admins
func WithAdminSecret(secret string) Option {
	return func(b *Backend) {
		b.adminSecret = secret
	}
}

// WithLoginOnRegister controls whether /auth/register answers with a token
func WithLoginOnRegister(enabled bool) Option {
	return func(b *Backend) {
		b.loginOnRegister = enabled
	}
}

// WithoutAdminFlag drops is_admin from auth responses, like older backend versions
func WithoutAdminFlag() Option {
	return func(b *Backend) {
		b.omitAdminFlag = true
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		users:           make(map[roles.Role]map[string]*User),
		collections:     make(map[string]map[int64]map[string]any),
		signingKey:      []byte("atelier-dev-signing-key"),
		adminSecret:     "atelier-admin",
		tokenTTL:        time.Hour,
		loginOnRegister: true,
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(b)
	}
	for _, r := range roles.All() {
		b.users[r] = make(map[string]*User)
	}
	for _, c := range collections {
		b.collections[c] = make(map[int64]map[string]any)
	}
	b.initRoutes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// ErrDuplicateEmail is returned when an account with the same role and email exists
var ErrDuplicateEmail = errors.New("email already registered")

// AddUser stores a user with a bcrypt hash of password and returns the stored copy
func (b *Backend) AddUser(u User, password string) (User, error) {
	if !u.Role.Valid() {
		return User{}, fmt.Errorf("[devbackend AddUser] invalid role %q", u.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return User{}, fmt.Errorf("[devbackend AddUser] hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := b.users[u.Role][email]; exists {
		return User{}, fmt.Errorf("[devbackend AddUser] %s: %w", email, ErrDuplicateEmail)
	}

	b.nextID++
	u.ID = b.nextID
	u.Email = email
	u.PasswordHash = string(hash)
	b.users[u.Role][email] = &u
	b.insertProfileLocked(&u)
	return u, nil
}

// insertProfileLocked mirrors the account into its role's resource collection
func (b *Backend) insertProfileLocked(u *User) {
	collection := collectionCustomers
	record := map[string]any{
		"id":       u.ID,
		"nome":     u.Name,
		"email":    u.Email,
		"telefone": u.Phone,
	}
	if u.Role == roles.RoleStaff {
		collection = collectionSellers
		record["data_admissao"] = u.AdmissionDate
		record["is_admin"] = u.IsAdmin
	} else {
		record["endereco"] = u.Address
	}
	b.collections[collection][u.ID] = record
}

// userByIDLocked finds the account behind a profile record
func (b *Backend) userByIDLocked(role roles.Role, id int64) (*User, bool) {
	for _, u := range b.users[role] {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// syncAccountLocked carries name and email changes of a profile record over to its account.
// The email is normalised in changes so the record and the account agree.
func (b *Backend) syncAccountLocked(collection string, id int64, changes map[string]any) error {
	role, ok := accountRoles[collection]
	if !ok {
		return nil
	}
	u, ok := b.userByIDLocked(role, id)
	if !ok {
		return nil
	}

	if raw, ok := changes["email"].(string); ok {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email != u.Email {
			if _, taken := b.users[role][email]; taken {
				return fmt.Errorf("[devbackend sync] %s: %w", email, ErrDuplicateEmail)
			}
			delete(b.users[role], u.Email)
			u.Email = email
			b.users[role][email] = u
		}
		changes["email"] = email
	}
	if name, ok := changes["nome"].(string); ok {
		u.Name = name
	}
	return nil
}

// removeAccountLocked deletes the account behind a deleted profile record
func (b *Backend) removeAccountLocked(collection string, id int64) {
	role, ok := accountRoles[collection]
	if !ok {
		return
	}
	if u, ok := b.userByIDLocked(role, id); ok {
		delete(b.users[role], u.Email)
	}
}

func (b *Backend) findUser(role roles.Role, email string) (*User, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[role][strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	found := *u
	return &found, true
}

func (b *Backend) checkPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
