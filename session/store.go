package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/atelier-portal/backend"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Profile field keys accepted by UpdateProfile. id and tipo are never changed.
const (
	ProfileName    = "nome"
	ProfileEmail   = "email"
	ProfileIsAdmin = "is_admin"
)

// Store is the single owner of a browser's authentication state. Storage is always
// written before the in-memory session changes.
type Store struct {
	storage Storage
	auth    Authenticator
	expiry  ExpiryParser
	nowFunc func() time.Time
	logger  zerolog.Logger

	initOnce sync.Once
	ready    chan struct{}

	inFlight   atomic.Bool // Login or Register pending
	commitMu   sync.Mutex  // Serialises storage writes and guards generation
	generation uint64      // Bumped by Logout; stale logins are discarded

	mu      sync.RWMutex
	session *Session
	lastErr error
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowFunc sets the clock used for expiry checks (primarily for testing)
func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// RegisterResult is the outcome of a successful registration call
type RegisterResult struct {
	Response backend.RegisterResponse
	LoggedIn bool // The backend returned a complete identity and the session was opened
}

// NewStore creates a store over storage. Initialize must run before the store reports ready.
func NewStore(storage Storage, auth Authenticator, expiry ExpiryParser, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("[NewStore] storage is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("[NewStore] authenticator is required")
	}
	if expiry == nil {
		return nil, fmt.Errorf("[NewStore] expiry parser is required")
	}

	s := &Store{
		storage: storage,
		auth:    auth,
		expiry:  expiry,
		nowFunc: time.Now,
		logger:  log.Logger,
		ready:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Initialize restores the persisted session. Every failure is absorbed: storage is cleared,
// the error is kept for LastError and the store ends logged out. Only the first call does work.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)

		s.commitMu.Lock()
		defer s.commitMu.Unlock()

		restored, err := s.restore(ctx)
		if err != nil {
			if clearErr := s.clearStorage(ctx); clearErr != nil {
				err = apperrors.Join(err, clearErr)
			}
			s.logger.Warn().Err(err).Msg("discarded persisted session")
			s.setState(nil, err)
			return
		}
		s.setState(restored, nil)
	})
}

// restore reads and validates the persisted session. A nil session with a nil error means
// nothing was stored.
func (s *Store) restore(ctx context.Context) (restored *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			restored = nil
			err = fmt.Errorf("[Store Initialize] %w: panic: %v", apperrors.ErrCorruptSession, r)
		}
	}()

	rawUser, hasUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("[Store Initialize] read %s: %w: %v", KeyUser, apperrors.ErrStorage, err)
	}
	token, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("[Store Initialize] read %s: %w: %v", KeyToken, apperrors.ErrStorage, err)
	}

	switch {
	case !hasUser && !hasToken:
		return nil, nil
	case !hasUser || !hasToken:
		return nil, fmt.Errorf("[Store Initialize] %w: partial session (user=%t, token=%t)", apperrors.ErrCorruptSession, hasUser, hasToken)
	}

	var stored storedUser
	if err := json.Unmarshal([]byte(rawUser), &stored); err != nil {
		return nil, fmt.Errorf("[Store Initialize] %w: %v", apperrors.ErrCorruptSession, err)
	}

	restored = &Session{
		UserID:       stored.ID.String(),
		Role:         roles.Role(strings.TrimSpace(stored.Role)),
		DisplayName:  stored.Name,
		Email:        stored.Email,
		IsPrivileged: strictBool(stored.IsAdmin),
		Token:        token,
	}
	if !restored.Complete() {
		return nil, fmt.Errorf("[Store Initialize] %w: missing or invalid required field", apperrors.ErrCorruptSession)
	}

	exp, err := s.expiry.Expiry(token)
	if err != nil || !exp.After(s.nowFunc()) {
		return nil, fmt.Errorf("[Store Initialize] %w", apperrors.ErrExpiredToken)
	}
	restored.TokenExpiry = exp
	return restored, nil
}

// Login authenticates against the backend and opens the session. Backend failures are
// returned classified and leave the current state untouched.
func (s *Store) Login(ctx context.Context, credentials backend.Credentials) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return fmt.Errorf("[Store Login] %w", apperrors.ErrOperationInFlight)
	}
	defer s.inFlight.Store(false)

	gen := s.currentGeneration()
	resp, err := s.auth.Login(ctx, credentials)
	if err != nil {
		return fmt.Errorf("[Store Login] %w", err)
	}

	next, err := s.sessionFrom(resp, "", "")
	if err != nil {
		return fmt.Errorf("[Store Login] %w", err)
	}
	if err := s.commit(ctx, gen, next); err != nil {
		return fmt.Errorf("[Store Login] %w", err)
	}
	return nil
}

// Register posts a registration. When the response carries a complete identity the session
// is opened exactly as Login would; otherwise the response is returned and state is untouched.
func (s *Store) Register(ctx context.Context, form backend.RegistrationForm) (RegisterResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return RegisterResult{}, fmt.Errorf("[Store Register] %w", apperrors.ErrOperationInFlight)
	}
	defer s.inFlight.Store(false)

	gen := s.currentGeneration()
	resp, err := s.auth.Register(ctx, form)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("[Store Register] %w", err)
	}

	result := RegisterResult{Response: resp}
	if !resp.HasIdentity() {
		return result, nil
	}

	next, err := s.sessionFrom(resp.AuthResponse, form.Name, form.Email)
	if err != nil {
		return result, fmt.Errorf("[Store Register] %w", err)
	}
	if err := s.commit(ctx, gen, next); err != nil {
		return result, fmt.Errorf("[Store Register] %w", err)
	}
	result.LoggedIn = true
	return result, nil
}

// Logout ends the session. It always succeeds; storage errors are only recorded.
// A login still waiting on the backend will not open a session afterwards.
func (s *Store) Logout(ctx context.Context) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.logoutLocked(ctx)
}

// LogoutIfToken ends the session only while token is still its bearer token and reports
// whether it did. A backend rejecting an older session's token leaves a newer session alone.
func (s *Store) LogoutIfToken(ctx context.Context, token string) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.RLock()
	current := s.session
	s.mu.RUnlock()
	if token == "" || current == nil || current.Token != token {
		return false
	}
	s.logoutLocked(ctx)
	return true
}

func (s *Store) logoutLocked(ctx context.Context) {
	s.generation++
	err := s.clearStorage(ctx)
	if err != nil {
		s.logger.Err(err).Msg("logout could not clear persisted session")
		err = fmt.Errorf("[Store Logout] %w", err)
	}
	s.setState(nil, err)
}

// UpdateProfile merges the name, email and admin flag into the active session and persists
// the result. Without an authenticated session it does nothing.
func (s *Store) UpdateProfile(ctx context.Context, fields map[string]any) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	current, ok := s.Snapshot()
	if !ok {
		return nil
	}

	next := current
	if v, present := fields[ProfileName]; present {
		next.DisplayName = profileString(v, current.DisplayName)
	}
	if v, present := fields[ProfileEmail]; present {
		next.Email = profileString(v, current.Email)
	}
	if v, present := fields[ProfileIsAdmin]; present {
		next.IsPrivileged = strictBool(v)
	}

	if err := s.persist(ctx, next); err != nil {
		s.rollback(ctx, &current)
		return fmt.Errorf("[Store UpdateProfile] %w", err)
	}
	s.setState(&next, nil)
	return nil
}

// profileString accepts strings and null; any other type keeps the previous value
func profileString(v any, previous string) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return previous
	}
}

// IsAuthenticated is true when a session is present and its token has not expired
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Snapshot()
	return ok
}

// Snapshot returns a copy of the session. ok is false when logged out or expired.
func (s *Store) Snapshot() (Session, bool) {
	s.mu.RLock()
	current := s.session
	s.mu.RUnlock()

	if current == nil || IsExpired(current.Token, s.expiry, s.nowFunc()) {
		return Session{}, false
	}
	return *current, true
}

func (s *Store) Role() roles.Role {
	current, _ := s.Snapshot()
	return current.Role
}

// Token is the bearer token of the authenticated session, or empty
func (s *Store) Token() string {
	current, _ := s.Snapshot()
	return current.Token
}

// LastError is the most recent absorbed error, cleared by every successful state change
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until Initialize has finished or ctx is done
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) currentGeneration() uint64 {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	return s.generation
}

// sessionFrom validates a backend identity. Name and email fall back to the submitted values.
func (s *Store) sessionFrom(resp backend.AuthResponse, name, email string) (Session, error) {
	next := Session{
		UserID:       strings.TrimSpace(resp.UserID.String()),
		Role:         roles.Role(strings.TrimSpace(resp.Role)),
		DisplayName:  resp.Name,
		Email:        resp.Email,
		IsPrivileged: strictBool(resp.IsAdmin),
		Token:        strings.TrimSpace(resp.Token),
	}
	if next.DisplayName == "" {
		next.DisplayName = strings.TrimSpace(name)
	}
	if next.Email == "" {
		next.Email = strings.TrimSpace(email)
	}
	if !next.Complete() {
		return Session{}, apperrors.ErrIncompleteAuthData
	}

	exp, err := s.expiry.Expiry(next.Token)
	if err != nil || !exp.After(s.nowFunc()) {
		return Session{}, fmt.Errorf("%w: %w", apperrors.ErrIncompleteAuthData, apperrors.ErrExpiredToken)
	}
	next.TokenExpiry = exp
	return next, nil
}

// commit persists next and then installs it, unless a Logout happened since gen was read
func (s *Store) commit(ctx context.Context, gen uint64, next Session) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.generation != gen {
		return apperrors.ErrSuperseded
	}

	s.mu.RLock()
	previous := s.session
	s.mu.RUnlock()

	if err := s.persist(ctx, next); err != nil {
		s.rollback(ctx, previous)
		return err
	}
	s.setState(&next, nil)
	return nil
}

func (s *Store) persist(ctx context.Context, next Session) error {
	blob, err := next.marshalUser()
	if err != nil {
		return fmt.Errorf("%w: encode user: %v", apperrors.ErrStorage, err)
	}
	if err := s.storage.Set(ctx, KeyUser, blob); err != nil {
		return fmt.Errorf("%w: write %s: %v", apperrors.ErrStorage, KeyUser, err)
	}
	if err := s.storage.Set(ctx, KeyToken, next.Token); err != nil {
		return fmt.Errorf("%w: write %s: %v", apperrors.ErrStorage, KeyToken, err)
	}
	return nil
}

// rollback puts storage back in line with the in-memory session after a failed write
func (s *Store) rollback(ctx context.Context, previous *Session) {
	var err error
	if previous == nil {
		err = s.clearStorage(ctx)
	} else {
		err = s.persist(ctx, *previous)
	}
	if err != nil {
		s.logger.Err(err).Msg("could not restore persisted session after failed write")
	}
}

func (s *Store) clearStorage(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyUser, KeyToken} {
		if err := s.storage.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%w: remove %s: %v", apperrors.ErrStorage, key, err))
		}
	}
	return apperrors.Join(errs...)
}

func (s *Store) setState(next *Session, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = next
	s.lastErr = lastErr
}
