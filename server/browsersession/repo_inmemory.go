package browsersession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/atelier-portal/session"
	"github.com/rs/zerolog/log"
)

type entry struct {
	store    *session.Store
	lastSeen time.Time
}

// InMemoryRepo is an in-memory implementation of Repo. Stores only cache what their
// storage holds, so evicting one loses nothing.
type InMemoryRepo struct {
	mu      sync.Mutex
	stores  map[string]*entry
	factory Factory
	nowFunc func() time.Time
}

type Option func(*InMemoryRepo)

// WithNowFunc sets the clock used for idle tracking (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.nowFunc = now
	}
}

func NewInMemoryRepo(factory Factory, options ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		stores:  make(map[string]*entry),
		factory: factory,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) GetOrCreate(ctx context.Context, browserID string) (*session.Store, error) {
	if browserID == "" {
		return nil, fmt.Errorf("browserID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.stores[browserID]; ok {
		e.lastSeen = r.nowFunc()
		return e.store, nil
	}

	store, err := r.factory(browserID)
	if err != nil {
		return nil, fmt.Errorf("[browsersession GetOrCreate] %w", err)
	}
	r.stores[browserID] = &entry{store: store, lastSeen: r.nowFunc()}

	// Restore runs in the background; the guard shows the loading page until it is ready
	go store.Initialize(context.WithoutCancel(ctx))

	log.Debug().Str("browser", browserID).Msg("created session store")
	return store, nil
}

func (r *InMemoryRepo) Get(browserID string) (*session.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.stores[browserID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.nowFunc()
	return e.store, true
}

func (r *InMemoryRepo) Delete(browserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, browserID)
}

// Sweep drops stores idle for longer than maxIdle and returns how many were dropped
func (r *InMemoryRepo) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.nowFunc().Add(-maxIdle)
	dropped := 0
	for id, e := range r.stores {
		if e.lastSeen.Before(cutoff) {
			delete(r.stores, id)
			dropped++
		}
	}
	return dropped
}

func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
