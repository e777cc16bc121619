package browsersession_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/server/browsersession"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/jrsteele09/atelier-portal/storage/memory"
	"github.com/stretchr/testify/require"
)

type noAuth struct{}

func (noAuth) Login(context.Context, backend.Credentials) (backend.AuthResponse, error) {
	return backend.AuthResponse{}, errors.New("not used")
}

func (noAuth) Register(context.Context, backend.RegistrationForm) (backend.RegisterResponse, error) {
	return backend.RegisterResponse{}, errors.New("not used")
}

var neverExpires = session.ExpiryParserFunc(func(string) (time.Time, error) {
	return time.Now().Add(time.Hour), nil
})

func newRepo(t *testing.T, options ...browsersession.Option) (*browsersession.InMemoryRepo, *int) {
	t.Helper()
	provider := memory.New()
	created := 0
	repo := browsersession.NewInMemoryRepo(func(browserID string) (*session.Store, error) {
		created++
		return session.NewStore(provider.For(browserID), noAuth{}, neverExpires)
	}, options...)
	return repo, &created
}

func TestGetOrCreate(t *testing.T) {
	repo, created := newRepo(t)
	ctx := context.Background()

	a, err := repo.GetOrCreate(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, a.WaitReady(ctx))

	again, err := repo.GetOrCreate(ctx, "a")
	require.NoError(t, err)
	require.Same(t, a, again)

	b, err := repo.GetOrCreate(ctx, "b")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, 2, *created)

	got, ok := repo.Get("b")
	require.True(t, ok)
	require.Same(t, b, got)

	repo.Delete("b")
	_, ok = repo.Get("b")
	require.False(t, ok)

	_, err = repo.GetOrCreate(ctx, "")
	require.Error(t, err)
}

func TestFactoryError(t *testing.T) {
	repo := browsersession.NewInMemoryRepo(func(string) (*session.Store, error) {
		return nil, errors.New("no storage")
	})
	_, err := repo.GetOrCreate(context.Background(), "a")
	require.Error(t, err)
	require.Zero(t, repo.Len())
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo, _ := newRepo(t, browsersession.WithNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "old")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	_, err = repo.GetOrCreate(ctx, "fresh")
	require.NoError(t, err)

	require.Equal(t, 1, repo.Sweep(30*time.Minute))
	_, ok := repo.Get("old")
	require.False(t, ok)
	require.Equal(t, 1, repo.Len())
}
