package memory_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/atelier-portal/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestNamespaces(t *testing.T) {
	ctx := context.Background()
	p := memory.New()
	a := p.For("browser-a")
	b := p.For("browser-b")

	require.NoError(t, a.Set(ctx, "token", "abc"))

	v, ok, err := a.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)

	_, ok, err = b.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)

	// A second handle sees the same namespace
	v, ok, _ = p.For("browser-a").Get(ctx, "token")
	require.True(t, ok)
	require.Equal(t, "abc", v)

	require.NoError(t, a.Remove(ctx, "token"))
	require.NoError(t, a.Remove(ctx, "token"))
	require.NoError(t, b.Remove(ctx, "missing"))
	require.Zero(t, p.Len("browser-a"))
}
