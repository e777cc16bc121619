package backend_test

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/devbackend"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/stretchr/testify/require"
)

type part struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

func staffToken(t *testing.T, f *testFixture) string {
	t.Helper()
	u, err := f.dev.AddUser(devbackend.User{Role: roles.RoleStaff, Name: "Rui", Email: "rui@example.com"}, testPassword)
	require.NoError(t, err)
	token, err := f.dev.IssueToken(u)
	require.NoError(t, err)
	return token
}

func TestParseResource(t *testing.T) {
	r, ok := backend.ParseResource("/pedidos/")
	require.True(t, ok)
	require.Equal(t, backend.ResourceOrders, r)

	_, ok = backend.ParseResource("estoque")
	require.False(t, ok)
}

func TestResourceURL(t *testing.T) {
	rc := backend.New("http://api.local/", 0).Resources(context.Background(), "tok")
	require.Equal(t, "http://api.local/pedidos/7/itens", rc.URL(backend.ResourceOrders, "7", "/itens/"))
	require.Equal(t, "http://api.local/pecas/a%20b", rc.URL(backend.ResourceParts, "a b"))
}

func TestResourceCRUD(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	rc := f.client.Resources(ctx, staffToken(t, f))

	var created part
	require.NoError(t, rc.Create(ctx, backend.ResourceParts, map[string]any{"nome": "Filtro"}, &created))
	require.NotZero(t, created.ID)
	id := strconv.FormatInt(created.ID, 10)

	var updated part
	require.NoError(t, rc.Update(ctx, backend.ResourceParts, id, map[string]any{"nome": "Vela"}, &updated))
	require.Equal(t, "Vela", updated.Name)

	var parts []part
	require.NoError(t, rc.List(ctx, backend.ResourceParts, &parts))
	require.Len(t, parts, 1)

	var got part
	require.NoError(t, rc.Get(ctx, backend.ResourceParts, id, &got))
	require.Equal(t, created.ID, got.ID)

	require.NoError(t, rc.Delete(ctx, backend.ResourceParts, id))
	err := rc.Get(ctx, backend.ResourceParts, id, &got)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, "Registro não encontrado", backend.UserMessage(err))
}

func TestResourceRejectedToken(t *testing.T) {
	f := setupTestFixture(t)
	rc := f.client.Resources(context.Background(), "not-a-token")

	var parts []part
	err := rc.List(context.Background(), backend.ResourceParts, &parts)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestForward(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	rc := f.client.Resources(ctx, staffToken(t, f))

	resp, err := rc.Forward(ctx, http.MethodPost, backend.ResourceParts, "", "", strings.NewReader(`{"nome":"Correia"}`), "application/json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Correia")
}
