package devbackend_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jrsteele09/atelier-portal/devbackend"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "segredo123"
)

func setupBackend(t *testing.T, options ...devbackend.Option) (*devbackend.Backend, *httptest.Server) {
	t.Helper()
	b := devbackend.New(options...)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func authorised(t *testing.T, method, url, token string, body any) (*http.Response, any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestLogin(t *testing.T) {
	b, srv := setupBackend(t)
	_, err := b.AddUser(devbackend.User{Role: roles.RoleCustomer, Name: "Ana", Email: testEmail}, testPassword)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/auth/login", map[string]string{"email": testEmail, "senha": testPassword, "tipo": "cliente"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, body["token"])
		require.Equal(t, "cliente", body["tipo"])
		require.Equal(t, "Ana", body["nome"])
		require.Equal(t, false, body["is_admin"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/auth/login", map[string]string{"email": testEmail, "senha": "nope", "tipo": "cliente"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Senha incorreta", body["erro"])
	})

	t.Run("unknown user for role", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/auth/login", map[string]string{"email": testEmail, "senha": testPassword, "tipo": "vendedor"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "Usuário não encontrado", body["erro"])
	})
}

func TestLoginWithoutAdminFlag(t *testing.T) {
	b, srv := setupBackend(t, devbackend.WithoutAdminFlag())
	_, err := b.AddUser(devbackend.User{Role: roles.RoleStaff, Name: "Rui", Email: testEmail, IsAdmin: true}, testPassword)
	require.NoError(t, err)

	resp, body := postJSON(t, srv.URL+"/auth/login", map[string]string{"email": testEmail, "senha": testPassword, "tipo": "vendedor"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, present := body["is_admin"]
	require.False(t, present)
}

func TestRegister(t *testing.T) {
	_, srv := setupBackend(t, devbackend.WithAdminSecret("s3cret"))

	seller := map[string]any{
		"nome":          "Rui",
		"email":         "rui@example.com",
		"senha":         testPassword,
		"tipo":          "vendedor",
		"data_admissao": "2024-02-01",
		"is_admin":      true,
		"jwt_secret":    "s3cret",
	}

	resp, body := postJSON(t, srv.URL+"/auth/register", seller)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body["token"])
	require.Equal(t, true, body["is_admin"])

	resp, body = postJSON(t, srv.URL+"/auth/register", seller)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Email já cadastrado", body["erro"])

	seller["email"] = "outro@example.com"
	seller["jwt_secret"] = "wrong"
	resp, body = postJSON(t, srv.URL+"/auth/register", seller)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Secret JWT inválido", body["erro"])

	resp, body = postJSON(t, srv.URL+"/auth/register", map[string]any{"email": "x@example.com", "tipo": "vendedor"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields, ok := body["erros"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fields, "nome")
	require.Contains(t, fields, "senha")
	require.Contains(t, fields, "data_admissao")
}

func TestRegisterWithoutLogin(t *testing.T) {
	_, srv := setupBackend(t, devbackend.WithLoginOnRegister(false))

	resp, body := postJSON(t, srv.URL+"/auth/register", map[string]any{
		"nome": "Ana", "email": testEmail, "senha": testPassword, "tipo": "cliente",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_, hasToken := body["token"]
	require.False(t, hasToken)
	require.NotEmpty(t, body["mensagem"])
}

func TestResources(t *testing.T) {
	b, srv := setupBackend(t)
	staff, err := b.AddUser(devbackend.User{Role: roles.RoleStaff, Name: "Rui", Email: "rui@example.com"}, testPassword)
	require.NoError(t, err)
	customer, err := b.AddUser(devbackend.User{Role: roles.RoleCustomer, Name: "Ana", Email: testEmail}, testPassword)
	require.NoError(t, err)

	staffToken, err := b.IssueToken(staff)
	require.NoError(t, err)
	customerToken, err := b.IssueToken(customer)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodGet, srv.URL+"/pecas", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("crud", func(t *testing.T) {
		resp, created := authorised(t, http.MethodPost, srv.URL+"/pecas", staffToken, map[string]any{"nome": "Filtro"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id := created.(map[string]any)["id"].(float64)
		path := srv.URL + "/pecas/" + jsonNumber(id)

		resp, _ = authorised(t, http.MethodPut, path, staffToken, map[string]any{"nome": "Filtro de óleo", "id": 999})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, got := authorised(t, http.MethodGet, path, customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Filtro de óleo", got.(map[string]any)["nome"])
		require.Equal(t, id, got.(map[string]any)["id"])

		resp, list := authorised(t, http.MethodGet, srv.URL+"/pecas", customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 1)

		resp, _ = authorised(t, http.MethodDelete, path, staffToken, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = authorised(t, http.MethodGet, path, staffToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("customer cannot manage parts", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodPost, srv.URL+"/pecas", customerToken, map[string]any{"nome": "x"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("registered accounts are listed", func(t *testing.T) {
		resp, list := authorised(t, http.MethodGet, srv.URL+"/clientes", staffToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 1)
		require.Equal(t, testEmail, list.([]any)[0].(map[string]any)["email"])
	})

	t.Run("order items", func(t *testing.T) {
		resp, created := authorised(t, http.MethodPost, srv.URL+"/pedidos", customerToken, map[string]any{
			"itens": []any{map[string]any{"peca": 1, "quantidade": 2}},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id := created.(map[string]any)["id"].(float64)

		resp, items := authorised(t, http.MethodGet, srv.URL+"/pedidos/"+jsonNumber(id)+"/itens", customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, items, 1)
	})

	t.Run("unknown collection", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodGet, srv.URL+"/estoque", staffToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	b, srv := setupBackend(t, devbackend.WithNowFunc(func() time.Time { return now }), devbackend.WithTokenTTL(time.Minute))
	u, err := b.AddUser(devbackend.User{Role: roles.RoleStaff, Name: "Rui", Email: "rui@example.com"}, testPassword)
	require.NoError(t, err)

	token, err := b.IssueToken(u)
	require.NoError(t, err)

	resp, _ := authorised(t, http.MethodGet, srv.URL+"/pecas", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	now = now.Add(2 * time.Minute)
	resp, _ = authorised(t, http.MethodGet, srv.URL+"/pecas", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSelfServiceAccount(t *testing.T) {
	b, srv := setupBackend(t)
	ana, err := b.AddUser(devbackend.User{Role: roles.RoleCustomer, Name: "Ana", Email: testEmail}, testPassword)
	require.NoError(t, err)
	other, err := b.AddUser(devbackend.User{Role: roles.RoleCustomer, Name: "Caio", Email: "caio@example.com"}, testPassword)
	require.NoError(t, err)
	token, err := b.IssueToken(ana)
	require.NoError(t, err)

	own := srv.URL + "/clientes/" + strconv.FormatInt(ana.ID, 10)
	otherPath := srv.URL + "/clientes/" + strconv.FormatInt(other.ID, 10)

	t.Run("only the own record", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodPut, otherPath, token, map[string]any{"nome": "x"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp, _ = authorised(t, http.MethodDelete, otherPath, token, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("email taken by another account", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodPut, own, token, map[string]any{"email": "caio@example.com"})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("profile change moves the login", func(t *testing.T) {
		resp, got := authorised(t, http.MethodPut, own, token, map[string]any{"nome": "Ana Maria", "email": "Ana.Maria@example.com"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "ana.maria@example.com", got.(map[string]any)["email"])

		resp, body := postJSON(t, srv.URL+"/auth/login", map[string]string{"email": "ana.maria@example.com", "senha": testPassword, "tipo": "cliente"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Ana Maria", body["nome"])

		resp, _ = postJSON(t, srv.URL+"/auth/login", map[string]string{"email": testEmail, "senha": testPassword, "tipo": "cliente"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("deleting the record deletes the account", func(t *testing.T) {
		resp, _ := authorised(t, http.MethodDelete, own, token, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = postJSON(t, srv.URL+"/auth/login", map[string]string{"email": "ana.maria@example.com", "senha": testPassword, "tipo": "cliente"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAddUserDuplicate(t *testing.T) {
	b := devbackend.New()
	_, err := b.AddUser(devbackend.User{Role: roles.RoleCustomer, Email: testEmail}, testPassword)
	require.NoError(t, err)

	_, err = b.AddUser(devbackend.User{Role: roles.RoleCustomer, Email: "ANA@example.com "}, testPassword)
	require.ErrorIs(t, err, devbackend.ErrDuplicateEmail)

	// Same email under the other role is a separate account
	_, err = b.AddUser(devbackend.User{Role: roles.RoleStaff, Email: testEmail}, testPassword)
	require.NoError(t, err)
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(int64(f))
	return string(b)
}
