package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/devbackend"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/stretchr/testify/require"
)

func validCustomer() backend.RegistrationForm {
	return backend.RegistrationForm{
		Name:     "Ana",
		Email:    testEmail,
		Password: testPassword,
		Role:     roles.RoleCustomer,
		Address:  "Rua A, 10",
	}
}

func validSeller() backend.RegistrationForm {
	return backend.RegistrationForm{
		Name:          "Rui",
		Email:         "rui@example.com",
		Password:      testPassword,
		Role:          roles.RoleStaff,
		AdmissionDate: "2024-02-01",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid forms", func(t *testing.T) {
		require.Nil(t, validCustomer().Validate())
		require.Nil(t, validSeller().Validate())
	})

	t.Run("missing fields", func(t *testing.T) {
		errs := backend.RegistrationForm{Role: "admin"}.Validate()
		require.Contains(t, errs, backend.FieldName)
		require.Contains(t, errs, backend.FieldEmail)
		require.Contains(t, errs, backend.FieldPassword)
		require.Contains(t, errs, backend.FieldRole)
	})

	t.Run("email shape", func(t *testing.T) {
		f := validCustomer()
		f.Email = "ana@example"
		require.Equal(t, "Email inválido", f.Validate()[backend.FieldEmail])
	})

	t.Run("short password", func(t *testing.T) {
		f := validCustomer()
		f.Password = "12345"
		require.Contains(t, f.Validate(), backend.FieldPassword)
	})

	t.Run("seller rules", func(t *testing.T) {
		f := validSeller()
		f.AdmissionDate = ""
		f.RequestAdmin = true
		errs := f.Validate()
		require.Contains(t, errs, backend.FieldAdmissionDate)
		require.Contains(t, errs, backend.FieldAdminSecret)
	})

	t.Run("customers ignore admin fields", func(t *testing.T) {
		f := validCustomer()
		f.RequestAdmin = true
		require.Nil(t, f.Validate())
	})
}

func TestRegisterPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, backend.RouteAuthRegister, r.URL.Path)
		got = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"mensagem":"ok"}`))
	}))
	defer srv.Close()
	client := backend.New(srv.URL, time.Second)

	t.Run("customer never sends elevation fields", func(t *testing.T) {
		f := validCustomer()
		f.RequestAdmin = true
		f.AdminSecret = "x"
		_, err := client.Register(context.Background(), f)
		require.NoError(t, err)
		require.Equal(t, "Rua A, 10", got["endereco"])
		require.Nil(t, got["telefone"])
		require.NotContains(t, got, "is_admin")
		require.NotContains(t, got, "jwt_secret")
		require.NotContains(t, got, "data_admissao")
	})

	t.Run("seller elevation", func(t *testing.T) {
		f := validSeller()
		f.Phone = " 11 9999 "
		f.RequestAdmin = true
		f.AdminSecret = adminSecret
		resp, err := client.Register(context.Background(), f)
		require.NoError(t, err)
		require.False(t, resp.HasIdentity())
		require.Equal(t, "ok", resp.Raw["mensagem"])
		require.Equal(t, true, got["is_admin"])
		require.Equal(t, adminSecret, got["jwt_secret"])
		require.Equal(t, "11 9999", got["telefone"])
		require.NotContains(t, got, "endereco")
	})
}

func TestRegister(t *testing.T) {
	t.Run("returns identity", func(t *testing.T) {
		f := setupTestFixture(t)
		resp, err := f.client.Register(context.Background(), validCustomer())
		require.NoError(t, err)
		require.True(t, resp.HasIdentity())
		require.Equal(t, "Ana", resp.Name)
	})

	t.Run("local validation stops the request", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		form := validCustomer()
		form.Email = ""
		_, err := backend.New(srv.URL, time.Second).Register(context.Background(), form)
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.False(t, called)
	})

	t.Run("duplicate email maps to the email field", func(t *testing.T) {
		f := setupTestFixture(t)
		f.addCustomer(t)

		_, err := f.client.Register(context.Background(), validCustomer())
		require.ErrorIs(t, err, apperrors.ErrConflict)

		var apiErr *backend.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Email já cadastrado", apiErr.FieldErrors[backend.FieldEmail])
	})

	t.Run("wrong admin secret maps to the secret field", func(t *testing.T) {
		f := setupTestFixture(t)
		form := validSeller()
		form.RequestAdmin = true
		form.AdminSecret = "wrong"

		_, err := f.client.Register(context.Background(), form)
		require.ErrorIs(t, err, apperrors.ErrForbidden)

		var apiErr *backend.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Secret JWT inválido", apiErr.FieldErrors[backend.FieldAdminSecret])
	})

	t.Run("no token when the backend does not log in", func(t *testing.T) {
		f := setupTestFixture(t, devbackend.WithLoginOnRegister(false))
		resp, err := f.client.Register(context.Background(), validCustomer())
		require.NoError(t, err)
		require.False(t, resp.HasIdentity())
		require.NotEmpty(t, resp.Raw["mensagem"])
	})
}
