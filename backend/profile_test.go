package backend_test

import (
	"testing"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/stretchr/testify/require"
)

func TestNewProfileUpdate(t *testing.T) {
	t.Run("keeps name and email only", func(t *testing.T) {
		p := backend.NewProfileUpdate(map[string]any{
			"nome":     "  Ana Maria ",
			"email":    "ana@example.com",
			"is_admin": true,
			"tipo":     "vendedor",
			"id":       99,
		})
		require.False(t, p.Empty())
		require.Nil(t, p.Validate())
		require.Equal(t, map[string]any{"nome": "Ana Maria", "email": "ana@example.com"}, p.Fields())
	})

	t.Run("non string values are ignored", func(t *testing.T) {
		p := backend.NewProfileUpdate(map[string]any{"nome": 12, "email": nil, "is_admin": true})
		require.True(t, p.Empty())
		require.Empty(t, p.Fields())
	})

	t.Run("validation", func(t *testing.T) {
		errs := backend.NewProfileUpdate(map[string]any{"nome": " ", "email": "nope"}).Validate()
		require.Equal(t, "Nome é obrigatório", errs[backend.FieldName])
		require.Equal(t, "Email inválido", errs[backend.FieldEmail])
	})
}

func TestProfileResource(t *testing.T) {
	r, ok := backend.ProfileResource(roles.RoleCustomer)
	require.True(t, ok)
	require.Equal(t, backend.ResourceCustomers, r)

	r, ok = backend.ProfileResource(roles.RoleStaff)
	require.True(t, ok)
	require.Equal(t, backend.ResourceSellers, r)

	_, ok = backend.ProfileResource(roles.RoleNone)
	require.False(t, ok)
}
