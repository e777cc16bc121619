package roles

import (
	"fmt"
	"strings"
)

// Role classifies a portal user. The set is closed: anything else is rejected.
type Role string

const (
	RoleNone     Role = ""
	RoleCustomer Role = "cliente"  // Places and tracks orders
	RoleStaff    Role = "vendedor" // Manages customers, sellers, parts and orders
)

var all = []Role{RoleCustomer, RoleStaff}

// All returns every known role
func All() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

// Parse validates a wire value against the closed role set
func Parse(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	for _, known := range all {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable name shown in page chrome
func (r Role) Label() string {
	switch r {
	case RoleCustomer:
		return "Cliente"
	case RoleStaff:
		return "Vendedor"
	default:
		return ""
	}
}

// HomePath is where a freshly logged-in user of this role lands
func (r Role) HomePath() string {
	switch r {
	case RoleCustomer:
		return "/clientes"
	case RoleStaff:
		return "/vendedores"
	default:
		return "/login"
	}
}
