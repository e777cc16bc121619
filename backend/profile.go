package backend

import (
	"strings"

	"github.com/jrsteele09/atelier-portal/roles"
)

// ProfileUpdate is a self-service change to the logged-in user's own record. Nil fields are
// left as they are.
type ProfileUpdate struct {
	Name  *string `json:"nome,omitempty"`
	Email *string `json:"email,omitempty"`
}

// NewProfileUpdate keeps the string valued name and email of fields, trimmed. Anything else,
// the role and admin flag included, is dropped.
func NewProfileUpdate(fields map[string]any) ProfileUpdate {
	var p ProfileUpdate
	if v, ok := fields[FieldName].(string); ok {
		v = strings.TrimSpace(v)
		p.Name = &v
	}
	if v, ok := fields[FieldEmail].(string); ok {
		v = strings.TrimSpace(v)
		p.Email = &v
	}
	return p
}

func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// Validate applies the sign-up rules to the fields being changed
func (p ProfileUpdate) Validate() FieldErrors {
	errs := FieldErrors{}
	if p.Name != nil && *p.Name == "" {
		errs[FieldName] = "Nome é obrigatório"
	}
	if p.Email != nil {
		switch {
		case *p.Email == "":
			errs[FieldEmail] = "Email é obrigatório"
		case !emailPattern.MatchString(*p.Email):
			errs[FieldEmail] = "Email inválido"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Fields is the update keyed by the backend's field names
func (p ProfileUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields[FieldName] = *p.Name
	}
	if p.Email != nil {
		fields[FieldEmail] = *p.Email
	}
	return fields
}

// ProfileResource is the collection holding a role's own records
func ProfileResource(role roles.Role) (Resource, bool) {
	switch role {
	case roles.RoleCustomer:
		return ResourceCustomers, true
	case roles.RoleStaff:
		return ResourceSellers, true
	default:
		return "", false
	}
}
