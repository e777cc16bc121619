package backend

import (
	"regexp"
	"strings"

	"github.com/jrsteele09/atelier-portal/internal/utils"
	"github.com/jrsteele09/atelier-portal/roles"
)

// Field keys used in FieldErrors. They match the backend's payload keys.
const (
	FieldName          = "nome"
	FieldEmail         = "email"
	FieldPassword      = "senha"
	FieldRole          = "tipo"
	FieldAdmissionDate = "data_admissao"
	FieldAdminSecret   = "jwt_secret"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegistrationForm is a sign-up submission. Address applies to customers; AdmissionDate
// and the admin elevation fields apply to sellers only.
type RegistrationForm struct {
	Name          string
	Email         string
	Phone         string
	Password      string
	Role          roles.Role
	Address       string
	AdmissionDate string // YYYY-MM-DD
	RequestAdmin  bool
	AdminSecret   string
}

// FieldErrors maps a form field to the message shown next to it
type FieldErrors map[string]string

// Validate applies the sign-up rules before anything is sent to the backend
func (f RegistrationForm) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = "Nome é obrigatório"
	}

	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		errs[FieldEmail] = "Email é obrigatório"
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = "Email inválido"
	}

	switch {
	case strings.TrimSpace(f.Password) == "":
		errs[FieldPassword] = "Senha é obrigatória"
	case len(f.Password) < minPasswordLength:
		errs[FieldPassword] = "Senha deve ter pelo menos 6 caracteres"
	}

	if !f.Role.Valid() {
		errs[FieldRole] = "Escolha o tipo de conta"
	}

	if f.Role == roles.RoleStaff {
		if strings.TrimSpace(f.AdmissionDate) == "" {
			errs[FieldAdmissionDate] = "Data de Admissão é obrigatória para vendedores"
		}
		if f.RequestAdmin && strings.TrimSpace(f.AdminSecret) == "" {
			errs[FieldAdminSecret] = "O Secret JWT é obrigatório para registrar como administrador."
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

type registerPayload struct {
	Name          string     `json:"nome"`
	Email         string     `json:"email"`
	Phone         *string    `json:"telefone"`
	Password      string     `json:"senha"`
	Role          roles.Role `json:"tipo"`
	Address       *string    `json:"endereco,omitempty"`
	AdmissionDate string     `json:"data_admissao,omitempty"`
	IsAdmin       *bool      `json:"is_admin,omitempty"`
	AdminSecret   string     `json:"jwt_secret,omitempty"`
}

// payload shapes the wire body. Customers never carry elevation fields.
func (f RegistrationForm) payload() registerPayload {
	p := registerPayload{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Phone:    utils.NilIfBlank(f.Phone),
		Password: f.Password,
		Role:     f.Role,
	}

	switch f.Role {
	case roles.RoleCustomer:
		p.Address = utils.NilIfBlank(f.Address)
	case roles.RoleStaff:
		p.AdmissionDate = strings.TrimSpace(f.AdmissionDate)
		if f.RequestAdmin {
			p.IsAdmin = utils.Ptr(true)
			p.AdminSecret = f.AdminSecret
		}
	}
	return p
}
