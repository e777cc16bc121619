package server

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/jrsteele09/atelier-portal/backend"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/rs/zerolog/log"
)

// RegisterPageData is the registration form model. Values are echoed back after a failed submit.
type RegisterPageData struct {
	AppName     string
	Error       string
	FieldErrors map[string]string
	Problems    []string // FieldErrors in a stable order for the summary box
	Form        backend.RegistrationForm
	Roles       []roles.Role
}

// RegisterPageUIHandler renders the registration page (GET /register)
func (s *Server) RegisterPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := roles.Parse(r.URL.Query().Get("tipo"))
		if err != nil {
			role = roles.RoleCustomer
		}
		s.renderRegisterPage(w, http.StatusOK, RegisterPageData{
			Error: r.URL.Query().Get("error"),
			Form:  backend.RegistrationForm{Role: role},
		})
	}
}

// RegisterSubmissionHandler handles the registration form (POST /auth/register). Field errors
// re-render the form in place; success lands on the role's dashboard or the login page.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := backend.RegistrationForm{
			Name:          r.FormValue("nome"),
			Email:         r.FormValue("email"),
			Phone:         r.FormValue("telefone"),
			Password:      r.FormValue("senha"),
			Role:          roles.Role(r.FormValue("tipo")),
			Address:       r.FormValue("endereco"),
			AdmissionDate: r.FormValue("data_admissao"),
			RequestAdmin:  r.FormValue("is_admin") == "on" || r.FormValue("is_admin") == "true",
			AdminSecret:   r.FormValue("jwt_secret"),
		}

		if fieldErrs := form.Validate(); fieldErrs != nil {
			s.renderRegisterPage(w, http.StatusUnprocessableEntity, RegisterPageData{
				Error:       "Verifique os campos destacados",
				FieldErrors: fieldErrs,
				Form:        form,
			})
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Register: no session store")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		if err := store.WaitReady(r.Context()); err != nil {
			return
		}

		result, err := store.Register(r.Context(), form)
		if err != nil {
			log.Err(err).Str("email", form.Email).Msg("Registration failed")
			data := RegisterPageData{Error: backend.UserMessage(err), Form: form}
			var apiErr *backend.APIError
			if apperrors.As(err, &apiErr) {
				data.FieldErrors = apiErr.FieldErrors
			}
			s.renderRegisterPage(w, http.StatusOK, data)
			return
		}

		if result.LoggedIn {
			redirectSuccess(w, r, store.Role().HomePath())
			return
		}
		redirectWithQuery(w, r, RouteLogin, url.Values{
			"info":  {"Cadastro realizado. Faça login para continuar."},
			"email": {form.Email},
			"tipo":  {form.Role.String()},
		})
	}
}

func (s *Server) renderRegisterPage(w http.ResponseWriter, status int, data RegisterPageData) {
	data.AppName = s.config.GetAppName()
	data.Roles = roles.All()
	data.Problems = sortedFieldErrors(data.FieldErrors)
	data.Form.Password = ""
	data.Form.AdminSecret = ""

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := s.registerTmpl.Execute(w, data); err != nil {
		log.Err(err).Msg("Failed to render register template")
	}
}

// sortedFieldErrors lists field errors in a stable order for the summary box
func sortedFieldErrors(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fields[k])
	}
	return out
}
