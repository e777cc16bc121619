package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Error   string
	Info    string
	Email   string // Preserve email on error
	Role    roles.Role
	Roles   []roles.Role
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		role, err := roles.Parse(q.Get("tipo"))
		if err != nil {
			role = roles.RoleCustomer
		}

		data := LoginPageData{
			AppName: s.config.GetAppName(),
			Error:   q.Get("error"),
			Info:    q.Get("info"),
			Email:   q.Get("email"),
			Role:    role,
			Roles:   roles.All(),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("senha")
		role, err := roles.Parse(r.FormValue("tipo"))
		if err != nil {
			s.renderLoginError(w, r, "Selecione o tipo de usuário", email, roles.RoleNone)
			return
		}
		if email == "" || password == "" {
			s.renderLoginError(w, r, "Email e senha são obrigatórios", email, role)
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Login: no session store")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		if err := store.WaitReady(r.Context()); err != nil {
			return // Client went away
		}

		err = store.Login(r.Context(), backend.Credentials{Email: email, Password: password, Role: role})
		if err != nil {
			log.Err(err).Str("email", email).Str("tipo", role.String()).Msg("Login failed")
			s.renderLoginError(w, r, backend.UserMessage(err), email, role)
			return
		}

		redirectSuccess(w, r, store.Role().HomePath())
	}
}

// LogoutHandler ends the browser's session (GET|POST /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Logout: no session store")
			redirectSuccess(w, r, RouteLogin)
			return
		}

		store.Logout(r.Context())
		if err := store.LastError(); err != nil {
			log.Err(err).Msg("Logout: storage not fully cleared")
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string, role roles.Role) {
	query := url.Values{"error": {errorMsg}}
	if email != "" {
		query.Set("email", email)
	}
	if role.Valid() {
		query.Set("tipo", role.String())
	}
	redirectWithQuery(w, r, RouteLogin, query)
}
