package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/guard"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/rs/zerolog/log"
)

const (
	dashboardHome   = "home"
	profilePageSlug = "info-pessoal"

	sessionExpiredMessage = "Sessão expirada. Faça login novamente."
)

// dashboardPage is one entry of a role's dashboard navigation
type dashboardPage struct {
	Slug     string
	Title    string
	Resource backend.Resource // Empty for the home page
	Self     bool             // Show the logged-in user's own record instead of a list
	Columns  []string
}

var dashboardPages = map[roles.Role][]dashboardPage{
	roles.RoleCustomer: {
		{Slug: dashboardHome, Title: "Início"},
		{Slug: profilePageSlug, Title: "Dados pessoais", Resource: backend.ResourceCustomers, Self: true},
		{Slug: "pedido", Title: "Fazer pedido", Resource: backend.ResourceParts, Columns: []string{"id", "nome", "descricao", "preco"}},
		{Slug: "carrinho", Title: "Meus pedidos", Resource: backend.ResourceOrders, Columns: []string{"id", "status", "data", "valor_total"}},
	},
	roles.RoleStaff: {
		{Slug: dashboardHome, Title: "Início"},
		{Slug: profilePageSlug, Title: "Dados pessoais", Resource: backend.ResourceSellers, Self: true},
		{Slug: "clientes", Title: "Clientes", Resource: backend.ResourceCustomers, Columns: []string{"id", "nome", "email", "telefone"}},
		{Slug: "gerenciar", Title: "Vendedores", Resource: backend.ResourceSellers, Columns: []string{"id", "nome", "email", "data_admissao", "is_admin"}},
		{Slug: "pedidos", Title: "Pedidos", Resource: backend.ResourceOrders, Columns: []string{"id", "cliente_id", "status", "valor_total"}},
		{Slug: "pecas", Title: "Peças", Resource: backend.ResourceParts, Columns: []string{"id", "nome", "preco", "estoque"}},
	},
}

func findDashboardPage(role roles.Role, slug string) (dashboardPage, bool) {
	if slug == "" {
		slug = dashboardHome
	}
	for _, p := range dashboardPages[role] {
		if p.Slug == slug {
			return p, true
		}
	}
	return dashboardPage{}, false
}

type navItem struct {
	Title  string
	Path   string
	Active bool
}

// profileForm prefills the self-service edit form of the info-pessoal page
type profileForm struct {
	Action string
	Name   string
	Email  string
}

type recordField struct {
	Label string
	Value string
}

// DashboardPageData is the model for dashboard.html
type DashboardPageData struct {
	AppName   string
	RoleLabel string
	Session   session.Session
	Nav       []navItem
	Title     string
	Home      bool
	Error     string
	Info      string
	Profile   *profileForm
	Columns   []string
	Rows      [][]string
	Record    []recordField
}

// DashboardHandler renders a role's dashboard (GET /clientes/{page...}, GET /vendedores/{page...}).
// The guard has already checked the role; data comes from the backend with the session's token.
func (s *Server) DashboardHandler(role roles.Role) http.HandlerFunc {
	tmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		panic("Failed to parse dashboard template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := guard.SessionFrom(r.Context())
		if !ok || current.Role != role {
			redirectSuccess(w, r, RouteLogin)
			return
		}

		page, found := findDashboardPage(role, strings.Trim(r.PathValue("page"), "/"))
		if !found {
			redirectSuccess(w, r, role.HomePath())
			return
		}

		data := DashboardPageData{
			AppName:   s.config.GetAppName(),
			RoleLabel: role.Label(),
			Session:   current,
			Nav:       dashboardNav(role, page.Slug),
			Title:     page.Title,
			Home:      page.Resource == "",
			Error:     r.URL.Query().Get("error"),
			Info:      r.URL.Query().Get("info"),
		}
		if page.Self {
			data.Profile = &profileForm{
				Action: profilePath(role),
				Name:   current.DisplayName,
				Email:  current.Email,
			}
		}

		if !data.Home {
			if err := s.loadDashboardData(r, current, page, &data); err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
					s.endRejectedSession(w, r, current.Token)
					return
				}
				log.Err(err).Str("page", page.Slug).Str("tipo", role.String()).Msg("Dashboard data unavailable")
				data.Error = backend.UserMessage(err)
			}
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render dashboard template")
		}
	}
}

func dashboardNav(role roles.Role, active string) []navItem {
	pages := dashboardPages[role]
	nav := make([]navItem, 0, len(pages))
	for _, p := range pages {
		path := role.HomePath()
		if p.Slug != dashboardHome {
			path += "/" + p.Slug
		}
		nav = append(nav, navItem{Title: p.Title, Path: path, Active: p.Slug == active})
	}
	return nav
}

func (s *Server) loadDashboardData(r *http.Request, current session.Session, page dashboardPage, data *DashboardPageData) error {
	resources := s.backend.Resources(r.Context(), current.Token)

	if page.Self {
		var record map[string]any
		if err := resources.Get(r.Context(), page.Resource, current.UserID, &record); err != nil {
			return fmt.Errorf("[Server Dashboard] get %s/%s: %w", page.Resource, current.UserID, err)
		}
		data.Record = recordFields(record)
		return nil
	}

	var records []map[string]any
	if err := resources.List(r.Context(), page.Resource, &records); err != nil {
		return fmt.Errorf("[Server Dashboard] list %s: %w", page.Resource, err)
	}
	data.Columns = page.Columns
	data.Rows = make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(page.Columns))
		for _, col := range page.Columns {
			row = append(row, displayValue(rec[col]))
		}
		data.Rows = append(data.Rows, row)
	}
	return nil
}

// endRejectedSession logs the browser out after the backend refused rejected, unless the
// browser has moved on to a newer session since
func (s *Server) endRejectedSession(w http.ResponseWriter, r *http.Request, rejected string) {
	if store, err := s.browserStore(w, r); err == nil {
		store.LogoutIfToken(r.Context(), rejected)
	}
	redirectWithError(w, r, RouteLogin, sessionExpiredMessage)
}

func recordFields(record map[string]any) []recordField {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]recordField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, recordField{Label: k, Value: displayValue(record[k])})
	}
	return fields
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "Sim"
		}
		return "Não"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprint(val)
	}
}
