package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/guard"
	"github.com/jrsteele09/atelier-portal/internal/config"
	"github.com/jrsteele09/atelier-portal/server/browsersession"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	backend      *backend.Client
	sessions     browsersession.Repo
	guard        *guard.Guard
	cookieMaxAge time.Duration
	registerTmpl *template.Template // Shared by the register page and its submission
}

func New(config config.Config, client *backend.Client, sessions browsersession.Repo) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("[Server New] backend client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] browser session repo is required")
	}

	s := &Server{
		env:          config.GetEnv(),
		mux:          http.NewServeMux(),
		config:       config,
		backend:      client,
		sessions:     sessions,
		cookieMaxAge: config.GetBrowserCookieMaxAge(),
	}
	registerTmpl, err := ParseTemplate("register.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse register template: %w", err)
	}
	s.registerTmpl = registerTmpl

	s.guard = guard.New(s.resolveState,
		guard.WithLoginPath(RouteLogin),
		guard.WithRefreshInterval(config.GetLoadingRefreshInterval()),
	)

	s.initRoutes()
	s.logRoutes()
	log.Info().Str("backend", client.BaseURL()).Int("routes", len(s.routes)).Msg("Portal ready")

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}


func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
