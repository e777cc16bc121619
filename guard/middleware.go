package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/atelier-portal/session"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLoginPath       = "/login"
	DefaultRefreshInterval = time.Second
)

// StateResolver finds the session state of the browser making r
type StateResolver func(w http.ResponseWriter, r *http.Request) (State, error)

// Guard turns Decide outcomes into HTTP responses
type Guard struct {
	resolve   StateResolver
	loginPath string
	refresh   time.Duration
}

type Option func(*Guard)

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

// WithRefreshInterval sets how often the loading placeholder polls again
func WithRefreshInterval(d time.Duration) Option {
	return func(g *Guard) {
		g.refresh = d
	}
}

func New(resolve StateResolver, options ...Option) *Guard {
	g := &Guard{
		resolve:   resolve,
		loginPath: DefaultLoginPath,
		refresh:   DefaultRefreshInterval,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

type contextKey struct{}

// SessionFrom returns the session the guard attached to a rendered request
func SessionFrom(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(session.Session)
	return s, ok
}

// WithSession attaches s to ctx the way Require does
func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Decide resolves the browser's state and decides. Resolver failures and panics redirect.
func (g *Guard) Decide(w http.ResponseWriter, r *http.Request, req Requirement) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			d = Decision{Outcome: Redirect, Reason: fmt.Sprintf("guard failure: %v", rec)}
		}
	}()

	if g.resolve == nil {
		return Decision{Outcome: Redirect, Reason: "no state resolver"}
	}
	state, err := g.resolve(w, r)
	if err != nil {
		log.Err(err).Str("path", r.URL.Path).Msg("guard could not resolve session")
		return Decision{Outcome: Redirect, Reason: "session unavailable"}
	}
	return Decide(state, req)
}

// Require guards HTML pages: loading placeholder, 303 to the login page, or the page itself
func (g *Guard) Require(req Requirement) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(w, r, req)
			switch d.Outcome {
			case Render:
				next(w, r.WithContext(WithSession(r.Context(), d.Session)))
			case Loading:
				g.writeLoading(w, r)
			default:
				log.Debug().Str("path", r.URL.Path).Str("reason", d.Reason).Msg("guard redirect")
				g.redirect(w, r)
			}
		}
	}
}

// RequireJSON guards API endpoints: 503 while loading, 401 instead of a redirect
func (g *Guard) RequireJSON(req Requirement) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(w, r, req)
			switch d.Outcome {
			case Render:
				next(w, r.WithContext(WithSession(r.Context(), d.Session)))
			case Loading:
				w.Header().Set("Retry-After", strconv.Itoa(int(max(g.refresh, time.Second)/time.Second)))
				writeJSONError(w, http.StatusServiceUnavailable, "Sessão sendo carregada")
			default:
				writeJSONError(w, http.StatusUnauthorized, "Não autenticado")
			}
		}
	}
}

func (g *Guard) redirect(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", g.loginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
}

var loadingPage = template.Must(template.New("loading").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Seconds}}">
<title>Carregando...</title>
</head>
<body>
<div class="loading" role="status">Carregando...</div>
</body>
</html>
`))

func (g *Guard) writeLoading(w http.ResponseWriter, r *http.Request) {
	seconds := int(g.refresh / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := loadingPage.Execute(w, struct{ Seconds int }{seconds}); err != nil {
		log.Err(err).Str("path", r.URL.Path).Msg("failed to write loading page")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"erro": msg})
}
