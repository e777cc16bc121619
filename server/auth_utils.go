package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jrsteele09/atelier-portal/guard"
	"github.com/jrsteele09/atelier-portal/session"
)

// browserCookieName identifies a browser and so its storage namespace and session store
const browserCookieName = "atelier_browser"

// browserID returns the browser's id, issuing a new cookie when it has none or a malformed one
func (s *Server) browserID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(browserCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     browserCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cookieMaxAge.Seconds()),
	}
	http.SetCookie(w, cookie)
	// Later handlers in this request must see the same id
	others := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range others {
		if c.Name != browserCookieName {
			r.AddCookie(c)
		}
	}
	r.AddCookie(&http.Cookie{Name: browserCookieName, Value: id})
	return id
}

// browserStore returns the session store of the browser making r
func (s *Server) browserStore(w http.ResponseWriter, r *http.Request) (*session.Store, error) {
	store, err := s.sessions.GetOrCreate(r.Context(), s.browserID(w, r))
	if err != nil {
		return nil, fmt.Errorf("[Server browserStore] %w", err)
	}
	return store, nil
}

// resolveState adapts browserStore for the guard
func (s *Server) resolveState(w http.ResponseWriter, r *http.Request) (guard.State, error) {
	store, err := s.browserStore(w, r)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithQuery helper for htmx-aware redirects carrying messages (error, info, email)
func redirectWithQuery(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	redirectSuccess(w, r, path)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectWithQuery(w, r, path, url.Values{"error": {errorMsg}})
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
