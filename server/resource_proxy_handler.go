package server

import (
	"io"
	"net/http"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/guard"
	"github.com/rs/zerolog/log"
)

// proxiedHeaders are the backend response headers relayed to the browser
var proxiedHeaders = []string{"Content-Type", "Location", "Retry-After"}

// ResourceProxyHandler relays /api/resources/{resource}/{rest...} to the backend with the
// session's bearer token. A 401 from the backend ends the session that sent the token.
func (s *Server) ResourceProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := guard.SessionFrom(r.Context())
		if !ok || current.Token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"erro": "Não autenticado"})
			return
		}

		resource, ok := backend.ParseResource(r.PathValue("resource"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"erro": "Recurso desconhecido"})
			return
		}

		resp, err := s.backend.Resources(r.Context(), current.Token).Forward(
			r.Context(), r.Method, resource, r.PathValue("rest"), r.URL.RawQuery, r.Body, r.Header.Get("Content-Type"))
		if err != nil {
			log.Err(err).Str("resource", string(resource)).Msg("Resource proxy failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"erro": backend.UserMessage(err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			if store, err := s.browserStore(w, r); err == nil {
				store.LogoutIfToken(r.Context(), current.Token)
			}
		}

		for _, h := range proxiedHeaders {
			if v := resp.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Err(err).Str("resource", string(resource)).Msg("Resource proxy copy failed")
		}
	}
}
