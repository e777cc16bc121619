package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/guard"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/rs/zerolog/log"
)

// sessionView is the JSON shape of a session. The token never leaves the portal.
type sessionView struct {
	ID      string `json:"id"`
	Role    string `json:"tipo"`
	Name    string `json:"nome"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type sessionStatus struct {
	Ready         bool         `json:"ready"`
	Authenticated bool         `json:"authenticated"`
	Session       *sessionView `json:"session"`
}

func newSessionView(s session.Session) *sessionView {
	return &sessionView{
		ID:      s.UserID,
		Role:    s.Role.String(),
		Name:    s.DisplayName,
		Email:   s.Email,
		IsAdmin: s.IsPrivileged,
	}
}

// SessionStatusHandler reports the browser's auth state (GET /api/session)
func (s *Server) SessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Session status: no session store")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"erro": "Sessão indisponível"})
			return
		}

		status := sessionStatus{Ready: store.Ready()}
		if current, ok := store.Snapshot(); ok {
			status.Authenticated = true
			status.Session = newSessionView(current)
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// UpdateProfileHandler changes the user's name or email (PATCH /api/session/profile). The
// backend record is updated first; the session follows once the backend accepts. Other fields,
// is_admin among them, are ignored.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&fields); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"erro": "JSON inválido"})
			return
		}

		current, ok := guard.SessionFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"erro": "Não autenticado"})
			return
		}

		update := backend.NewProfileUpdate(fields)
		if update.Empty() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"erro": "Nenhum campo para atualizar"})
			return
		}
		if errs := update.Validate(); errs != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"erro": "Verifique os campos destacados.", "erros": errs})
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Update profile: no session store")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"erro": "Sessão indisponível"})
			return
		}

		if err := s.saveProfile(r.Context(), store, current, update); err != nil {
			log.Err(err).Str("id", current.UserID).Msg("Update profile failed")
			status := backendStatus(err)
			if apperrors.Is(err, apperrors.ErrStorage) {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, map[string]string{"erro": backend.UserMessage(err)})
			return
		}

		updated, ok := store.Snapshot()
		if !ok {
			// Logged out while the backend call was in flight
			writeJSON(w, http.StatusUnauthorized, map[string]string{"erro": "Não autenticado"})
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(updated))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}
