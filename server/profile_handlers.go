package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/guard"
	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/rs/zerolog/log"
)

const (
	profileSavedMessage   = "Informações atualizadas com sucesso!"
	accountDeletedMessage = "Conta excluída com sucesso."
)

// profilePath is the dashboard page showing the user's own record
func profilePath(role roles.Role) string {
	return role.HomePath() + "/" + profilePageSlug
}

// saveProfile writes the change to the user's backend record first and to the session only
// once the backend has accepted it
func (s *Server) saveProfile(ctx context.Context, store *session.Store, current session.Session, update backend.ProfileUpdate) error {
	resource, ok := backend.ProfileResource(current.Role)
	if !ok {
		return fmt.Errorf("[Server saveProfile] no profile collection for role %q", current.Role)
	}

	var saved map[string]any
	if err := s.backend.Resources(ctx, current.Token).Update(ctx, resource, current.UserID, update, &saved); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
			store.LogoutIfToken(ctx, current.Token)
		}
		return fmt.Errorf("[Server saveProfile] %w", err)
	}

	// The backend may normalise what it stores (a lower-cased email)
	fields := update.Fields()
	for _, key := range []string{session.ProfileName, session.ProfileEmail} {
		if v, ok := saved[key].(string); ok && fields[key] != nil {
			fields[key] = v
		}
	}
	if err := store.UpdateProfile(ctx, fields); err != nil {
		return fmt.Errorf("[Server saveProfile] %w", err)
	}
	return nil
}

// deleteAccount deletes the user's backend record and then ends the session
func (s *Server) deleteAccount(ctx context.Context, store *session.Store, current session.Session) error {
	resource, ok := backend.ProfileResource(current.Role)
	if !ok {
		return fmt.Errorf("[Server deleteAccount] no profile collection for role %q", current.Role)
	}

	err := s.backend.Resources(ctx, current.Token).Delete(ctx, resource, current.UserID)
	if err != nil && !apperrors.Is(err, apperrors.ErrInvalidCredentials) {
		return fmt.Errorf("[Server deleteAccount] %w", err)
	}
	store.LogoutIfToken(ctx, current.Token)
	return err
}

// ProfileSubmissionHandler saves the profile form of the info-pessoal page
// (POST /clientes/info-pessoal, POST /vendedores/info-pessoal)
func (s *Server) ProfileSubmissionHandler(role roles.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := guard.SessionFrom(r.Context())
		if !ok || current.Role != role {
			redirectSuccess(w, r, RouteLogin)
			return
		}
		page := profilePath(role)

		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, page, "Requisição inválida")
			return
		}
		update := backend.NewProfileUpdate(map[string]any{
			backend.FieldName:  r.PostFormValue(backend.FieldName),
			backend.FieldEmail: r.PostFormValue(backend.FieldEmail),
		})
		if errs := update.Validate(); errs != nil {
			redirectWithError(w, r, page, strings.Join(sortedFieldErrors(errs), ". "))
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Profile: no session store")
			redirectWithError(w, r, page, "Sessão indisponível")
			return
		}

		if err := s.saveProfile(r.Context(), store, current, update); err != nil {
			log.Err(err).Str("id", current.UserID).Str("tipo", role.String()).Msg("Profile update failed")
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
				redirectWithError(w, r, RouteLogin, sessionExpiredMessage)
				return
			}
			redirectWithError(w, r, page, backend.UserMessage(err))
			return
		}
		redirectWithQuery(w, r, page, url.Values{"info": {profileSavedMessage}})
	}
}

// DeleteAccountHandler deletes the user's own account and logs out (POST /conta/excluir)
func (s *Server) DeleteAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := guard.SessionFrom(r.Context())
		if !ok {
			redirectSuccess(w, r, RouteLogin)
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Delete account: no session store")
			redirectWithError(w, r, profilePath(current.Role), "Sessão indisponível")
			return
		}

		if err := s.deleteAccount(r.Context(), store, current); err != nil {
			log.Err(err).Str("id", current.UserID).Str("tipo", current.Role.String()).Msg("Delete account failed")
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
				redirectWithError(w, r, RouteLogin, sessionExpiredMessage)
				return
			}
			redirectWithError(w, r, profilePath(current.Role), "Erro ao excluir conta. Tente novamente.")
			return
		}
		redirectWithQuery(w, r, RouteLogin, url.Values{"info": {accountDeletedMessage}})
	}
}

// DeleteAccountAPIHandler is the JSON variant of DeleteAccountHandler (DELETE /api/session/account)
func (s *Server) DeleteAccountAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := guard.SessionFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"erro": "Não autenticado"})
			return
		}

		store, err := s.browserStore(w, r)
		if err != nil {
			log.Err(err).Msg("Delete account: no session store")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"erro": "Sessão indisponível"})
			return
		}

		if err := s.deleteAccount(r.Context(), store, current); err != nil {
			log.Err(err).Str("id", current.UserID).Msg("Delete account failed")
			writeJSON(w, backendStatus(err), map[string]string{"erro": backend.UserMessage(err)})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// backendStatus is the status relayed for a failed backend call: its own 4xx, 502 otherwise
func backendStatus(err error) int {
	var apiErr *backend.APIError
	if apperrors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
