package server

import (
	"net/http"

	"github.com/jrsteele09/atelier-portal/guard"
)

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		current, loggedIn := guard.SessionFrom(r.Context())
		data := map[string]interface{}{
			"AppName":  s.config.GetAppName(),
			"LoggedIn": loggedIn && current.Complete(),
			"Session":  current,
			"Home":     current.Role.HomePath(),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		_ = tmpl.Execute(w, data)
	}
}
