package server

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static/*
var staticFiles embed.FS

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

// serveFileHandler serves embedded assets. Anything missing or not a regular file is a 404.
func (s *Server) serveFileHandler() http.HandlerFunc {
	assets := StaticFilesFS()
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)[1:]
		info, err := fs.Stat(assets, name)
		if err != nil || info.IsDir() {
			if err != nil {
				logError(r.Method, r.URL.Path, err.Error())
			}
			http.NotFound(w, r)
			return
		}
		http.ServeFileFS(w, r, assets, name)
	}
}
