// Package ui embeds the read-only status page served at "/".
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var distFS embed.FS

// Handler serves the embedded status page. Only "/" and files under dist resolve; anything else
// is a 404 so mistyped API paths are not masked by HTML.
func Handler() http.Handler {
	sub, _ := fs.Sub(distFS, "dist")
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "/" {
			http.ServeFileFS(w, r, sub, "index.html")
			return
		}
		f, err := sub.Open(r.URL.Path[1:])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		_ = f.Close()
		fileServer.ServeHTTP(w, r)
	})
}

// IsAsset reports whether path is served by Handler without authentication.
func IsAsset(path string) bool {
	if path == "/" {
		return true
	}
	if len(path) < 2 {
		return false
	}
	f, err := distFS.Open("dist/" + path[1:])
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
