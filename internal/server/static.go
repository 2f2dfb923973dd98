package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
)

// registerStatic serves the built web client from webDir. Assets live under
// /assets/; every other unmatched path returns index.html so client-side
// routing works. When no bundle exists the root returns a build hint instead.
func (s *APIServer) registerStatic(r *mux.Router) {
	index := filepath.Join(s.webDir, "index.html")
	if s.webDir == "" || !fileExists(index) {
		r.HandleFunc("/", s.handleNoFrontend).Methods(http.MethodGet)
		return
	}

	assets := http.FileServer(http.Dir(filepath.Join(s.webDir, "assets")))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", assets))

	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, index)
	}).Methods(http.MethodGet)
}

func (s *APIServer) handleNoFrontend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Web client not built yet. Run: cd web && npm install && npm run build",
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
