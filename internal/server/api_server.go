package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kumanda-app/kumanda/internal/state"
	"github.com/kumanda-app/kumanda/internal/system"
)

// APIServer provides the HTTP and realtime surface of the Kumanda daemon.
// All handlers read live runtime state; none cache the PIN or the active
// flag across requests.
type APIServer struct {
	runtime *state.Runtime
	caps    system.Capabilities
	relay   *Relay
	webDir  string
}

// NewAPIServer creates an API server bound to the shared runtime state and
// the capability adapters detected at startup. webDir points at the built
// frontend bundle; it may be empty or missing.
func NewAPIServer(runtime *state.Runtime, caps system.Capabilities, webDir string) (*APIServer, error) {
	if runtime == nil {
		return nil, fmt.Errorf("runtime state is required")
	}

	return &APIServer{
		runtime: runtime,
		caps:    caps,
		relay:   NewRelay(runtime, caps.Input),
		webDir:  webDir,
	}, nil
}

// Handler assembles the full route table wrapped in the PIN gate and CORS
// middleware.
func (s *APIServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/audio/status", s.handleAudioStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/audio/volume", s.handleSetVolume).Methods(http.MethodPost)
	r.HandleFunc("/api/audio/mute", s.handleToggleMute).Methods(http.MethodPost)
	r.HandleFunc("/api/audio/media/{action}", s.handleMediaKey).Methods(http.MethodPost)

	r.HandleFunc("/api/display/status", s.handleDisplayStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/display/brightness", s.handleSetBrightness).Methods(http.MethodPost)

	r.HandleFunc("/ws/mouse", s.relay.HandleUpgrade)

	s.registerStatic(r)

	return wrapWithCORS(s.wrapWithGate(r))
}

// PrepareHTTPServer builds the http.Server for the given transport settings.
func (s *APIServer) PrepareHTTPServer(host string, port int) (*http.Server, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid HTTP port %d", port)
	}

	return &http.Server{
		Addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		Handler: s.Handler(),
	}, nil
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "kumanda",
	})
}
