package server

import (
	"net/http"
	"strings"
)

// PINHeader is the HTTP header carrying the client credential.
const PINHeader = "X-PIN"

const (
	msgInvalidPIN     = "Invalid or missing PIN. Set X-PIN header."
	msgServerInactive = "Server is currently inactive."
)

// wrapWithGate enforces the PIN and server-enabled policy before any handler
// runs. Rejections are written directly as typed JSON responses so they can
// never be masked as generic server errors.
//
// Decision order, first match wins:
//  1. static client paths and /health are always allowed
//  2. inactive server rejects everything else with 503
//  3. WebSocket upgrades pass through; the relay verifies the credential
//     during its own handshake (it arrives as a query parameter, not a header)
//  4. no configured PIN allows the request
//  5. the X-PIN header must match exactly
func (s *APIServer) wrapWithGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isUngatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !s.runtime.Active() {
			writeError(w, http.StatusServiceUnavailable, msgServerInactive)
			return
		}

		if isWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}

		if !s.runtime.PINRequired() {
			next.ServeHTTP(w, r)
			return
		}

		if !s.runtime.VerifyPIN(r.Header.Get(PINHeader)) {
			writeError(w, http.StatusUnauthorized, msgInvalidPIN)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isUngatedPath reports whether the path serves the static client bundle or
// the health probe. These carry no sensitive capability and stay reachable
// regardless of PIN and active flag.
func isUngatedPath(path string) bool {
	return path == "/" || path == "/health" || strings.HasPrefix(path, "/assets/")
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// wrapWithCORS allows cross-origin requests from any origin. The daemon is
// reachable only on the local network; the PIN gate, not the origin, is the
// access control.
func wrapWithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+PINHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
