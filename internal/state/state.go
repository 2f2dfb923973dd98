// Package state holds the live runtime configuration shared by every
// request-handling goroutine: the PIN, the server-enabled flag, and the
// registry of connected realtime sessions. The admin surface mutates it;
// the HTTP gate and the relay read it on every request so changes take
// effect immediately without a restart.
package state

import (
	"crypto/subtle"
	"strings"
	"sync"
)

// CloseReauthenticate is the WebSocket close code sent when a session is
// force-closed because the credential changed and the client must reconnect.
const CloseReauthenticate = 4401

// Session is the handle the runtime keeps for one connected realtime client.
// CloseWithCode must not block on client acknowledgment; it is invoked
// best-effort from administrative contexts.
type Session interface {
	ID() string
	CloseWithCode(code int, reason string)
}

// Runtime is the single process-wide mutable state object. Construct it once
// at daemon start and inject it into every component that needs it.
type Runtime struct {
	mu     sync.RWMutex
	pin    string
	active bool

	sessionsMu sync.Mutex
	sessions   map[Session]struct{}
}

// NewRuntime creates runtime state seeded with the given PIN (empty disables
// authentication) and server-enabled flag.
func NewRuntime(pin string, active bool) *Runtime {
	return &Runtime{
		pin:      strings.TrimSpace(pin),
		active:   active,
		sessions: make(map[Session]struct{}),
	}
}

// PIN returns the live PIN, or "" when authentication is disabled.
func (r *Runtime) PIN() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pin
}

// PINRequired reports whether a PIN is currently configured.
func (r *Runtime) PINRequired() bool {
	return r.PIN() != ""
}

// VerifyPIN checks a client-supplied credential against the live PIN.
// When no PIN is configured every credential (including none) is accepted.
func (r *Runtime) VerifyPIN(supplied string) bool {
	pin := r.PIN()
	if pin == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(pin)) == 1
}

// SetPIN updates the live PIN. Empty or whitespace input clears it, which
// disables authentication. Every connected realtime session is kicked with
// the re-authenticate close code so clients reconnect under the new
// credential.
func (r *Runtime) SetPIN(pin string) {
	r.mu.Lock()
	r.pin = strings.TrimSpace(pin)
	r.mu.Unlock()

	r.KickSessions("pin changed")
}

// Active reports whether the server is accepting gated traffic.
func (r *Runtime) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive toggles the server-enabled flag.
func (r *Runtime) SetActive(active bool) {
	r.mu.Lock()
	r.active = active
	r.mu.Unlock()
}

// RegisterSession adds a session handle to the registry. Call only after the
// accept handshake has completed.
func (r *Runtime) RegisterSession(s Session) {
	r.sessionsMu.Lock()
	r.sessions[s] = struct{}{}
	r.sessionsMu.Unlock()
}

// UnregisterSession removes a session handle. It is safe to call for handles
// that were already removed; every relay exit path calls it unconditionally
// so the registry never holds a closed handle.
func (r *Runtime) UnregisterSession(s Session) {
	r.sessionsMu.Lock()
	delete(r.sessions, s)
	r.sessionsMu.Unlock()
}

// SessionCount returns the number of registered realtime sessions.
func (r *Runtime) SessionCount() int {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	return len(r.sessions)
}

// KickSessions force-closes every registered session with the
// re-authenticate close code. The closes run fire-and-forget so the caller
// never blocks on client acknowledgment; individual failures are the
// session's problem, not ours.
func (r *Runtime) KickSessions(reason string) {
	r.sessionsMu.Lock()
	handles := make([]Session, 0, len(r.sessions))
	for s := range r.sessions {
		handles = append(handles, s)
	}
	r.sessionsMu.Unlock()

	for _, s := range handles {
		go s.CloseWithCode(CloseReauthenticate, reason)
	}
}
