// Package protocol defines the JSON messages exchanged between the kumanda
// CLI and the daemon over the admin unix socket.
package protocol

// Request represents a client request to the daemon
type Request struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Response represents a daemon response to client
type Response struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SetPINData carries the new credential for a set_pin request. An empty
// value clears the PIN.
type SetPINData struct {
	PIN string `json:"pin"`
}

// SetActiveData carries the desired server-enabled flag.
type SetActiveData struct {
	Active bool `json:"active"`
}

// DisconnectData carries the close reason shown to kicked clients.
type DisconnectData struct {
	Reason string `json:"reason,omitempty"`
}

// StatusInfo is the payload of a daemon_status response.
type StatusInfo struct {
	Version       string `json:"version"`
	PID           int    `json:"pid"`
	Active        bool   `json:"active"`
	PINConfigured bool   `json:"pin_configured"`
	Sessions      int    `json:"sessions"`
	ListenAddr    string `json:"listen_addr"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Request types
const (
	RequestDaemonStatus      = "daemon_status"
	RequestSetPIN            = "set_pin"
	RequestSetActive         = "set_active"
	RequestDisconnectClients = "disconnect_clients"
	RequestShutdown          = "shutdown"
)
