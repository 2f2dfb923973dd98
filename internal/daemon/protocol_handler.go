package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/kumanda-app/kumanda/internal/protocol"
	"github.com/kumanda-app/kumanda/internal/version"
)

// ProtocolHandler handles Unix socket protocol messages
type ProtocolHandler struct {
	daemon    *Daemon
	conn      net.Conn
	encoder   *json.Encoder
	decoder   *json.Decoder
	encoderMu sync.Mutex // Protects encoder for concurrent writes
}

// NewProtocolHandler creates a new protocol handler
func NewProtocolHandler(d *Daemon, conn net.Conn) *ProtocolHandler {
	return &ProtocolHandler{
		daemon:  d,
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
	}
}

// Handle processes incoming messages
func (h *ProtocolHandler) Handle() {
	defer h.conn.Close()

	for {
		var req protocol.Request
		if err := h.decoder.Decode(&req); err != nil {
			if err == io.EOF {
				break
			}
			h.sendError(req.ID, fmt.Sprintf("failed to decode request: %v", err))
			return
		}

		h.handleRequest(&req)
	}
}

func (h *ProtocolHandler) handleRequest(req *protocol.Request) {
	switch req.Type {
	case protocol.RequestDaemonStatus:
		h.handleDaemonStatus(req)
	case protocol.RequestSetPIN:
		h.handleSetPIN(req)
	case protocol.RequestSetActive:
		h.handleSetActive(req)
	case protocol.RequestDisconnectClients:
		h.handleDisconnectClients(req)
	case protocol.RequestShutdown:
		h.handleShutdown(req)
	default:
		h.sendError(req.ID, fmt.Sprintf("unknown request type: %s", req.Type))
	}
}

func (h *ProtocolHandler) handleDaemonStatus(req *protocol.Request) {
	runtime := h.daemon.Runtime()

	info := protocol.StatusInfo{
		Version:       version.String(),
		PID:           os.Getpid(),
		Active:        runtime.Active(),
		PINConfigured: runtime.PINRequired(),
		Sessions:      runtime.SessionCount(),
		ListenAddr:    h.daemon.ListenAddr(),
	}
	if startTime := h.daemon.StartTime(); !startTime.IsZero() {
		info.UptimeSeconds = int64(time.Since(startTime).Seconds())
	}

	h.sendResponse(protocol.Response{ID: req.ID, Success: true, Data: info})
}

// handleSetPIN persists the new credential, then applies it to the live
// state. Applying kicks every connected realtime session.
func (h *ProtocolHandler) handleSetPIN(req *protocol.Request) {
	pin, ok := stringField(req.Data, "pin")
	if !ok {
		h.sendError(req.ID, "pin is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.daemon.Store().SavePIN(ctx, pin); err != nil {
		h.sendError(req.ID, fmt.Sprintf("failed to persist PIN: %v", err))
		return
	}

	h.daemon.Runtime().SetPIN(pin)

	message := "PIN updated; connected clients disconnected"
	if !h.daemon.Runtime().PINRequired() {
		message = "PIN cleared; connected clients disconnected"
	}
	h.sendResponse(protocol.Response{
		ID:      req.ID,
		Success: true,
		Data:    map[string]interface{}{"message": message},
	})
}

func (h *ProtocolHandler) handleSetActive(req *protocol.Request) {
	active, ok := boolField(req.Data, "active")
	if !ok {
		h.sendError(req.ID, "active is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.daemon.Store().SaveServerActive(ctx, active); err != nil {
		h.sendError(req.ID, fmt.Sprintf("failed to persist active flag: %v", err))
		return
	}

	h.daemon.Runtime().SetActive(active)

	h.sendResponse(protocol.Response{
		ID:      req.ID,
		Success: true,
		Data:    map[string]interface{}{"active": active},
	})
}

func (h *ProtocolHandler) handleDisconnectClients(req *protocol.Request) {
	reason, _ := stringField(req.Data, "reason")
	if reason == "" {
		reason = "disconnected by administrator"
	}

	kicked := h.daemon.Runtime().SessionCount()
	h.daemon.Runtime().KickSessions(reason)

	h.sendResponse(protocol.Response{
		ID:      req.ID,
		Success: true,
		Data:    map[string]interface{}{"disconnected": kicked},
	})
}

func (h *ProtocolHandler) handleShutdown(req *protocol.Request) {
	// Send success response first
	h.sendResponse(protocol.Response{
		ID:      req.ID,
		Success: true,
		Data:    map[string]interface{}{"message": "Daemon shutting down"},
	})

	// Shutdown daemon gracefully in a goroutine
	// to allow response to be sent
	go func() {
		time.Sleep(100 * time.Millisecond)
		syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}()
}

func (h *ProtocolHandler) sendResponse(resp protocol.Response) {
	h.encoderMu.Lock()
	h.encoder.Encode(resp)
	h.encoderMu.Unlock()
}

func (h *ProtocolHandler) sendError(requestID string, message string) {
	h.sendResponse(protocol.Response{
		ID:      requestID,
		Success: false,
		Error:   message,
	})
}

func stringField(data interface{}, key string) (string, bool) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok
}

func boolField(data interface{}, key string) (bool, bool) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return false, false
	}
	v, ok := m[key].(bool)
	return v, ok
}
