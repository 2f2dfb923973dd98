// Package client implements the admin unix-socket client used by the
// kumanda CLI.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/kumanda-app/kumanda/internal/config"
	"github.com/kumanda-app/kumanda/internal/protocol"
)

const requestTimeout = 5 * time.Second

// Client communicates with the daemon over its admin unix socket.
type Client struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
}

// New connects to the default daemon socket.
func New() (*Client, error) {
	return NewWithSocket(config.GetPaths().Socket)
}

// NewWithSocket connects to an explicit socket path.
func NewWithSocket(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon at %s (is kumandad running?): %w", socketPath, err)
	}

	return &Client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
	}, nil
}

// Close releases the socket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(reqType string, data interface{}) (*protocol.Response, error) {
	req := protocol.Request{
		ID:   uuid.NewString(),
		Type: reqType,
		Data: data,
	}

	if err := c.conn.SetDeadline(time.Now().Add(requestTimeout)); err != nil {
		return nil, err
	}

	if err := c.encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp protocol.Response
	if err := c.decoder.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id mismatch: sent %s, got %s", req.ID, resp.ID)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s", resp.Error)
	}

	return &resp, nil
}

// DaemonStatus queries the daemon for its runtime status.
func (c *Client) DaemonStatus() (*protocol.StatusInfo, error) {
	resp, err := c.roundTrip(protocol.RequestDaemonStatus, nil)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode status payload: %w", err)
	}

	var info protocol.StatusInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to decode status payload: %w", err)
	}
	return &info, nil
}

// SetPIN updates the credential. An empty value clears it. Connected
// realtime clients are disconnected either way.
func (c *Client) SetPIN(pin string) error {
	_, err := c.roundTrip(protocol.RequestSetPIN, protocol.SetPINData{PIN: pin})
	return err
}

// SetActive toggles the server-enabled flag.
func (c *Client) SetActive(active bool) error {
	_, err := c.roundTrip(protocol.RequestSetActive, protocol.SetActiveData{Active: active})
	return err
}

// DisconnectClients kicks every connected realtime session and returns how
// many were disconnected.
func (c *Client) DisconnectClients(reason string) (int, error) {
	resp, err := c.roundTrip(protocol.RequestDisconnectClients, protocol.DisconnectData{Reason: reason})
	if err != nil {
		return 0, err
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := data["disconnected"].(float64)
	return int(count), nil
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown() error {
	_, err := c.roundTrip(protocol.RequestShutdown, nil)
	return err
}
