package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kumanda-app/kumanda/internal/state"
	"github.com/kumanda-app/kumanda/internal/system"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxFrameSize = 4096
)

var relayUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon serves the local network; the PIN, not the Origin header,
	// is the access control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Relay accepts WebSocket connections on /ws/mouse and translates inbound
// pointer frames into input adapter calls. Each connection is registered
// with the runtime so an admin can disconnect every client at once.
type Relay struct {
	runtime *state.Runtime
	input   system.InputController
}

func NewRelay(runtime *state.Runtime, input system.InputController) *Relay {
	return &Relay{runtime: runtime, input: input}
}

// pointerFrame is the inbound wire format. Fields beyond the ones relevant
// to the named type are ignored.
type pointerFrame struct {
	Type   string  `json:"type"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Button string  `json:"button"`
}

// relaySession is one live WebSocket client. Control frames are sent with
// WriteControl, which is safe to call concurrently with the read loop. done
// is closed when the read loop exits so the ping loop stops promptly.
type relaySession struct {
	id   string
	conn *websocket.Conn
	done chan struct{}
}

func (s *relaySession) ID() string { return s.id }

func (s *relaySession) CloseWithCode(code int, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("[Relay] close frame for session %s: %v", s.id, err)
	}
	_ = s.conn.Close()
}

// HandleUpgrade authenticates the handshake and runs the session. The
// credential arrives as a ?pin= query parameter because browser WebSocket
// clients cannot set request headers.
func (r *Relay) HandleUpgrade(w http.ResponseWriter, req *http.Request) {
	if !r.runtime.VerifyPIN(req.URL.Query().Get("pin")) {
		writeError(w, http.StatusUnauthorized, msgInvalidPIN)
		return
	}

	conn, err := relayUpgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[Relay] upgrade failed: %v", err)
		return
	}

	session := &relaySession{id: uuid.NewString(), conn: conn, done: make(chan struct{})}
	r.runtime.RegisterSession(session)
	log.Printf("[Relay] session %s connected from %s", session.id, req.RemoteAddr)

	go r.pingLoop(session)
	r.readLoop(session)
}

// readLoop consumes pointer frames until the connection drops. Frames that
// are not JSON at all are skipped; transport errors end the session.
func (r *Relay) readLoop(session *relaySession) {
	defer func() {
		close(session.done)
		r.runtime.UnregisterSession(session)
		_ = session.conn.Close()
		log.Printf("[Relay] session %s disconnected", session.id)
	}()

	session.conn.SetReadLimit(maxFrameSize)
	_ = session.conn.SetReadDeadline(time.Now().Add(pongWait))
	session.conn.SetPongHandler(func(string) error {
		return session.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, state.CloseReauthenticate) {
				log.Printf("[Relay] session %s read error: %v", session.id, err)
			}
			return
		}

		var frame pointerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// A field of the wrong type decodes to its zero value while the
			// rest of the frame is kept; only frames that are not an object
			// at all are dropped.
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				log.Printf("[Relay] session %s malformed frame skipped: %v", session.id, err)
				continue
			}
		}

		r.dispatch(session, frame)
	}
}

// dispatch applies one pointer frame. Adapter failures are logged and the
// session continues; the remote side has no use for per-frame errors.
func (r *Relay) dispatch(session *relaySession, frame pointerFrame) {
	var err error

	switch frame.Type {
	case "move":
		err = r.input.MoveRelative(frame.DX, frame.DY)
	case "click":
		err = r.input.Click(parseButton(frame.Button))
	case "scroll":
		err = r.input.Scroll(int(frame.DY))
	default:
		log.Printf("[Relay] session %s unknown frame type %q", session.id, frame.Type)
		return
	}

	if err != nil && !errors.Is(err, system.ErrUnsupported) {
		log.Printf("[Relay] session %s %s failed: %v", session.id, frame.Type, err)
	}
}

// parseButton maps a wire button name to a click kind. Anything
// unrecognized, including a missing value, clicks left.
func parseButton(name string) system.MouseButton {
	switch name {
	case "right":
		return system.ButtonRight
	case "double":
		return system.ButtonDouble
	default:
		return system.ButtonLeft
	}
}

// pingLoop keeps the connection alive. It exits as soon as the read loop
// tears the session down, or when a ping fails.
func (r *Relay) pingLoop(session *relaySession) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-session.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := session.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
