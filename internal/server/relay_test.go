package server

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kumanda-app/kumanda/internal/state"
)

func (e *testEnv) wsURL(pin string) string {
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/mouse"
	if pin != "" {
		url += "?pin=" + pin
	}
	return url
}

func waitForCalls(t *testing.T, input *fakeInput, want int) []inputCall {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		calls := input.snapshot()
		if len(calls) >= want {
			return calls
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d adapter calls, got %d", want, len(calls))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRelayRejectsWrongPIN(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL("9999"), nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail with wrong PIN")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %v", resp)
	}
}

func TestRelayRejectsMissingPIN(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(""), nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail without PIN")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %v", resp)
	}
}

func TestRelayRejectsWhileInactive(t *testing.T) {
	env := newTestEnv(t, "1234", false)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail while inactive")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 handshake response, got %v", resp)
	}
}

func TestRelayDispatchesFrames(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	frames := []string{
		`{"type":"move","dx":5,"dy":-3}`,
		`{"type":"click","button":"right"}`,
		`{"type":"click","button":"double"}`,
		`{"type":"scroll","dy":2}`,
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("failed to send frame: %v", err)
		}
	}

	calls := waitForCalls(t, env.input, 4)
	if calls[0].kind != "move" || calls[0].dx != 5 || calls[0].dy != -3 {
		t.Fatalf("unexpected move call %+v", calls[0])
	}
	if calls[1].kind != "click" || calls[1].button != "right" {
		t.Fatalf("unexpected click call %+v", calls[1])
	}
	if calls[2].kind != "click" || calls[2].button != "double" {
		t.Fatalf("unexpected click call %+v", calls[2])
	}
	if calls[3].kind != "scroll" || calls[3].scroll != 2 {
		t.Fatalf("unexpected scroll call %+v", calls[3])
	}
}

func TestRelaySkipsMalformedFrames(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	bad := []string{
		`not valid json`,
		`{"type":"unknown"}`,
	}
	for _, frame := range bad {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("failed to send frame: %v", err)
		}
	}

	// Session must survive: a valid frame after the bad ones still lands.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","dx":1,"dy":1}`)); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	calls := waitForCalls(t, env.input, 1)
	if len(calls) != 1 || calls[0].kind != "move" {
		t.Fatalf("expected only the valid move call, got %+v", calls)
	}
}

func TestRelayUnknownButtonClicksLeft(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	frames := []string{
		`{"type":"click","button":"middle"}`,
		`{"type":"click"}`,
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("failed to send frame: %v", err)
		}
	}

	calls := waitForCalls(t, env.input, 2)
	for i, call := range calls {
		if call.kind != "click" || call.button != "left" {
			t.Fatalf("frame %d: expected left click fallback, got %+v", i, call)
		}
	}
}

func TestRelayCoercesInvalidFieldsToDefaults(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	// A field of the wrong type reads as its default; the rest of the frame
	// still applies.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","dx":"abc","dy":5}`)); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"click","button":7}`)); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	calls := waitForCalls(t, env.input, 2)
	if calls[0].kind != "move" || calls[0].dx != 0 || calls[0].dy != 5 {
		t.Fatalf("expected move (0,5) from coerced frame, got %+v", calls[0])
	}
	if calls[1].kind != "click" || calls[1].button != "left" {
		t.Fatalf("expected left click from coerced frame, got %+v", calls[1])
	}
}

func TestRelayAdapterErrorsDoNotEndSession(t *testing.T) {
	env := newTestEnv(t, "1234", true)
	env.input.err = errors.New("injection failed")

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","dx":1,"dy":1}`)); err != nil {
			t.Fatalf("failed to send frame: %v", err)
		}
	}

	calls := waitForCalls(t, env.input, 3)
	if len(calls) < 3 {
		t.Fatalf("expected all frames dispatched despite adapter errors, got %d", len(calls))
	}
}

func TestRelayKickedSessionGets4401(t *testing.T) {
	env := newTestEnv(t, "1234", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("1234"), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	deadline := time.After(2 * time.Second)
	for env.runtime.SessionCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("session never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	env.runtime.SetPIN("4321")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatal("expected close after PIN change")
	}

	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != state.CloseReauthenticate {
		t.Fatalf("expected close code %d, got %d", state.CloseReauthenticate, closeErr.Code)
	}

	deadline = time.After(2 * time.Second)
	for env.runtime.SessionCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("session never unregistered after kick")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRelaySurvivesDeactivationMidSession(t *testing.T) {
	env := newTestEnv(t, "", true)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL(""), nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	env.runtime.SetActive(false)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","dx":2,"dy":2}`)); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	calls := waitForCalls(t, env.input, 1)
	if calls[0].kind != "move" {
		t.Fatalf("expected move to be dispatched, got %+v", calls[0])
	}
}
