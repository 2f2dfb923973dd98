package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kumanda-app/kumanda/internal/state"
	"github.com/kumanda-app/kumanda/internal/system"
)

type fakeAudio struct {
	mu     sync.Mutex
	volume int
	muted  bool
	err    error
	calls  []string
}

func (f *fakeAudio) Volume() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "volume")
	return f.volume, f.err
}

func (f *fakeAudio) SetVolume(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "set_volume")
	if f.err != nil {
		return f.err
	}
	f.volume = level
	return nil
}

func (f *fakeAudio) Muted() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted, f.err
}

func (f *fakeAudio) ToggleMute() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.muted = !f.muted
	return f.muted, nil
}

type fakeDisplay struct {
	mu       sync.Mutex
	level    int
	getErr   error
	setErr   error
	setCalls int
}

func (f *fakeDisplay) Brightness() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, f.getErr
}

func (f *fakeDisplay) SetBrightness(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.level = level
	return nil
}

type inputCall struct {
	kind   string
	dx, dy float64
	button system.MouseButton
	scroll int
	key    system.MediaKey
}

type fakeInput struct {
	mu    sync.Mutex
	err   error
	calls []inputCall
}

func (f *fakeInput) MoveRelative(dx, dy float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inputCall{kind: "move", dx: dx, dy: dy})
	return f.err
}

func (f *fakeInput) Click(button system.MouseButton) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inputCall{kind: "click", button: button})
	return f.err
}

func (f *fakeInput) Scroll(dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inputCall{kind: "scroll", scroll: dy})
	return f.err
}

func (f *fakeInput) PressMediaKey(key system.MediaKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inputCall{kind: "media", key: key})
	return f.err
}

func (f *fakeInput) snapshot() []inputCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]inputCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type testEnv struct {
	runtime *state.Runtime
	audio   *fakeAudio
	display *fakeDisplay
	input   *fakeInput
	server  *httptest.Server
}

func newTestEnv(t *testing.T, pin string, active bool) *testEnv {
	t.Helper()

	env := &testEnv{
		runtime: state.NewRuntime(pin, active),
		audio:   &fakeAudio{volume: 50},
		display: &fakeDisplay{level: 80},
		input:   &fakeInput{},
	}

	caps := system.Capabilities{
		Audio:   env.audio,
		Display: env.display,
		Input:   env.input,
	}

	apiServer, err := NewAPIServer(env.runtime, caps, "")
	if err != nil {
		t.Fatalf("failed to build API server: %v", err)
	}

	env.server = httptest.NewServer(apiServer.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) request(t *testing.T, method, path, pin, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if pin != "" {
		req.Header.Set(PINHeader, pin)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, data
}

func decodeJSON(t *testing.T, data []byte, into any) {
	t.Helper()
	if err := json.Unmarshal(data, into); err != nil {
		t.Fatalf("failed to decode response %q: %v", data, err)
	}
}
