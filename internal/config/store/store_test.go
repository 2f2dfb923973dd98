package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{DBPath: filepath.Join(t.TempDir(), "config.db")})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSettings(ctx, map[string]string{
		"server.host": "192.168.1.20",
		"server.port": "9000",
	}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	values, err := s.LoadSettings(ctx, "server.host", "server.port")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if values["server.host"] != "192.168.1.20" {
		t.Errorf("server.host = %q, want 192.168.1.20", values["server.host"])
	}
	if values["server.port"] != "9000" {
		t.Errorf("server.port = %q, want 9000", values["server.port"])
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, value := range []string{"first", "second"} {
		if err := s.SaveSettings(ctx, map[string]string{"key": value}); err != nil {
			t.Fatalf("SaveSettings failed: %v", err)
		}
	}

	values, err := s.LoadSettings(ctx, "key")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if values["key"] != "second" {
		t.Errorf("key = %q, want second (upsert should overwrite)", values["key"])
	}
}

func TestServerConfigDefaults(t *testing.T) {
	s := openTestStore(t)

	cfg, err := s.GetServerConfig(context.Background())
	if err != nil {
		t.Fatalf("GetServerConfig failed: %v", err)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want default %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
}

func TestServerConfigRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := ServerConfig{Host: "127.0.0.1", Port: 8443, WebDir: "/srv/kumanda/web"}
	if err := s.SaveServerConfig(ctx, in); err != nil {
		t.Fatalf("SaveServerConfig failed: %v", err)
	}

	out, err := s.GetServerConfig(ctx)
	if err != nil {
		t.Fatalf("GetServerConfig failed: %v", err)
	}
	if out != in {
		t.Errorf("GetServerConfig = %+v, want %+v", out, in)
	}
}

func TestServerConfigRejectsInvalidPort(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveServerConfig(context.Background(), ServerConfig{Host: "0.0.0.0", Port: 70000})
	if err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestPINRoundTripAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SavePIN(ctx, " 1234 "); err != nil {
		t.Fatalf("SavePIN failed: %v", err)
	}
	pin, err := s.GetPIN(ctx)
	if err != nil {
		t.Fatalf("GetPIN failed: %v", err)
	}
	if pin != "1234" {
		t.Errorf("GetPIN = %q, want trimmed 1234", pin)
	}

	// Whitespace clears the PIN entirely.
	if err := s.SavePIN(ctx, "   "); err != nil {
		t.Fatalf("SavePIN(clear) failed: %v", err)
	}
	pin, err = s.GetPIN(ctx)
	if err != nil {
		t.Fatalf("GetPIN after clear failed: %v", err)
	}
	if pin != "" {
		t.Errorf("GetPIN after clear = %q, want empty", pin)
	}
}

func TestServerActiveDefaultsTrue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	active, err := s.GetServerActive(ctx)
	if err != nil {
		t.Fatalf("GetServerActive failed: %v", err)
	}
	if !active {
		t.Error("GetServerActive = false, want true default")
	}

	if err := s.SaveServerActive(ctx, false); err != nil {
		t.Fatalf("SaveServerActive failed: %v", err)
	}
	active, err = s.GetServerActive(ctx)
	if err != nil {
		t.Fatalf("GetServerActive failed: %v", err)
	}
	if active {
		t.Error("GetServerActive = true after saving false")
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")

	rw, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	rw.Close()

	ro, err := Open(Options{DBPath: dbPath, ReadOnly: true})
	if err != nil {
		t.Fatalf("failed to open read-only store: %v", err)
	}
	defer ro.Close()

	if err := ro.SaveSettings(context.Background(), map[string]string{"k": "v"}); err == nil {
		t.Fatal("expected write to read-only store to fail")
	}
}
