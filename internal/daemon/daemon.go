// Package daemon wires the Kumanda runtime together: settings store, shared
// state, capability adapters, the HTTP/WebSocket server and the admin unix
// socket.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/kumanda-app/kumanda/internal/config"
	configstore "github.com/kumanda-app/kumanda/internal/config/store"
	"github.com/kumanda-app/kumanda/internal/server"
	"github.com/kumanda-app/kumanda/internal/state"
	"github.com/kumanda-app/kumanda/internal/system"
	"github.com/kumanda-app/kumanda/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Options groups dependencies required to construct a Daemon.
type Options struct {
	Store *configstore.Store
}

// Daemon represents the main daemon process.
type Daemon struct {
	store      *configstore.Store
	runtime    *state.Runtime
	apiServer  *server.APIServer
	httpServer *http.Server
	unix       *unixSocketService
	paths      config.Paths
	listenAddr string
	startTime  time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a daemon bound to the provided configuration store. Settings
// come from the store; KUMANDA_* environment variables (including a .env
// file in the working directory) override and are persisted back, so a
// value set once through the environment survives later boots.
func New(opts Options) (*Daemon, error) {
	if opts.Store == nil {
		return nil, errors.New("daemon: configuration store is required")
	}

	// Missing .env is the normal case.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := seedServerConfig(ctx, opts.Store)
	if err != nil {
		return nil, err
	}

	pin, err := seedPIN(ctx, opts.Store)
	if err != nil {
		return nil, err
	}

	active, err := opts.Store.GetServerActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("daemon: load active flag: %w", err)
	}

	runtime := state.NewRuntime(pin, active)
	caps := system.Detect()

	apiServer, err := server.NewAPIServer(runtime, caps, config.ExpandPath(cfg.WebDir))
	if err != nil {
		return nil, fmt.Errorf("daemon: create API server: %w", err)
	}

	httpServer, err := apiServer.PrepareHTTPServer(cfg.Host, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("daemon: prepare HTTP server: %w", err)
	}

	d := &Daemon{
		store:      opts.Store,
		runtime:    runtime,
		apiServer:  apiServer,
		httpServer: httpServer,
		paths:      config.GetPaths(),
		listenAddr: httpServer.Addr,
		stopCh:     make(chan struct{}),
	}
	d.unix = newUnixSocketService(d.paths.Socket, d)

	return d, nil
}

// seedServerConfig merges stored transport settings with environment
// overrides and persists the result.
func seedServerConfig(ctx context.Context, st *configstore.Store) (configstore.ServerConfig, error) {
	cfg, err := st.GetServerConfig(ctx)
	if err != nil {
		return configstore.ServerConfig{}, fmt.Errorf("daemon: load server config: %w", err)
	}

	changed := false
	if host := os.Getenv("KUMANDA_HOST"); host != "" && host != cfg.Host {
		cfg.Host = host
		changed = true
	}
	if portStr := os.Getenv("KUMANDA_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return configstore.ServerConfig{}, fmt.Errorf("daemon: invalid KUMANDA_PORT %q: %w", portStr, err)
		}
		if port != cfg.Port {
			cfg.Port = port
			changed = true
		}
	}
	if webDir := os.Getenv("KUMANDA_WEB_DIR"); webDir != "" && webDir != cfg.WebDir {
		cfg.WebDir = webDir
		changed = true
	}

	if changed {
		if err := st.SaveServerConfig(ctx, cfg); err != nil {
			return configstore.ServerConfig{}, fmt.Errorf("daemon: persist server config: %w", err)
		}
	}

	return cfg, nil
}

// seedPIN returns the effective credential. The environment wins over the
// store and is persisted so the override is durable.
func seedPIN(ctx context.Context, st *configstore.Store) (string, error) {
	if pin, ok := os.LookupEnv("KUMANDA_PIN"); ok {
		if err := st.SavePIN(ctx, pin); err != nil {
			return "", fmt.Errorf("daemon: persist PIN: %w", err)
		}
		return st.GetPIN(ctx)
	}

	pin, err := st.GetPIN(ctx)
	if err != nil && !configstore.IsNotFound(err) {
		return "", fmt.Errorf("daemon: load PIN: %w", err)
	}
	return pin, nil
}

// Start runs the daemon until Shutdown is called or the HTTP listener fails.
func (d *Daemon) Start() error {
	d.startTime = time.Now()

	if err := d.unix.Start(); err != nil {
		return fmt.Errorf("daemon: start admin socket: %w", err)
	}

	listener, err := net.Listen("tcp", d.httpServer.Addr)
	if err != nil {
		d.stopUnix()
		return fmt.Errorf("daemon: listen on %s: %w", d.httpServer.Addr, err)
	}

	d.logBanner()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.httpServer.Serve(listener)
	}()

	var runErr error
	select {
	case <-d.stopCh:
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("daemon: HTTP server: %w", err)
		}
	}

	d.runtime.KickSessions("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.httpServer.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("daemon: HTTP shutdown: %w", err)
	}

	d.stopUnix()

	return runErr
}

// Shutdown signals Start to stop. Safe to call more than once and from the
// protocol handler goroutines.
func (d *Daemon) Shutdown() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *Daemon) stopUnix() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.unix.Shutdown(ctx); err != nil {
		log.Printf("[Daemon] admin socket shutdown: %v", err)
	}
}

// Runtime exposes the shared state for the admin protocol handler.
func (d *Daemon) Runtime() *state.Runtime {
	return d.runtime
}

// Store exposes the settings store for the admin protocol handler.
func (d *Daemon) Store() *configstore.Store {
	return d.store
}

// ListenAddr returns the configured HTTP listen address.
func (d *Daemon) ListenAddr() string {
	return d.listenAddr
}

// StartTime returns when Start was invoked.
func (d *Daemon) StartTime() time.Time {
	return d.startTime
}

func (d *Daemon) logBanner() {
	log.Printf("[Daemon] Kumanda %s", version.String())
	log.Printf("[Daemon] HTTP API listening on http://%s", displayAddr(d.listenAddr))
	if ip := localIP(); ip != "" {
		_, port, err := net.SplitHostPort(d.listenAddr)
		if err == nil {
			log.Printf("[Daemon] Reachable on your network at http://%s", net.JoinHostPort(ip, port))
		}
	}
	log.Printf("[Daemon] Admin socket at %s", d.paths.Socket)
	if d.runtime.PINRequired() {
		log.Printf("[Daemon] PIN protection enabled")
	} else {
		log.Printf("[Daemon] No PIN configured; any client on the network can connect")
	}
}

func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// localIP discovers the outbound interface address without sending any
// packets. Returns "" when the host has no route.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
