package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kumanda-app/kumanda/internal/config"
	configstore "github.com/kumanda-app/kumanda/internal/config/store"
	"github.com/kumanda-app/kumanda/internal/daemon"
	kumandaversion "github.com/kumanda-app/kumanda/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "kumandad",
		Short:         "Kumanda daemon - PIN-gated remote control server for this machine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDaemon,
	}
	rootCmd.Version = kumandaversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
	}

	if daemon.IsRunning() {
		return fmt.Errorf("daemon is already running")
	}

	paths, err := config.EnsureDirs()
	if err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	store, err := configstore.Open(configstore.Options{DBPath: paths.ConfigDB})
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}
	defer store.Close()

	d, err := daemon.New(daemon.Options{Store: store})
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start()
	}()

	log.Printf("Kumanda daemon started (PID: %d)", os.Getpid())

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %s, shutting down...", sig)
		d.Shutdown()
		if err := <-errChan; err != nil {
			return err
		}
	case err := <-errChan:
		if err != nil {
			log.Printf("Daemon error: %v", err)
			return err
		}
	}

	log.Println("Daemon stopped")
	return nil
}

func setupLogging() error {
	paths, err := config.EnsureDirs()
	if err != nil {
		return fmt.Errorf("initialise directories: %w", err)
	}

	logPath := filepath.Join(paths.Logs, "daemon.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	multi := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multi)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Printf("=== Kumanda Daemon Starting (PID: %d) ===", os.Getpid())
	log.Printf("Log file: %s", logPath)
	return nil
}
