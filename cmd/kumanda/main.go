package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/kumanda-app/kumanda/internal/client"
	kumandaversion "github.com/kumanda-app/kumanda/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "kumanda",
		Short:         "Control the Kumanda daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = kumandaversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.AddCommand(
		newStatusCommand(),
		newPINCommand(),
		newServerCommand(),
		newKickCommand(),
		newShutdownCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show daemon status",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	info, err := c.DaemonStatus()
	if err != nil {
		return fmt.Errorf("failed to fetch daemon status: %w", err)
	}

	fmt.Println("Daemon Status:")
	fmt.Printf("  Version:     %s\n", info.Version)
	fmt.Printf("  PID:         %d\n", info.PID)
	fmt.Printf("  Listening:   %s\n", info.ListenAddr)
	fmt.Printf("  Active:      %t\n", info.Active)
	fmt.Printf("  PIN set:     %t\n", info.PINConfigured)
	fmt.Printf("  Clients:     %d\n", info.Sessions)
	if info.UptimeSeconds > 0 {
		fmt.Printf("  Uptime:      %s\n", (time.Duration(info.UptimeSeconds) * time.Second).String())
	}

	if warning := kumandaversion.CheckVersionMismatch(info.Version); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}
	return nil
}

func newPINCommand() *cobra.Command {
	pinCmd := &cobra.Command{
		Use:           "pin",
		Short:         "Manage the access PIN",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setCmd := &cobra.Command{
		Use:           "set",
		Short:         "Set a new PIN (prompts when --pin is not given)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPINSet,
	}
	setCmd.Flags().String("pin", "", "New PIN value (omit to be prompted)")

	clearCmd := &cobra.Command{
		Use:           "clear",
		Short:         "Clear the PIN (disables authentication)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPINClear,
	}

	pinCmd.AddCommand(setCmd, clearCmd)
	return pinCmd
}

func runPINSet(cmd *cobra.Command, args []string) error {
	pin, _ := cmd.Flags().GetString("pin")
	if pin == "" {
		var err error
		pin, err = promptPIN()
		if err != nil {
			return err
		}
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return fmt.Errorf("PIN cannot be empty; use 'kumanda pin clear' to disable authentication")
	}

	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SetPIN(pin); err != nil {
		return fmt.Errorf("failed to set PIN: %w", err)
	}

	fmt.Println("PIN updated. Connected clients were disconnected and must re-authenticate.")
	return nil
}

func runPINClear(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SetPIN(""); err != nil {
		return fmt.Errorf("failed to clear PIN: %w", err)
	}

	fmt.Println("PIN cleared. Any client on the network can now connect.")
	return nil
}

// promptPIN reads the PIN without echoing when stdin is a terminal.
func promptPIN() (string, error) {
	if !terminal.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal; pass the PIN with --pin")
	}

	fmt.Fprint(os.Stderr, "New PIN: ")
	first, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}

	fmt.Fprint(os.Stderr, "Repeat PIN: ")
	second, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("PINs do not match")
	}
	return string(first), nil
}

func newServerCommand() *cobra.Command {
	serverCmd := &cobra.Command{
		Use:           "server",
		Short:         "Toggle the control server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	onCmd := &cobra.Command{
		Use:           "on",
		Short:         "Enable the control server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(true)
		},
	}

	offCmd := &cobra.Command{
		Use:           "off",
		Short:         "Disable the control server (clients get 503)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(false)
		},
	}

	serverCmd.AddCommand(onCmd, offCmd)
	return serverCmd
}

func setActive(active bool) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SetActive(active); err != nil {
		return fmt.Errorf("failed to update server state: %w", err)
	}

	if active {
		fmt.Println("Server enabled.")
	} else {
		fmt.Println("Server disabled. New requests will be rejected until re-enabled.")
	}
	return nil
}

func newKickCommand() *cobra.Command {
	kickCmd := &cobra.Command{
		Use:           "kick",
		Short:         "Disconnect all connected realtime clients",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runKick,
	}
	kickCmd.Flags().String("reason", "", "Close reason shown to clients")
	return kickCmd
}

func runKick(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")

	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	count, err := c.DisconnectClients(reason)
	if err != nil {
		return fmt.Errorf("failed to disconnect clients: %w", err)
	}

	switch count {
	case 0:
		fmt.Println("No clients connected.")
	case 1:
		fmt.Println("Disconnected 1 client.")
	default:
		fmt.Printf("Disconnected %d clients.\n", count)
	}
	return nil
}

func newShutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "shutdown",
		Short:         "Stop the daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShutdown,
	}
}

func runShutdown(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	fmt.Println("Daemon shutting down.")
	return nil
}
