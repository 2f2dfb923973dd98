package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the filesystem layout for a Kumanda installation.
type Paths struct {
	Home     string // Kumanda home directory (~/.kumanda)
	ConfigDB string // SQLite configuration store path
	Socket   string // Unix socket path for the admin surface
	Logs     string // Logs directory
	WebDir   string // Default location of the built frontend bundle
}

// GetKumandaHome returns the Kumanda home directory. The KUMANDA_HOME
// environment variable overrides the default ~/.kumanda.
func GetKumandaHome() string {
	if custom := strings.TrimSpace(os.Getenv("KUMANDA_HOME")); custom != "" {
		return custom
	}
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".kumanda")
}

// GetPaths returns the filesystem layout rooted at the Kumanda home.
func GetPaths() Paths {
	home := GetKumandaHome()
	return Paths{
		Home:     home,
		ConfigDB: filepath.Join(home, "config.db"),
		Socket:   filepath.Join(home, "kumanda.sock"),
		Logs:     filepath.Join(home, "logs"),
		WebDir:   filepath.Join(home, "web"),
	}
}

// EnsureDirs creates the Kumanda directory structure if it does not exist.
func EnsureDirs() (Paths, error) {
	paths := GetPaths()
	for _, dir := range []string{paths.Home, paths.Logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// ExpandPath expands a leading ~ to the user home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return userHome
		}
		return filepath.Join(userHome, path[2:])
	}
	return path
}
