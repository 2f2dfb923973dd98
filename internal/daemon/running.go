package daemon

import (
	"net"
	"time"

	"github.com/kumanda-app/kumanda/internal/config"
)

// IsRunning reports whether a daemon is already serving the admin socket.
func IsRunning() bool {
	conn, err := net.DialTimeout("unix", config.GetPaths().Socket, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
