package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// commandTimeout bounds every adapter exec call. Control utilities answer in
// milliseconds; anything slower is treated as a failed call rather than
// stalling a request handler.
const commandTimeout = 3 * time.Second

// runner executes a control utility and returns its trimmed stdout. Adapters
// hold a runner so tests can substitute a fake.
type runner func(name string, args ...string) (string, error)

func runCommand(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
