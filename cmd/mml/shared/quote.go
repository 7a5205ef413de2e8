package shared

import "al.essio.dev/pkg/shellescape"

// Quote renders command for a POSIX shell.
func Quote(command []string) string {
	return shellescape.QuoteCommand(command)
}
