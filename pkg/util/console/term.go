package console

import (
	"os"

	"github.com/moby/term"
)

// IsTerminal returns true if we're in a terminal and a user is interacting with us
func IsTerminal() bool {
	return term.IsTerminal(os.Stdin.Fd())
}

// ColorEnabled is false when stderr is piped or noColor is set.
func ColorEnabled(noColor bool) bool {
	if noColor {
		return false
	}
	return term.IsTerminal(os.Stderr.Fd())
}
