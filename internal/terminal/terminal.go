// Package terminal provides small helpers for deciding how to draw on the terminal.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether f is attached to a terminal.
// Spinners and cursor tricks are only used when it is; piped output stays plain.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal behind f, or 80 when it cannot be determined.
func Width(f *os.File) int {
	if f == nil {
		return 80
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}
