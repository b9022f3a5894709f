// Package xdg provides helpers to resolve XDG Base Directory paths for brio-devkit.
// It implements the XDG Base Directory specification for locating the optional
// configuration file shared by the mock kernel and the verifier.
//
// The package falls back to traditional locations when XDG environment variables
// are not set. Nothing here creates directories; a missing config dir simply means
// no config file.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "brio"

// ConfigDir returns the XDG config directory for brio.
// It falls back to ~/.config/brio when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}
