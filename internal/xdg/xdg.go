// Package xdg resolves XDG Base Directory paths for lovmig.
//
// Configuration (the endpoint override and CLI settings) lives under the
// config directory; logs and the event journal live under the state directory.
// Both directories are created with private permissions on first use.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used below the XDG base directories.
const AppName = "lovmig"

// ConfigDir returns the XDG config directory for lovmig.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/lovmig when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for lovmig.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/lovmig when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(envKey, homeRel string) (string, error) {
	base := os.Getenv(envKey)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
