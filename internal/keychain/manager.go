// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for lovmig.
// It stores the persisted auth sessions issued by the hosted auth service in the
// OS credential store (macOS Keychain, Windows Credential Manager, Secret Service)
// and falls back to an encrypted file keyring where no native store exists.
//
// Sessions are stored under the storage key of the endpoint they belong to, so
// switching endpoints never leaks one project's session into another.
package keychain

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/99designs/keyring"

	"lovmig/cli/internal/xdg"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ErrNotFound is returned when no value is stored under the requested key.
var ErrNotFound = errors.New("keychain: key not found")

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "lovmig"

// PasswordEnv supplies the passphrase for the file keyring fallback.
const PasswordEnv = "LOVMIG_KEYRING_PASSWORD"

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithKeyring(ring), nil
}

// NewManagerWithKeyring wraps an already opened keyring. Tests pass
// keyring.NewArrayKeyring to keep everything in memory.
func NewManagerWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// openRing opens the OS keyring, preferring native platform backends. On
// platforms without one an encrypted file keyring under the state directory
// is used, unlocked with LOVMIG_KEYRING_PASSWORD.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend, keyring.FileBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	}
	if dir, err := xdg.StateDir(); err == nil {
		cfg.FileDir = filepath.Join(dir, "keyring")
	}
	if pw := os.Getenv(PasswordEnv); pw != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
	} else {
		cfg.FilePasswordFunc = keyring.TerminalPrompt
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveSession stores a serialized session under key.
// This method is thread-safe.
func (m *Manager) SaveSession(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(key, string(data))
	}
	return m.ring.Set(keyring.Item{Key: key, Data: data, Label: ServiceName + " session"})
}

// LoadSession retrieves the serialized session stored under key.
// A missing entry yields (nil, nil).
// This method is thread-safe.
func (m *Manager) LoadSession(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		data, err := m.backend.Get(key)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []byte(data), nil
	}

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

// ClearSession removes the session stored under key. Removing a missing
// entry is not an error.
// This method is thread-safe.
func (m *Manager) ClearSession(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		if err := m.backend.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}

	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
