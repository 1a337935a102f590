// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"net/url"
	"strings"
	"sync"
)

// SessionStore persists serialized sessions by storage key.
// *keychain.Manager implements it; MemoryStore keeps sessions in process.
type SessionStore interface {
	LoadSession(key string) ([]byte, error)
	SaveSession(key string, data []byte) error
	ClearSession(key string) error
}

// StorageKey returns the key a project's session is stored under:
// sb-<first host label>-auth-token, the same key browser clients use.
func StorageKey(projectURL string) string {
	ref := "default"
	if u, err := url.Parse(projectURL); err == nil && u.Hostname() != "" {
		ref = strings.SplitN(u.Hostname(), ".", 2)[0]
	}
	return "sb-" + ref + "-auth-token"
}

// MemoryStore is an in-process SessionStore.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) LoadSession(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) SaveSession(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) ClearSession(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
