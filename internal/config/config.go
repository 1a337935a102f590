// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here: the endpoint override (URL and
// publishable key) and a few CLI preferences. Sessions go to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	liberrors "lovmig/cli/internal/errors"
	"lovmig/cli/internal/xdg"
)

// FileName is the config file name inside the config directory.
const FileName = "config.json"

// DefaultSiteURL is the origin used to build the signup redirect target when
// none is configured.
const DefaultSiteURL = "http://localhost:3000"

// RedirectPath is appended to the site origin for post-confirmation redirects.
const RedirectPath = "/lovmig/"

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel string    `json:"log_level"`
	SiteURL  string    `json:"site_url,omitempty"`
	Override *Override `json:"override,omitempty"`
}

// Override is a persisted endpoint that supersedes the built-in defaults.
type Override struct {
	URL     string `json:"url"`
	AnonKey string `json:"anon_key"`
}

// Present reports whether the override carries anything at all.
func (o *Override) Present() bool {
	return o != nil && (o.URL != "" || o.AnonKey != "")
}

// RedirectURL returns the post-confirmation redirect target for signups.
func (c Config) RedirectURL() string {
	origin := strings.TrimSpace(c.SiteURL)
	if origin == "" {
		origin = DefaultSiteURL
	}
	return strings.TrimRight(origin, "/") + RedirectPath
}

// Store reads and writes the config file at a fixed path.
// It is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns a Store for $XDG_CONFIG_HOME/lovmig/config.json.
func DefaultStore() (*Store, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, FileName)), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Load reads configuration; missing file returns defaults.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Config, error) {
	var c Config
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.LogLevel = "info"
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func (s *Store) Save(c Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(c)
}

func (s *Store) save(c Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// Write then rename so watchers never observe a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// LoadOverride returns the persisted override, or nil when none is stored.
func (s *Store) LoadOverride() (*Override, error) {
	c, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !c.Override.Present() {
		return nil, nil
	}
	return c.Override, nil
}

// SaveOverride validates and persists an endpoint override, keeping the
// other settings untouched.
func (s *Store) SaveOverride(o Override) error {
	o.URL = strings.TrimRight(strings.TrimSpace(o.URL), "/")
	o.AnonKey = strings.TrimSpace(o.AnonKey)
	if err := validateOverride(o); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.load()
	if err != nil {
		return err
	}
	c.Override = &o
	return s.save(c)
}

// ClearOverride removes the endpoint override. Clearing a missing override is a no-op.
func (s *Store) ClearOverride() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.load()
	if err != nil {
		return err
	}
	if c.Override == nil {
		return nil
	}
	c.Override = nil
	return s.save(c)
}

func validateOverride(o Override) error {
	if o.URL == "" || o.AnonKey == "" {
		return liberrors.New(liberrors.ConfigOverride, "both url and key are required")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return liberrors.Wrap(liberrors.ConfigOverride, "invalid url", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return liberrors.New(liberrors.ConfigOverride, fmt.Sprintf("url must be http(s)://host, got %q", o.URL))
	}
	return nil
}
