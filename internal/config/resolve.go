package config

import (
	log "github.com/sirupsen/logrus"
)

// Endpoint identifies one hosted auth backend: its base URL and publishable key.
type Endpoint struct {
	URL string
	Key string
}

// Complete reports whether both URL and Key are set.
func (e Endpoint) Complete() bool {
	return e.URL != "" && e.Key != ""
}

// OverrideSource supplies the persisted override. *Store implements it.
type OverrideSource interface {
	LoadOverride() (*Override, error)
}

// Resolve returns the persisted override when one is present, otherwise the
// defaults. The two sources are never merged; both fields may come back empty.
// An unreadable override is logged and treated as absent.
func Resolve(src OverrideSource, d Defaults) Endpoint {
	if o := loadOverride(src); o != nil {
		return Endpoint{URL: o.URL, Key: o.AnonKey}
	}
	return Endpoint{URL: d.URL, Key: d.Key}
}

// UsingOverride reports whether a persisted override is present.
func UsingOverride(src OverrideSource) bool {
	return loadOverride(src) != nil
}

// CurrentURL returns the override URL when set, else the default URL.
func CurrentURL(src OverrideSource, d Defaults) string {
	if o := loadOverride(src); o != nil && o.URL != "" {
		return o.URL
	}
	return d.URL
}

func loadOverride(src OverrideSource) *Override {
	if src == nil {
		return nil
	}
	o, err := src.LoadOverride()
	if err != nil {
		log.Warnf("ignoring unreadable endpoint override: %v", err)
		return nil
	}
	if !o.Present() {
		return nil
	}
	return o
}
