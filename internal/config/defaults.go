package config

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"go-simpler.org/env"
)

// Compiled-in defaults, set at build time with
//
//	-ldflags "-X lovmig/cli/internal/config.DefaultURL=... -X lovmig/cli/internal/config.DefaultKey=..."
//
// Environment variables take precedence over these.
var (
	DefaultURL = ""
	DefaultKey = ""
)

// Defaults is the endpoint used when no override is persisted.
type Defaults struct {
	URL string `env:"LOVMIG_SUPABASE_URL"`
	Key string `env:"LOVMIG_SUPABASE_PUBLISHABLE_KEY"`
}

// LoadDefaults reads the default endpoint from the environment (and a .env
// file in the working directory, when present), falling back to the
// compiled-in values.
func LoadDefaults() Defaults {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	var d Defaults
	if err := env.Load(&d, nil); err != nil {
		log.Warnf("failed to read default endpoint from environment: %v", err)
	}
	if d.URL == "" {
		d.URL = DefaultURL
	}
	if d.Key == "" {
		d.Key = DefaultKey
	}
	return d
}
