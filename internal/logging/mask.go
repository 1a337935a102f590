// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's logger and utilities for secure logging.
// It configures the shared logrus instance (rotating file output or stderr),
// masks sensitive information in log messages and formats errors for display
// while keeping credentials out of both.
package logging

import (
	"regexp"
	"strings"
)

var (
	rePassword  = regexp.MustCompile(`(?i)(password=|"password"\s*:\s*")([^\s;"]+)`)
	reToken     = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reJSONToken = regexp.MustCompile(`(?i)("(?:access_token|refresh_token|provider_token)"\s*:\s*")([^"]+)`)
	reAPIKey    = regexp.MustCompile(`(?i)(apikey=|api_key=|apikey:\s*)([^\s;]+)`)
	reJWT       = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)
)

// Mask replaces sensitive values in the input string with "***".
// Bare JWTs (as issued by the auth service) are masked wherever they appear.
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reJSONToken.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	out = reJWT.ReplaceAllString(out, "***")
	for _, k := range []string{"LOVMIG_SUPABASE_PUBLISHABLE_KEY", "SUPABASE_TOKEN", "ACCESS_TOKEN"} {
		out = strings.ReplaceAll(out, k+"=", k+"=***")
	}
	return out
}

// MaskKey shortens an API key for display, keeping only a recognisable prefix.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:6] + "..." + key[len(key)-2:]
}
