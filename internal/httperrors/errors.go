// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns failed auth-service calls into user-facing hints.
package httperrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"lovmig/cli/internal/backend"
	liberrors "lovmig/cli/internal/errors"
)

// Kind is the category of a failed call.
type Kind int

const (
	KindNone Kind = iota
	KindTimeout
	KindDNS
	KindRefused
	KindTLS
	KindServer
	KindRejected
	KindNotConfigured
	KindOther
)

// Classify categorizes err. Service rejections (4xx) are KindRejected so
// callers can show the service's own message instead of network hints.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if liberrors.IsKind(err, liberrors.PlaceholderClient) {
		return KindNotConfigured
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			return KindServer
		}
		return KindRejected
	}
	switch {
	case isTimeout(err):
		return KindTimeout
	case isDNS(err):
		return KindDNS
	case isRefused(err):
		return KindRefused
	case isTLS(err):
		return KindTLS
	}
	return KindOther
}

// IsNetwork reports whether err is a transport failure rather than an
// answer from the service.
func IsNetwork(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDNS, KindRefused, KindTLS, KindOther:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded")
}

func isDNS(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) || strings.Contains(err.Error(), "no such host")
}

func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLS(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "tls") ||
		strings.Contains(lower, "x509") ||
		strings.Contains(lower, "certificate") ||
		strings.Contains(lower, "handshake")
}

// Format builds the multi-line hint shown for err while doing action against
// host. It returns "" for KindNone.
func Format(err error, action, host string) string {
	kind := Classify(err)
	if kind == KindNone {
		return ""
	}

	var b strings.Builder
	title, lines := describe(kind, action, host, err)
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString("  • ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	if kind != KindRejected && kind != KindNotConfigured {
		details := err.Error()
		if len(details) > 160 {
			details = details[:160] + "..."
		}
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + details))
		b.WriteString("\n")
	}
	return b.String()
}

func describe(kind Kind, action, host string, err error) (string, []string) {
	switch kind {
	case KindTimeout:
		return "Connection timeout while " + action, []string{
			"The auth service took too long to respond",
			"Check your connection and try again in a few moments",
		}
	case KindDNS:
		return "Cannot resolve " + host + " while " + action, []string{
			"Check that your internet connection is working",
			"Check the project URL with 'lovmig config show'",
		}
	case KindRefused:
		return "Connection refused while " + action, []string{
			"The service at " + host + " is not accepting connections",
			"For a local stack, make sure it is running",
		}
	case KindTLS:
		return "Secure connection failed while " + action, []string{
			"Check your system date and time",
			"Check proxy settings that may intercept HTTPS",
		}
	case KindServer:
		return "Auth service error while " + action, []string{
			"The service at " + host + " returned a server error",
			"This is not a problem with your setup; try again later",
		}
	case KindRejected:
		var apiErr *backend.APIError
		msg := err.Error()
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return "Could not complete " + action, []string{msg}
	case KindNotConfigured:
		return "No auth project configured", []string{
			"Run 'lovmig config set --url <project-url> --key <publishable-key>'",
			"Or set LOVMIG_SUPABASE_URL and LOVMIG_SUPABASE_PUBLISHABLE_KEY",
		}
	default:
		return "Cannot reach the auth service while " + action, []string{
			"Check your internet connection",
			"Check that " + host + " is reachable from your network",
		}
	}
}

// Present prints the hint for err to the terminal.
func Present(err error, action, host string) {
	if msg := Format(err, action, host); msg != "" {
		pterm.Println()
		pterm.Print(msg)
		pterm.Println()
	}
}

// ExtractHostFromURL returns the host of urlStr, or "server" if it has none.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
