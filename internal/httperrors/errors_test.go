package httperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"lovmig/cli/internal/backend"
	liberrors "lovmig/cli/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "abc.supabase.co"}, KindDNS},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindRefused},
		{"tls", errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority"), KindTLS},
		{"server", &backend.APIError{Status: http.StatusBadGateway, Message: "Bad Gateway"}, KindServer},
		{"rejected", &backend.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}, KindRejected},
		{"placeholder", liberrors.New(liberrors.PlaceholderClient, "no endpoint"), KindNotConfigured},
		{"other", errors.New("unexpected EOF"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsNetwork(t *testing.T) {
	assert.True(t, IsNetwork(&net.DNSError{Err: "no such host"}))
	assert.False(t, IsNetwork(&backend.APIError{Status: http.StatusBadRequest}))
	assert.False(t, IsNetwork(nil))
}

func TestFormat(t *testing.T) {
	assert.Empty(t, Format(nil, "signing in", "abc.supabase.co"))

	rejected := Format(&backend.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}, "signing in", "abc.supabase.co")
	assert.Contains(t, rejected, "Invalid login credentials")
	assert.NotContains(t, rejected, "Technical details")

	dns := Format(&net.DNSError{Err: "no such host", Name: "abc.supabase.co"}, "signing in", "abc.supabase.co")
	assert.Contains(t, dns, "abc.supabase.co")
	assert.Contains(t, dns, "Technical details")
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "abc.supabase.co", ExtractHostFromURL("https://abc.supabase.co"))
	assert.Equal(t, "localhost:54321", ExtractHostFromURL("http://localhost:54321/"))
	assert.Equal(t, "server", ExtractHostFromURL("::not a url"))
}
