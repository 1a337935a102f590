// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import "net/http"

// Option customizes the HTTP backend.
type Option func(*HTTP)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(h *HTTP) { h.userAgent = ua }
}

// New creates a backend API implementation for the project at baseURL,
// authenticating requests with the publishable key.
func New(baseURL, apiKey string, opts ...Option) API {
	return newHTTP(baseURL, apiKey, opts...)
}
