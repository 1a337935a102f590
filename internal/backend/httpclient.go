package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// authPath is the prefix under which the project serves the auth API.
const authPath = "/auth/v1"

// HTTP implements API over the service's REST endpoints.
type HTTP struct {
	// baseURL is the project URL (e.g., "https://abc.supabase.co")
	baseURL string
	// apiKey is the publishable key sent as the apikey header
	apiKey string
	// client is the underlying HTTP client with configured timeout
	client    *http.Client
	userAgent string
}

// newHTTP creates a new HTTP client with the given base URL and key.
// It configures a 10-second timeout for all requests.
func newHTTP(baseURL, apiKey string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: "lovmig-cli",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health calls GET /auth/v1/health. No user authentication required; this is
// used to check connectivity and that the key is accepted.
func (h *HTTP) Health(ctx context.Context) (HealthInfo, error) {
	var out HealthInfo
	if err := h.do(ctx, http.MethodGet, "/health", nil, nil, "", &out); err != nil {
		return HealthInfo{}, err
	}
	if out.Version == "" {
		out.Version = "unknown"
	}
	return out, nil
}

// do performs one request against the auth API. body is JSON-encoded when
// non-nil; out, when non-nil, receives the decoded 2xx response. Non-2xx
// responses are returned as *APIError.
func (h *HTTP) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	endpoint := h.baseURL + authPath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	h.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// setStandardHeaders adds the headers every request carries. When no user
// token is supplied the key also doubles as the bearer, as the service expects.
func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("apikey", h.apiKey)
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
}
