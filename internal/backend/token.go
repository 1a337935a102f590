// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// RefreshToken calls POST /auth/v1/token?grant_type=refresh_token.
// The service rotates refresh tokens, so the returned session carries a new one.
func (h *HTTP) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}
	body := map[string]string{
		"refresh_token": refreshToken,
	}
	var s Session
	q := url.Values{"grant_type": {"refresh_token"}}
	if err := h.do(ctx, http.MethodPost, "/token", q, body, "", &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, errors.New("no access_token in response")
	}
	return &s, nil
}
