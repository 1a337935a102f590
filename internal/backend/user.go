// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
)

// GetUser calls GET /auth/v1/user with the user's access token.
// An expired or revoked token yields an *APIError with status 401 or 403.
func (h *HTTP) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := h.do(ctx, http.MethodGet, "/user", nil, nil, accessToken, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
