// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lovmig/cli/internal/backend"
)

// Session is the token bundle issued by the auth service.
type Session = backend.Session

// User is the identity record attached to a session.
type User = backend.User

// UserOf derives the user from a session; no session means no user.
func UserOf(s *Session) *User {
	if s == nil {
		return nil
	}
	return s.User
}

// normalizeSession fills in ExpiresAt when the service only sent
// expires_in, or nothing at all. In the last case the exp claim of the
// access token is read without verification; it only picks a refresh time.
func normalizeSession(s *Session, now time.Time) {
	if s == nil || s.ExpiresAt != 0 {
		return
	}
	if s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
		return
	}
	if exp := tokenExpiry(s.AccessToken); !exp.IsZero() {
		s.ExpiresAt = exp.Unix()
	}
}

func tokenExpiry(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}
	tok, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
