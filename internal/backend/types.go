// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"time"
)

// Session is the token bundle issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Expiry returns the access token expiry, or the zero time when unknown.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the access token expires within d of now.
// Sessions with unknown expiry never report true.
func (s *Session) ExpiresWithin(d time.Duration, now time.Time) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return exp.Sub(now) < d
}

// User is the identity record the auth service keeps for an account.
type User struct {
	ID                 string         `json:"id"`
	Aud                string         `json:"aud,omitempty"`
	Role               string         `json:"role,omitempty"`
	Email              string         `json:"email,omitempty"`
	Phone              string         `json:"phone,omitempty"`
	EmailConfirmedAt   *time.Time     `json:"email_confirmed_at,omitempty"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at,omitempty"`
	LastSignInAt       *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt          *time.Time     `json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
	AppMetadata        map[string]any `json:"app_metadata,omitempty"`
	UserMetadata       map[string]any `json:"user_metadata,omitempty"`
}

// Identifier returns the most readable identifier available: email, phone, then id.
func (u *User) Identifier() string {
	if u == nil {
		return ""
	}
	switch {
	case u.Email != "":
		return u.Email
	case u.Phone != "":
		return u.Phone
	default:
		return u.ID
	}
}

// SignUpRequest carries the account-creation parameters.
type SignUpRequest struct {
	Email    string
	Password string
	// RedirectTo is where the confirmation link sends the user afterwards.
	RedirectTo string
	// Data is stored as the new user's user_metadata.
	Data map[string]any
}

// SignUpResponse holds either an immediate session (auto-confirmed projects)
// or the pending user awaiting email confirmation.
type SignUpResponse struct {
	Session *Session
	User    *User
}

// HealthInfo is returned by the service health endpoint.
type HealthInfo struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
