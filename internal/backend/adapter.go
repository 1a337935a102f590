// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend talks to the hosted auth service's REST API (GoTrue, as
// served under <project-url>/auth/v1). It defines the API contract the rest
// of the CLI depends on plus an HTTP implementation. Password checks, token
// issuance and confirmation emails all happen on the service side; this
// package only shapes requests and normalizes responses.
package backend

import "context"

// LogoutScope selects which sessions a logout revokes.
type LogoutScope string

const (
	ScopeGlobal LogoutScope = "global"
	ScopeLocal  LogoutScope = "local"
	ScopeOthers LogoutScope = "others"
)

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// Health reports the service version; no authentication required.
	Health(ctx context.Context) (HealthInfo, error)
	// SignInWithPassword exchanges email and password for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp creates an account. Depending on project settings the response
	// carries a session (auto-confirm) or only the pending user.
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error)
	// RefreshToken exchanges a refresh token for a new session.
	RefreshToken(ctx context.Context, refreshToken string) (*Session, error)
	// GetUser returns the user the access token belongs to.
	GetUser(ctx context.Context, accessToken string) (*User, error)
	// Logout revokes the session(s) selected by scope.
	Logout(ctx context.Context, accessToken string, scope LogoutScope) error
}
