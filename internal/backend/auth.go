package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
)

// SignInWithPassword calls POST /auth/v1/token?grant_type=password.
// Invalid credentials come back as an *APIError with status 400.
func (h *HTTP) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var s Session
	q := url.Values{"grant_type": {"password"}}
	if err := h.do(ctx, http.MethodPost, "/token", q, body, "", &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, errors.New("no access_token in response")
	}
	return &s, nil
}

// SignUp calls POST /auth/v1/signup. The redirect target travels as the
// redirect_to query parameter so the confirmation email links back to it.
func (h *HTTP) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	body := map[string]any{
		"email":    req.Email,
		"password": req.Password,
	}
	if len(req.Data) > 0 {
		body["data"] = req.Data
	}
	var q url.Values
	if req.RedirectTo != "" {
		q = url.Values{"redirect_to": {req.RedirectTo}}
	}

	var raw json.RawMessage
	if err := h.do(ctx, http.MethodPost, "/signup", q, body, "", &raw); err != nil {
		return nil, err
	}
	return parseSignUpResponse(raw)
}

// parseSignUpResponse accepts both shapes the service returns: a full
// session when the project auto-confirms, or a bare user otherwise.
func parseSignUpResponse(raw json.RawMessage) (*SignUpResponse, error) {
	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if len(raw) == 0 {
		return &SignUpResponse{}, nil
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if probe.AccessToken != "" {
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &SignUpResponse{Session: &s, User: s.User}, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return &SignUpResponse{}, nil
	}
	return &SignUpResponse{User: &u}, nil
}

// Logout calls POST /auth/v1/logout?scope=<scope> with the user's token.
func (h *HTTP) Logout(ctx context.Context, accessToken string, scope LogoutScope) error {
	if scope == "" {
		scope = ScopeGlobal
	}
	q := url.Values{"scope": {string(scope)}}
	return h.do(ctx, http.MethodPost, "/logout", q, nil, accessToken, nil)
}
