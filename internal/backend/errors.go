// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx answer from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAPIError reports whether err is an *APIError with one of the given
// statuses (any status when none are given).
func IsAPIError(err error, statuses ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// parseAPIError builds an APIError from a response body. The service has
// used several error shapes over time ({"msg"}, {"message"},
// {"error","error_description"}); all of them are accepted.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		for _, path := range []string{"msg", "message", "error_description", "error"} {
			if v := res.Get(path); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
				e.Message = strings.TrimSpace(v.String())
				break
			}
		}
		for _, path := range []string{"error_code", "code", "error"} {
			if v := res.Get(path); v.Type == gjson.String && v.String() != "" {
				e.Code = v.String()
				break
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		e.Message = text
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return e
}
