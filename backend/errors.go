package backend

import (
	"errors"
	"fmt"
)

// APIError is a structured rejection from the auth service: invalid
// credentials, duplicate account, expired token and so on. It is returned as
// a value, never panicked.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error_code,omitempty"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("auth service: %s (status %d)", e.Message, e.Status)
}

// AsAPIError unwraps an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
