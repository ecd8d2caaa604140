package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Common error types for the admin API client
var (
	// Authentication errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrLoggedOut            = errors.New("logged out")
	ErrSessionChanged       = errors.New("session changed during refresh")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrInvalidToken   = errors.New("invalid token")

	// Request errors
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// APIError is a non-2xx response from the platform API.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string]string
}

func (e *APIError) Error() string {
	if len(e.FieldErrors) > 0 {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, formatFields(e.FieldErrors))
	}
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers match an APIError against the sentinels above.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest && len(e.FieldErrors) > 0
	case ErrAuthenticationFailed:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// messageKeys are the body keys that carry a message rather than a field
// error, in order of preference.
var messageKeys = []string{"detail", "message", "error_description", "error"}

// ParseAPIError builds an APIError from a response body. Bodies that are a
// field -> message (or field -> [messages]) mapping become FieldErrors; a
// "detail", "message" or "error" string becomes Message.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if len(body) == 0 {
		return apiErr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	for _, key := range messageKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(msg, &s) == nil {
			if apiErr.Message == "" {
				apiErr.Message = s
			}
			delete(raw, key)
		}
	}
	delete(raw, "code")

	for field, value := range raw {
		if msg := fieldMessage(value); msg != "" {
			if apiErr.FieldErrors == nil {
				apiErr.FieldErrors = make(map[string]string)
			}
			apiErr.FieldErrors[field] = msg
		}
	}
	return apiErr
}

func fieldMessage(value json.RawMessage) string {
	var s string
	if json.Unmarshal(value, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(value, &list) == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// ValidationError is a client-side rejection raised before any network call.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records the first message for a field.
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// ErrOrNil returns nil when no field failed.
func (e *ValidationError) ErrOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return "validation failed: " + formatFields(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
