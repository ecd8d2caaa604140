package admin

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
)

const (
	msgSessionExpired     = "Your session has expired. Please log in again."
	msgInvalidCredentials = "Invalid email or password."
	msgNetwork            = "Could not reach the server. Please try again."
	msgCancelled          = "The request was cancelled."
	msgGeneric            = "Something went wrong. Please try again."
)

// UserMessage turns an error from the console into the text shown to the
// admin. Field errors are listed one per line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		verr   *apierrors.ValidationError
		apiErr *apierrors.APIError
	)
	switch {
	case errors.Is(err, apierrors.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, apierrors.ErrAuthenticationFailed), errors.Is(err, apierrors.ErrNotAuthenticated):
		return msgSessionExpired
	case errors.As(err, &verr):
		return fieldLines(verr.Fields)
	case errors.As(err, &apiErr):
		if len(apiErr.FieldErrors) > 0 {
			return fieldLines(apiErr.FieldErrors)
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return msgGeneric
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgCancelled
	case isNetworkError(err):
		return msgNetwork
	}
	return msgGeneric
}

func fieldLines(fields map[string]string) string {
	lines := make([]string, 0, len(fields))
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		lines = append(lines, fmt.Sprintf("%s: %s", field, fields[field]))
	}
	return strings.Join(lines, "\n")
}

func isNetworkError(err error) bool {
	var (
		urlErr *url.Error
		netErr net.Error
	)
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}
