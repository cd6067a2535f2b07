package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"albumreviews/internal/gateway"
	"albumreviews/internal/validator"
)

// Describe turns an error into the message a view shows.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var fields validator.FieldErrors
	var netErr *gateway.NetworkError
	var httpErr *gateway.HTTPError

	switch {
	case errors.As(err, &fields):
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, fields[k])
		}
		return strings.Join(msgs, ". ")
	case errors.Is(err, ErrLoginRequired):
		return "Please log in to continue."
	case errors.Is(err, ErrLikeInFlight):
		return "Still saving your last like."
	case errors.Is(err, ErrSubmitInFlight):
		return "Still submitting. Please wait."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, gateway.ErrBadData):
		return "The server sent a response we could not read."
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "The server took too long to respond. Please try again."
		}
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, gateway.ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fmt.Sprintf("Something went wrong (status %d).", httpErr.StatusCode)
	default:
		return err.Error()
	}
}
