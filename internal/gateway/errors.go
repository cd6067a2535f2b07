package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches any 403 response.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrNetwork matches transport failures and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrBadData matches responses whose body does not have the expected shape.
	ErrBadData = errors.New("unexpected response data")
)

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the backend's explanation taken from the body, if any.
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets errors.Is match status sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// NetworkError wraps a failure to reach the backend or read its reply.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Timeout reports whether the call ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// BadDataError reports a 2xx response that could not be decoded.
type BadDataError struct {
	Method string
	Path   string
	Err    error
}

func (e *BadDataError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, ErrBadData, e.Err)
}

func (e *BadDataError) Unwrap() error { return e.Err }

func (e *BadDataError) Is(target error) bool { return target == ErrBadData }

// IsRetryable reports whether repeating the call may succeed: transport
// failures, 429 and 5xx responses.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Message returns the backend's message carried by err, or "".
func Message(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return ""
}

// extractMessage finds a human readable explanation in an error body. It
// understands {"message"}, {"detail"}, {"error"} and field error maps such
// as {"rating": ["Ensure this value is less than or equal to 5."]}.
func extractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}

	for _, path := range []string{"message", "detail", "error", "non_field_errors.0"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}

	var msg string
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			msg = key.String() + ": " + value.String()
		case value.IsArray() && value.Get("0").Type == gjson.String:
			msg = key.String() + ": " + value.Get("0").String()
		default:
			return true
		}
		return false
	})
	return msg
}
