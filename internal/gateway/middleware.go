package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"albumreviews/internal/logging"
	"albumreviews/internal/nav"
)

// RequestIDHeader carries the per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the current auth token, empty when signed out.
type TokenSource interface {
	Token() string
}

// CookieSource looks up a cookie that would be sent to u.
type CookieSource interface {
	Value(u *url.URL, name string) (string, bool)
}

// SessionClearer ends the local session.
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// AuthToken sets "Authorization: Token <value>" whenever a token exists.
func AuthToken(src TokenSource) RequestMiddleware {
	return func(req *http.Request) error {
		if token := src.Token(); token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
		return nil
	}
}

// CSRF copies the CSRF cookie into header on state-changing requests. It
// does nothing when the cookie has not been issued yet.
func CSRF(src CookieSource, cookieName, headerName string) RequestMiddleware {
	return func(req *http.Request) error {
		switch req.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return nil
		}
		if value, ok := src.Value(req.URL, cookieName); ok && value != "" {
			req.Header.Set(headerName, value)
		}
		return nil
	}
}

// RequestID tags each call with an X-Request-ID, reusing one already stored
// in the request context.
func RequestID() RequestMiddleware {
	return func(req *http.Request) error {
		if req.Header.Get(RequestIDHeader) != "" {
			return nil
		}
		id := logging.RequestID(req.Context())
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set(RequestIDHeader, id)
		return nil
	}
}

// RateLimit blocks until limiter admits the call. A nil limiter disables throttling.
func RateLimit(limiter *rate.Limiter) RequestMiddleware {
	return func(req *http.Request) error {
		if limiter == nil {
			return nil
		}
		if err := limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		return nil
	}
}

// ExpireSessionOnUnauthorized treats every 401 as a dead session, whichever
// call received it: the session and cookies are cleared and the user is sent
// to the login page. The response still surfaces to the caller as an error.
func ExpireSessionOnUnauthorized(sessions SessionClearer, navigator nav.Navigator, log zerolog.Logger) ResponseMiddleware {
	return func(resp *http.Response) error {
		if resp.StatusCode != http.StatusUnauthorized {
			return nil
		}

		ctx := context.Background()
		if resp.Request != nil {
			ctx = context.WithoutCancel(resp.Request.Context())
		}
		if err := sessions.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to clear session after 401")
		}
		if navigator != nil {
			navigator.Navigate(nav.Login)
		}
		return nil
	}
}
