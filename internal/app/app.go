// Package app assembles the client: persisted session and cookies, the
// gateway with its middleware chain, the resource clients and the view
// dependencies.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"albumreviews/internal/api"
	"albumreviews/internal/config"
	"albumreviews/internal/cookies"
	"albumreviews/internal/gateway"
	"albumreviews/internal/logging"
	"albumreviews/internal/nav"
	"albumreviews/internal/session"
	"albumreviews/internal/store"
	"albumreviews/internal/views"
)

const userAgent = "albumreviews-cli/1.0"

// App is a fully wired client.
type App struct {
	Log      *logging.Logger
	Storage  store.Storage
	Cookies  *cookies.Jar
	Sessions *session.Store
	Gateway  *gateway.Client
	API      *api.Client
	History  *nav.History
	Views    views.Deps
}

type options struct {
	transport http.RoundTripper
	storage   store.Storage
}

// Option customizes New.
type Option func(*options)

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithStorage uses s instead of opening cfg.Session.StoreURL.
func WithStorage(s store.Storage) Option {
	return func(o *options) { o.storage = s }
}

// New restores the persisted session and cookies and builds the client.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	storage := o.storage
	if storage == nil {
		var err error
		storage, err = store.Open(ctx, cfg.Session.StoreURL)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	jar := cookies.New()
	if err := jar.Load(ctx, storage); err != nil {
		zl := logger.Zerolog()
		zl.Warn().Err(err).Msg("discarding unreadable saved cookies")
	}

	sessions, err := session.New(ctx, storage,
		session.WithCookies(jar),
		session.WithLogger(logger.Component("session")),
	)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	history := &nav.History{}
	gatewayOpts := []gateway.Option{
		gateway.WithCookieJar(jar),
		gateway.WithLogger(logger),
		gateway.WithRequestMiddleware(
			gateway.RequestID(),
			gateway.AuthToken(sessions),
			gateway.CSRF(jar, cfg.API.CSRFCookie, cfg.API.CSRFHeader),
		),
		gateway.WithResponseMiddleware(
			gateway.ExpireSessionOnUnauthorized(sessions, history, logger.Component("gateway")),
		),
	}
	if cfg.API.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateBurst)
		gatewayOpts = append(gatewayOpts, gateway.WithRequestMiddleware(gateway.RateLimit(limiter)))
	}
	if o.transport != nil {
		gatewayOpts = append(gatewayOpts, gateway.WithTransport(o.transport))
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: userAgent,
	}, gatewayOpts...)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	client := api.New(gw)
	return &App{
		Log:      logger,
		Storage:  storage,
		Cookies:  jar,
		Sessions: sessions,
		Gateway:  gw,
		API:      client,
		History:  history,
		Views:    views.NewDeps(client, sessions, history, logger.Component("views")),
	}, nil
}

// Close persists the cookie jar and releases the session store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.Cookies.Save(ctx, a.Storage),
		a.Storage.Close(),
	)
}
