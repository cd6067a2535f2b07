// Package views holds the page and card controllers of the client. Each view
// owns its local state, calls the resource clients and moves the user around
// through a nav.Navigator. Rendering is left to the caller.
package views

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"albumreviews/internal/api"
	"albumreviews/internal/nav"
	"albumreviews/internal/session"
)

var (
	// ErrLoginRequired is returned when an action needs a session and the
	// user was sent to the login page instead.
	ErrLoginRequired = errors.New("login required")
	// ErrLikeInFlight is returned when a like is requested while the previous
	// one for the same review has not settled.
	ErrLikeInFlight = errors.New("like already in progress")
	// ErrSubmitInFlight is returned when a form is submitted twice concurrently.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrClosed is returned by loads on a view that was closed.
	ErrClosed = errors.New("view closed")
)

// Sessions is the session store as seen by views.
type Sessions interface {
	Get() session.Session
	IsAuthenticated() bool
	Set(ctx context.Context, token string, user *session.User) error
	Clear(ctx context.Context) error
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

type AlbumAPI interface {
	List(ctx context.Context, f api.AlbumFilter) ([]api.Album, error)
	Get(ctx context.Context, id int64) (api.Album, error)
}

type ArtistAPI interface {
	List(ctx context.Context) ([]api.Artist, error)
	Get(ctx context.Context, id int64) (api.Artist, error)
	Albums(ctx context.Context, id int64) ([]api.Album, error)
}

type ReviewAPI interface {
	ListByAlbum(ctx context.Context, albumID int64) ([]api.Review, error)
	List(ctx context.Context, f api.ReviewFilter) ([]api.Review, error)
	Create(ctx context.Context, in api.ReviewInput) (api.Review, error)
	ToggleLike(ctx context.Context, id int64) (api.LikeState, error)
	LikeStatus(ctx context.Context, id int64) (api.LikeState, error)
}

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (api.AuthResult, error)
	Register(ctx context.Context, creds api.Credentials) (api.AuthResult, error)
	Logout(ctx context.Context) error
}

// Deps bundles what every view needs.
type Deps struct {
	Sessions Sessions
	Albums   AlbumAPI
	Artists  ArtistAPI
	Reviews  ReviewAPI
	Auth     AuthAPI
	Nav      nav.Navigator
	Log      zerolog.Logger
}

// NewDeps wires views to the resource clients.
func NewDeps(client *api.Client, sessions Sessions, navigator nav.Navigator, log zerolog.Logger) Deps {
	return Deps{
		Sessions: sessions,
		Albums:   client.Albums,
		Artists:  client.Artists,
		Reviews:  client.Reviews,
		Auth:     client.Auth,
		Nav:      navigator,
		Log:      log,
	}
}

// requireSession sends anonymous users to the login page.
func (d Deps) requireSession() error {
	if d.Sessions != nil && d.Sessions.IsAuthenticated() {
		return nil
	}
	d.navigate(nav.Login)
	return ErrLoginRequired
}

func (d Deps) navigate(route nav.Route) {
	if d.Nav != nil {
		d.Nav.Navigate(route)
	}
}
