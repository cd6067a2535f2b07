package views

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"albumreviews/internal/api"
	"albumreviews/internal/nav"
	"albumreviews/internal/session"
	"albumreviews/internal/store"
)

type fakeAlbums struct {
	ListFn func(ctx context.Context, f api.AlbumFilter) ([]api.Album, error)
	GetFn  func(ctx context.Context, id int64) (api.Album, error)
}

func (f *fakeAlbums) List(ctx context.Context, filter api.AlbumFilter) ([]api.Album, error) {
	return f.ListFn(ctx, filter)
}

func (f *fakeAlbums) Get(ctx context.Context, id int64) (api.Album, error) {
	return f.GetFn(ctx, id)
}

type fakeArtists struct {
	ListFn   func(ctx context.Context) ([]api.Artist, error)
	GetFn    func(ctx context.Context, id int64) (api.Artist, error)
	AlbumsFn func(ctx context.Context, id int64) ([]api.Album, error)
}

func (f *fakeArtists) List(ctx context.Context) ([]api.Artist, error) { return f.ListFn(ctx) }

func (f *fakeArtists) Get(ctx context.Context, id int64) (api.Artist, error) {
	return f.GetFn(ctx, id)
}

func (f *fakeArtists) Albums(ctx context.Context, id int64) ([]api.Album, error) {
	return f.AlbumsFn(ctx, id)
}

// fakeReviews counts calls per method so tests can assert nothing was sent.
type fakeReviews struct {
	mu    sync.Mutex
	calls map[string]int

	ListByAlbumFn func(ctx context.Context, albumID int64) ([]api.Review, error)
	ListFn        func(ctx context.Context, f api.ReviewFilter) ([]api.Review, error)
	CreateFn      func(ctx context.Context, in api.ReviewInput) (api.Review, error)
	ToggleLikeFn  func(ctx context.Context, id int64) (api.LikeState, error)
	LikeStatusFn  func(ctx context.Context, id int64) (api.LikeState, error)
}

func (f *fakeReviews) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeReviews) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeReviews) ListByAlbum(ctx context.Context, albumID int64) ([]api.Review, error) {
	f.count("ListByAlbum")
	return f.ListByAlbumFn(ctx, albumID)
}

func (f *fakeReviews) List(ctx context.Context, filter api.ReviewFilter) ([]api.Review, error) {
	f.count("List")
	return f.ListFn(ctx, filter)
}

func (f *fakeReviews) Create(ctx context.Context, in api.ReviewInput) (api.Review, error) {
	f.count("Create")
	return f.CreateFn(ctx, in)
}

func (f *fakeReviews) ToggleLike(ctx context.Context, id int64) (api.LikeState, error) {
	f.count("ToggleLike")
	return f.ToggleLikeFn(ctx, id)
}

func (f *fakeReviews) LikeStatus(ctx context.Context, id int64) (api.LikeState, error) {
	f.count("LikeStatus")
	return f.LikeStatusFn(ctx, id)
}

type fakeAuth struct {
	LoginFn    func(ctx context.Context, username, password string) (api.AuthResult, error)
	RegisterFn func(ctx context.Context, creds api.Credentials) (api.AuthResult, error)
	LogoutFn   func(ctx context.Context) error
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (api.AuthResult, error) {
	return f.LoginFn(ctx, username, password)
}

func (f *fakeAuth) Register(ctx context.Context, creds api.Credentials) (api.AuthResult, error) {
	return f.RegisterFn(ctx, creds)
}

func (f *fakeAuth) Logout(ctx context.Context) error { return f.LogoutFn(ctx) }

type testEnv struct {
	deps     Deps
	sessions *session.Store
	history  *nav.History
	albums   *fakeAlbums
	artists  *fakeArtists
	reviews  *fakeReviews
	auth     *fakeAuth
}

func newTestEnv(t *testing.T, signedIn bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	sessions, err := session.New(ctx, store.NewMemory())
	require.NoError(t, err)
	if signedIn {
		require.NoError(t, sessions.Set(ctx, "tok", &session.User{ID: 1, Username: "alice"}))
	}

	env := &testEnv{
		sessions: sessions,
		history:  &nav.History{},
		albums:   &fakeAlbums{},
		artists:  &fakeArtists{},
		reviews:  &fakeReviews{},
		auth:     &fakeAuth{},
	}
	env.deps = Deps{
		Sessions: sessions,
		Albums:   env.albums,
		Artists:  env.artists,
		Reviews:  env.reviews,
		Auth:     env.auth,
		Nav:      env.history,
		Log:      zerolog.Nop(),
	}
	return env
}

func reviewsWithRatings(ratings ...int) []api.Review {
	out := make([]api.Review, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, api.Review{ID: int64(i + 1), Album: 1, Rating: r, ReviewText: "text"})
	}
	return out
}
