package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"albumreviews/internal/api"
	"albumreviews/internal/config"
	"albumreviews/internal/gateway"
	"albumreviews/internal/logging"
	"albumreviews/internal/mockapi"
	"albumreviews/internal/nav"
	"albumreviews/internal/session"
	"albumreviews/internal/store"
	"albumreviews/internal/views"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	backend, err := mockapi.New(mockapi.Config{
		JWTSecret:  "integration-secret-0123",
		BcryptCost: bcrypt.MinCost,
		Seed:       true,
	}, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:    baseURL + "/api",
			Timeout:    5 * time.Second,
			CSRFCookie: mockapi.CSRFCookieName,
			CSRFHeader: mockapi.CSRFHeaderName,
		},
		Session: config.SessionConfig{StoreURL: "memory://"},
	}
}

func newApp(t *testing.T, cfg *config.Config, storage store.Storage) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.Nop(), WithStorage(storage))
	require.NoError(t, err)
	return a
}

func signIn(t *testing.T, a *App) {
	t.Helper()
	form := views.NewLoginForm(a.Views)
	require.NoError(t, form.Submit(context.Background(), mockapi.DemoUsername, mockapi.DemoPassword))
	require.True(t, a.Sessions.IsAuthenticated())
	assert.Equal(t, views.MsgLoginSucceeded, form.Success())
	assert.Equal(t, nav.Albums, a.History.Current())
}

func firstReviewedAlbum(t *testing.T, a *App) api.Album {
	t.Helper()
	albums, err := a.API.Albums.List(context.Background(), api.AlbumFilter{Search: "Mezzanine"})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	return albums[0]
}

func TestLikeToggledTwiceRestoresCount(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())
	ctx := context.Background()
	signIn(t, a)

	card := views.NewAlbumCard(firstReviewedAlbum(t, a), a.Views)
	require.NoError(t, card.Load(ctx))
	reviews := card.Reviews.Reviews()
	require.NotEmpty(t, reviews)
	before := reviews[0].LikeCount

	first, err := card.Like(ctx, reviews[0].ID)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, before+1, first.Count)
	assert.Equal(t, api.ShapeStatus, first.Shape)

	second, err := card.Like(ctx, reviews[0].ID)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, before, second.Count)

	assert.Equal(t, before, card.Reviews.Reviews()[0].LikeCount)
	assert.GreaterOrEqual(t, card.Reviews.Fetches(), 3)
}

func TestUnauthorizedAnywhereSignsOut(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())
	ctx := context.Background()

	require.NoError(t, a.Sessions.Set(ctx, "forged-token", &session.User{ID: 1, Username: "demo"}))

	page := views.NewAlbumsPage(a.Views)
	err := page.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)

	assert.False(t, a.Sessions.IsAuthenticated())
	token, ok, err := a.Storage.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok, "token should be removed from storage, got %q", token)
	assert.Equal(t, nav.Login, a.History.Current())
}

func TestReviewSubmissionThroughCSRF(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())
	ctx := context.Background()
	signIn(t, a)

	albums, err := a.API.Albums.List(ctx, api.AlbumFilter{Search: "Carboot"})
	require.NoError(t, err)
	require.Len(t, albums, 1)

	card := views.NewAlbumCard(albums[0], a.Views)
	require.NoError(t, card.Load(ctx))
	assert.False(t, card.Summary().HasRatings())

	require.True(t, card.ToggleReviewForm())
	form := card.Form()
	form.SetRating(4)
	form.SetText("  Sunday morning record.  ")
	review, err := form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sunday morning record.", review.ReviewText)

	summary := card.Summary()
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, "4.0", summary.String())

	form = views.NewReviewForm(albums[0].ID, a.Views, nil)
	form.SetRating(5)
	form.SetText("second try")
	_, err = form.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "You have already reviewed this album", form.Message())
}

func TestSessionAndCookiesSurviveRestart(t *testing.T) {
	srv := newBackend(t)
	cfg := testConfig(srv.URL)
	storage := store.NewMemory()
	ctx := context.Background()

	a := newApp(t, cfg, storage)
	signIn(t, a)
	require.NoError(t, a.Cookies.Save(ctx, a.Storage))

	restarted := newApp(t, cfg, storage)
	assert.True(t, restarted.Sessions.IsAuthenticated())
	assert.Equal(t, mockapi.DemoUsername, restarted.Sessions.Get().User.Username)

	me, err := restarted.API.Users.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, mockapi.DemoUsername, me.Username)

	status, err := restarted.API.Auth.VerifyToken(ctx)
	require.NoError(t, err)
	assert.True(t, status.Valid)
}

func TestSignOutRevokesServerToken(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())
	ctx := context.Background()
	signIn(t, a)
	token := a.Sessions.Token()

	navbar := views.NewNavbar(a.Views)
	defer navbar.Close()
	require.NoError(t, navbar.SignOut(ctx))
	assert.False(t, navbar.Authenticated())
	assert.Equal(t, nav.Home, a.History.Current())

	require.NoError(t, a.Sessions.Set(ctx, token, &session.User{ID: 1, Username: mockapi.DemoUsername}))
	_, err := a.API.Users.Me(ctx)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
	assert.False(t, a.Sessions.IsAuthenticated())
}

func TestSignupThenLogin(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())
	ctx := context.Background()

	signup := views.NewSignupForm(a.Views)
	require.NoError(t, signup.Submit(ctx, api.Credentials{Username: "fresh", Password: "pw123456"}))
	assert.Equal(t, views.MsgSignupSucceeded, signup.Success())
	assert.False(t, a.Sessions.IsAuthenticated())
	assert.Equal(t, nav.Login, a.History.Current())

	err := signup.Submit(ctx, api.Credentials{Username: "fresh", Password: "pw123456"})
	require.Error(t, err)
	assert.Equal(t, "Username already taken", signup.Message())

	login := views.NewLoginForm(a.Views)
	err = login.Submit(ctx, "fresh", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", login.Message())

	require.NoError(t, login.Submit(ctx, "fresh", "pw123456"))
	assert.Equal(t, "fresh", a.Sessions.Get().User.Username)
}

func TestHomePageAgainstMockBackend(t *testing.T) {
	srv := newBackend(t)
	a := newApp(t, testConfig(srv.URL), store.NewMemory())

	page := views.NewHomePage(a.Views)
	require.NoError(t, page.Load(context.Background()))

	featured, err := page.Featured()
	require.NoError(t, err)
	require.NotEmpty(t, featured)
	assert.LessOrEqual(t, len(featured), 6)
	require.NotNil(t, featured[0].AverageRating)
	for _, album := range featured[1:] {
		if album.AverageRating != nil {
			assert.LessOrEqual(t, *album.AverageRating, *featured[0].AverageRating)
		}
	}

	recent, err := page.RecentReviews()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recent), 5)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].CreatedAt.After(recent[i-1].CreatedAt))
	}

	stats := page.Stats()
	assert.Positive(t, stats.Albums)
	assert.Positive(t, stats.Artists)
	assert.GreaterOrEqual(t, stats.Albums, len(featured))
}
