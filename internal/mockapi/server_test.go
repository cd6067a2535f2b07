package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"albumreviews/internal/api"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s, err := New(Config{
		JWTSecret:     "test-secret-at-least-16",
		AllowedOrigin: "http://localhost:3000",
		BcryptCost:    bcrypt.MinCost,
		Seed:          true,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s, s.Handler()
}

func serve(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response (%d): %v", rr.Code, err)
	}
	return out
}

func login(t *testing.T, h http.Handler, username, password string) authResponse {
	t.Helper()
	rr := serve(t, h, http.MethodPost, "/api/login/", "", api.Credentials{Username: username, Password: password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rr.Code, rr.Body)
	}
	return decode[authResponse](t, rr)
}

func albumByTitle(t *testing.T, s *Server, title string) api.Album {
	t.Helper()
	for _, al := range s.Catalogue().Albums(api.AlbumFilter{Search: title}) {
		if al.Title == title {
			return al
		}
	}
	t.Fatalf("album %q not seeded", title)
	return api.Album{}
}

func TestRegister(t *testing.T) {
	_, h := newTestServer(t)

	rr := serve(t, h, http.MethodPost, "/api/register/", "", api.Credentials{Username: "newbie", Password: "secret1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body)
	}
	res := decode[authResponse](t, rr)
	if res.Message != "Account created successfully" || res.Token == "" || res.Username != "newbie" || res.UserID == 0 {
		t.Fatalf("unexpected register payload: %#v", res)
	}

	tests := []struct {
		name string
		body api.Credentials
		want string
	}{
		{"taken", api.Credentials{Username: "newbie", Password: "x"}, "Username already taken"},
		{"missing password", api.Credentials{Username: "other"}, "Username and password are required"},
		{"blank username", api.Credentials{Username: "  ", Password: "x"}, "Username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, h, http.MethodPost, "/api/register/", "", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decode[messageResponse](t, rr).Message; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	_, h := newTestServer(t)

	res := login(t, h, DemoUsername, DemoPassword)
	if res.Token == "" || res.Username != DemoUsername || res.UserID == 0 {
		t.Fatalf("unexpected login payload: %#v", res)
	}

	rr := serve(t, h, http.MethodPost, "/api/login/", "", api.Credentials{Username: DemoUsername, Password: "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := decode[messageResponse](t, rr).Message; got != "Invalid credentials" {
		t.Fatalf("unexpected message %q", got)
	}

	rr = serve(t, h, http.MethodPost, "/api/login/", "", api.Credentials{Username: "ghost", Password: "x"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rr.Code)
	}
}

func TestLoginIgnoresStaleToken(t *testing.T) {
	_, h := newTestServer(t)
	rr := serve(t, h, http.MethodPost, "/api/login/", "garbage", api.Credentials{Username: DemoUsername, Password: DemoPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	_, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token

	rr := serve(t, h, http.MethodPost, "/api/verify-token/", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", rr.Code)
	}
	status := decode[api.TokenStatus](t, rr)
	if !status.Valid || status.Username != DemoUsername {
		t.Fatalf("unexpected token status: %#v", status)
	}

	if rr := serve(t, h, http.MethodPost, "/api/logout/", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}

	rr = serve(t, h, http.MethodGet, "/api/users/me/", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to get 401, got %d", rr.Code)
	}
	if got := decode[detailResponse](t, rr).Detail; got != "Invalid token." {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestInvalidTokenRejectedOnReads(t *testing.T) {
	_, h := newTestServer(t)
	rr := serve(t, h, http.MethodGet, "/api/albums/", "not-a-jwt", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestListAlbumsFilters(t *testing.T) {
	s, h := newTestServer(t)
	radiohead := albumByTitle(t, s, "OK Computer")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"genre icontains", "?genre=trip", []string{"Dummy", "Mezzanine"}},
		{"search artist", "?search=nirvana", []string{"Nevermind"}},
		{"search genre", "?search=JAZZ", []string{"Drunk"}},
		{"artist id", fmt.Sprintf("?artist_id=%d", radiohead.Artist), []string{"OK Computer"}},
		{"title ordering", "?ordering=title&genre=trip", []string{"Dummy", "Mezzanine"}},
		{"year ordering", "?ordering=-release_year&genre=trip", []string{"Mezzanine", "Dummy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, h, http.MethodGet, "/api/albums/"+tt.query, "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			albums := decode[[]api.Album](t, rr)
			var titles []string
			for _, al := range albums {
				titles = append(titles, al.Title)
			}
			if strings.Join(titles, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("expected %v, got %v", tt.want, titles)
			}
		})
	}

	rr := serve(t, h, http.MethodGet, "/api/albums/?artist_id=abc", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad artist_id, got %d", rr.Code)
	}
}

func TestDefaultOrderingIsNewestFirst(t *testing.T) {
	_, h := newTestServer(t)
	albums := decode[[]api.Album](t, serve(t, h, http.MethodGet, "/api/albums/", "", nil))
	if len(albums) != len(seedAlbums) {
		t.Fatalf("expected %d albums, got %d", len(seedAlbums), len(albums))
	}
	if albums[0].Title != seedAlbums[len(seedAlbums)-1].Title {
		t.Fatalf("expected newest album first, got %q", albums[0].Title)
	}
}

func TestAverageRatingOrdering(t *testing.T) {
	_, h := newTestServer(t)
	albums := decode[[]api.Album](t, serve(t, h, http.MethodGet, "/api/albums/?ordering=-average_rating", "", nil))
	if len(albums) != len(seedAlbums) {
		t.Fatalf("expected %d albums, got %d", len(seedAlbums), len(albums))
	}
	for i := 1; i < len(albums); i++ {
		if averageOf(albums[i]) > averageOf(albums[i-1]) {
			t.Fatalf("albums not sorted by average rating: %q (%v) after %q (%v)",
				albums[i].Title, averageOf(albums[i]), albums[i-1].Title, averageOf(albums[i-1]))
		}
	}
	if last := albums[len(albums)-1]; last.ReviewCount != 0 {
		t.Fatalf("expected an unreviewed album last, got %q with %d reviews", last.Title, last.ReviewCount)
	}

	asc := decode[[]api.Album](t, serve(t, h, http.MethodGet, "/api/albums/?ordering=average_rating", "", nil))
	if asc[0].ReviewCount != 0 {
		t.Fatalf("expected an unreviewed album first in ascending order, got %q", asc[0].Title)
	}
}

func TestAlbumAggregates(t *testing.T) {
	s, h := newTestServer(t)

	unreviewed := albumByTitle(t, s, "Carboot Soul")
	rr := serve(t, h, http.MethodGet, fmt.Sprintf("/api/albums/%d/", unreviewed.ID), "", nil)
	got := decode[api.Album](t, rr)
	if got.ReviewCount != 0 || got.AverageRating == nil || *got.AverageRating != 0 {
		t.Fatalf("expected no reviews and average 0, got %#v", got)
	}
	if got.ArtistName != "Nightmares on Wax" || got.ArtistBio == "" {
		t.Fatalf("expected artist fields, got %#v", got)
	}

	rr = serve(t, h, http.MethodGet, "/api/albums/999999/", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateReview(t *testing.T) {
	s, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token
	album := albumByTitle(t, s, "Spaces")

	rejects := []struct {
		name string
		body api.ReviewInput
		want string
	}{
		{"missing album", api.ReviewInput{Rating: 4, ReviewText: "ok"}, "Album ID is required"},
		{"missing text", api.ReviewInput{Album: album.ID, Rating: 4}, "Review text is required"},
		{"missing rating", api.ReviewInput{Album: album.ID, ReviewText: "ok"}, "Rating is required"},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, h, http.MethodPost, "/api/reviews/", token, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decode[messageResponse](t, rr).Message; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}

	rr := serve(t, h, http.MethodPost, "/api/reviews/", token, api.ReviewInput{Album: album.ID, Rating: 9, ReviewText: "ok"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range rating, got %d", rr.Code)
	}
	if fields := decode[map[string][]string](t, rr); len(fields["rating"]) != 1 {
		t.Fatalf("expected rating field error, got %v", fields)
	}

	rr = serve(t, h, http.MethodPost, "/api/reviews/", token, api.ReviewInput{Album: album.ID, Rating: 4, ReviewText: "Patient and warm."})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body)
	}
	review := decode[api.Review](t, rr)
	if review.Username != DemoUsername || review.AlbumTitle != "Spaces" || review.Rating != 4 {
		t.Fatalf("unexpected review: %#v", review)
	}

	rr = serve(t, h, http.MethodPost, "/api/reviews/", token, api.ReviewInput{Album: album.ID, Rating: 5, ReviewText: "again"})
	if got := decode[messageResponse](t, rr).Message; got != "You have already reviewed this album" {
		t.Fatalf("unexpected duplicate message %q", got)
	}

	rr = serve(t, h, http.MethodGet, fmt.Sprintf("/api/reviews/?album_id=%d", album.ID), "", nil)
	if reviews := decode[[]api.Review](t, rr); len(reviews) != 1 || reviews[0].ID != review.ID {
		t.Fatalf("expected the new review in the album list, got %#v", reviews)
	}
}

func TestReviewRequiresAuth(t *testing.T) {
	_, h := newTestServer(t)
	rr := serve(t, h, http.MethodPost, "/api/reviews/", "", api.ReviewInput{Album: 1, Rating: 3, ReviewText: "x"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestUpdateReviewOwnerOnly(t *testing.T) {
	s, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token
	curated := s.Catalogue().Reviews(api.ReviewFilter{AlbumID: albumByTitle(t, s, "Mezzanine").ID}, 0)[0]

	rr := serve(t, h, http.MethodPut, fmt.Sprintf("/api/reviews/%d/", curated.ID), token,
		api.ReviewUpdate{Rating: 1, ReviewText: "mine now"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if rr := serve(t, h, http.MethodDelete, fmt.Sprintf("/api/reviews/%d/", curated.ID), token, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d", rr.Code)
	}
}

func TestToggleLikeTwiceRestoresCount(t *testing.T) {
	s, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token
	review := s.Catalogue().Reviews(api.ReviewFilter{AlbumID: albumByTitle(t, s, "Dummy").ID}, 0)[0]
	path := fmt.Sprintf("/api/reviews/%d/", review.ID)

	before := decode[likeStatusResponse](t, serve(t, h, http.MethodGet, path+"like_status/", token, nil))

	first := decode[toggleLikeResponse](t, serve(t, h, http.MethodPost, path+"toggle_like/", token, nil))
	if first.Status != "liked" || first.LikeCount != before.LikeCount+1 {
		t.Fatalf("unexpected first toggle: %#v", first)
	}
	status := decode[likeStatusResponse](t, serve(t, h, http.MethodGet, path+"like_status/", token, nil))
	if !status.IsLiked {
		t.Fatal("expected is_liked after liking")
	}
	anon := decode[likeStatusResponse](t, serve(t, h, http.MethodGet, path+"like_status/", "", nil))
	if anon.IsLiked || anon.LikeCount != first.LikeCount {
		t.Fatalf("unexpected anonymous status: %#v", anon)
	}

	second := decode[toggleLikeResponse](t, serve(t, h, http.MethodPost, path+"toggle_like/", token, nil))
	if second.Status != "unliked" || second.LikeCount != before.LikeCount {
		t.Fatalf("unexpected second toggle: %#v", second)
	}

	rr := serve(t, h, http.MethodPost, "/api/reviews/999999/toggle_like/", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestLikesResource(t *testing.T) {
	s, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token
	review := s.Catalogue().Reviews(api.ReviewFilter{AlbumID: albumByTitle(t, s, "Drunk").ID}, 0)[0]

	rr := serve(t, h, http.MethodPost, "/api/likes/", token, api.LikeInput{Review: review.ID})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	like := decode[api.Like](t, rr)

	rr = serve(t, h, http.MethodPost, "/api/likes/", token, api.LikeInput{Review: review.ID})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate like, got %d", rr.Code)
	}

	likes := decode[[]api.Like](t, serve(t, h, http.MethodGet, fmt.Sprintf("/api/likes/?review_id=%d", review.ID), "", nil))
	if len(likes) != 1 || likes[0].Username != DemoUsername {
		t.Fatalf("unexpected likes: %#v", likes)
	}

	if rr := serve(t, h, http.MethodDelete, fmt.Sprintf("/api/likes/%d/", like.ID), token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestUsersMe(t *testing.T) {
	_, h := newTestServer(t)
	token := login(t, h, DemoUsername, DemoPassword).Token

	me := decode[api.User](t, serve(t, h, http.MethodGet, "/api/users/me/", token, nil))
	if me.Username != DemoUsername {
		t.Fatalf("unexpected me: %#v", me)
	}

	rr := serve(t, h, http.MethodPatch, "/api/users/me/", token, api.ProfileUpdate{Username: "curator"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken username, got %d", rr.Code)
	}

	rr = serve(t, h, http.MethodPost, "/api/users/change-password/", token, api.PasswordChange{OldPassword: "nope", NewPassword: "longer-pass"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %d", rr.Code)
	}
	rr = serve(t, h, http.MethodPost, "/api/users/change-password/", token, api.PasswordChange{OldPassword: DemoPassword, NewPassword: "longer-pass"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	login(t, h, DemoUsername, "longer-pass")

	if rr := serve(t, h, http.MethodGet, "/api/users/me/", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous me, got %d", rr.Code)
	}
}

func TestCSRFEnforcedOnceCookieIssued(t *testing.T) {
	_, h := newTestServer(t)

	rr := serve(t, h, http.MethodGet, "/api/albums/", "", nil)
	var csrf *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			csrf = c
		}
	}
	if csrf == nil || csrf.Value == "" {
		t.Fatal("expected csrftoken cookie to be issued")
	}

	post := func(header string) int {
		body := strings.NewReader(`{"username":"demo","password":"demo123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/login/", body)
		req.AddCookie(csrf)
		if header != "" {
			req.Header.Set(CSRFHeaderName, header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(""); code != http.StatusForbidden {
		t.Fatalf("expected 403 without header, got %d", code)
	}
	if code := post("wrong"); code != http.StatusForbidden {
		t.Fatalf("expected 403 with mismatched header, got %d", code)
	}
	if code := post(csrf.Value); code != http.StatusOK {
		t.Fatalf("expected 200 with matching header, got %d", code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/reviews/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rr = serve(t, h, http.MethodGet, "/health", "", nil)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestMetricsExposed(t *testing.T) {
	_, h := newTestServer(t)
	serve(t, h, http.MethodGet, "/api/albums/", "", nil)

	rr := serve(t, h, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `albumreviews_http_requests_total{method="GET",route="/api/albums/",status="200"}`) {
		t.Fatalf("expected request counter in metrics output:\n%s", rr.Body)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	_, h := newTestServer(t)
	rr := serve(t, h, http.MethodGet, "/api/nothing/", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decode[detailResponse](t, rr).Detail; got != "Not found." {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestNewRejectsShortSecret(t *testing.T) {
	if _, err := New(Config{JWTSecret: "short"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for short secret")
	}
}
