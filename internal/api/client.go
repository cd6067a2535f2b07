// Package api groups the backend's REST resources into typed clients. Each
// method maps to exactly one HTTP verb and path.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"albumreviews/internal/gateway"
)

// ErrInvalidID is returned without a request when a required id is not positive.
var ErrInvalidID = errors.New("invalid id")

// Doer sends one JSON request. *gateway.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Client bundles every resource group over one gateway.
type Client struct {
	Auth    *AuthService
	Albums  *AlbumService
	Artists *ArtistService
	Reviews *ReviewService
	Users   *UserService
	Likes   *LikeService
}

// New builds the resource clients on top of d.
func New(d Doer) *Client {
	return &Client{
		Auth:    &AuthService{d: d},
		Albums:  &AlbumService{d: d},
		Artists: &ArtistService{d: d},
		Reviews: &ReviewService{d: d},
		Users:   &UserService{d: d},
		Likes:   &LikeService{d: d},
	}
}

func albumPath(id int64) string  { return fmt.Sprintf("/albums/%d/", id) }
func artistPath(id int64) string { return fmt.Sprintf("/artists/%d/", id) }
func reviewPath(id int64) string { return fmt.Sprintf("/reviews/%d/", id) }
func userPath(id int64) string   { return fmt.Sprintf("/users/%d/", id) }
func likePath(id int64) string   { return fmt.Sprintf("/likes/%d/", id) }

// AuthService covers sign-in, sign-up and sign-out.
type AuthService struct{ d Doer }

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	var out AuthResult
	err := s.d.Do(ctx, http.MethodPost, "/login/", nil, Credentials{Username: username, Password: password}, &out)
	return out, err
}

// Register creates an account and returns its first token.
func (s *AuthService) Register(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	err := s.d.Do(ctx, http.MethodPost, "/register/", nil, creds, &out)
	return out, err
}

// Logout invalidates the token on the server.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.d.Do(ctx, http.MethodPost, "/logout/", nil, nil, nil)
}

func (s *AuthService) VerifyToken(ctx context.Context) (TokenStatus, error) {
	var out TokenStatus
	err := s.d.Do(ctx, http.MethodPost, "/verify-token/", nil, nil, &out)
	return out, err
}

type AlbumService struct{ d Doer }

// List returns albums matching f.
func (s *AlbumService) List(ctx context.Context, f AlbumFilter) ([]Album, error) {
	var out []Album
	err := s.d.Do(ctx, http.MethodGet, "/albums/", f.Values(), nil, &out)
	return out, err
}

func (s *AlbumService) Get(ctx context.Context, id int64) (Album, error) {
	var out Album
	err := s.d.Do(ctx, http.MethodGet, albumPath(id), nil, nil, &out)
	return out, err
}

func (s *AlbumService) Create(ctx context.Context, in AlbumInput) (Album, error) {
	var out Album
	err := s.d.Do(ctx, http.MethodPost, "/albums/", nil, in, &out)
	return out, err
}

func (s *AlbumService) Update(ctx context.Context, id int64, in AlbumInput) (Album, error) {
	var out Album
	err := s.d.Do(ctx, http.MethodPut, albumPath(id), nil, in, &out)
	return out, err
}

func (s *AlbumService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, albumPath(id), nil, nil, nil)
}

// Reviews lists an album's reviews through the album resource.
func (s *AlbumService) Reviews(ctx context.Context, id int64) ([]Review, error) {
	var out []Review
	err := s.d.Do(ctx, http.MethodGet, albumPath(id)+"reviews/", nil, nil, &out)
	return out, err
}

type ArtistService struct{ d Doer }

func (s *ArtistService) List(ctx context.Context) ([]Artist, error) {
	var out []Artist
	err := s.d.Do(ctx, http.MethodGet, "/artists/", nil, nil, &out)
	return out, err
}

func (s *ArtistService) Get(ctx context.Context, id int64) (Artist, error) {
	var out Artist
	err := s.d.Do(ctx, http.MethodGet, artistPath(id), nil, nil, &out)
	return out, err
}

// Albums lists the albums credited to an artist.
func (s *ArtistService) Albums(ctx context.Context, id int64) ([]Album, error) {
	var out []Album
	err := s.d.Do(ctx, http.MethodGet, artistPath(id)+"albums/", nil, nil, &out)
	return out, err
}

func (s *ArtistService) Create(ctx context.Context, in ArtistInput) (Artist, error) {
	var out Artist
	err := s.d.Do(ctx, http.MethodPost, "/artists/", nil, in, &out)
	return out, err
}

func (s *ArtistService) Update(ctx context.Context, id int64, in ArtistInput) (Artist, error) {
	var out Artist
	err := s.d.Do(ctx, http.MethodPut, artistPath(id), nil, in, &out)
	return out, err
}

func (s *ArtistService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, artistPath(id), nil, nil, nil)
}

// ReviewService covers reviews and the like toggle hanging off them.
type ReviewService struct{ d Doer }

// ListByAlbum returns the reviews of one album. A non-positive id would drop
// the filter and list every review, so it is rejected.
func (s *ReviewService) ListByAlbum(ctx context.Context, albumID int64) ([]Review, error) {
	if albumID <= 0 {
		return nil, fmt.Errorf("%w: album %d", ErrInvalidID, albumID)
	}
	return s.List(ctx, ReviewFilter{AlbumID: albumID})
}

func (s *ReviewService) List(ctx context.Context, f ReviewFilter) ([]Review, error) {
	var out []Review
	err := s.d.Do(ctx, http.MethodGet, "/reviews/", f.Values(), nil, &out)
	return out, err
}

func (s *ReviewService) Get(ctx context.Context, id int64) (Review, error) {
	var out Review
	err := s.d.Do(ctx, http.MethodGet, reviewPath(id), nil, nil, &out)
	return out, err
}

// Create submits a review. The backend rejects a second review of the same album.
func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (Review, error) {
	var out Review
	err := s.d.Do(ctx, http.MethodPost, "/reviews/", nil, in, &out)
	return out, err
}

func (s *ReviewService) Update(ctx context.Context, id int64, in ReviewUpdate) (Review, error) {
	var out Review
	err := s.d.Do(ctx, http.MethodPut, reviewPath(id), nil, in, &out)
	return out, err
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, reviewPath(id), nil, nil, nil)
}

// ToggleLike flips the current user's like and returns the resulting state.
func (s *ReviewService) ToggleLike(ctx context.Context, id int64) (LikeState, error) {
	return s.likeCall(ctx, http.MethodPost, reviewPath(id)+"toggle_like/")
}

// LikeStatus reads the like state without changing it.
func (s *ReviewService) LikeStatus(ctx context.Context, id int64) (LikeState, error) {
	return s.likeCall(ctx, http.MethodGet, reviewPath(id)+"like_status/")
}

func (s *ReviewService) likeCall(ctx context.Context, method, path string) (LikeState, error) {
	var raw json.RawMessage
	if err := s.d.Do(ctx, method, path, nil, nil, &raw); err != nil {
		return LikeState{}, err
	}
	state, err := parseLikeState(raw)
	if err != nil {
		return LikeState{}, &gateway.BadDataError{Method: method, Path: path, Err: err}
	}
	return state, nil
}

type UserService struct{ d Doer }

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context) (User, error) {
	var out User
	err := s.d.Do(ctx, http.MethodGet, "/users/me/", nil, nil, &out)
	return out, err
}

func (s *UserService) List(ctx context.Context) ([]User, error) {
	var out []User
	err := s.d.Do(ctx, http.MethodGet, "/users/", nil, nil, &out)
	return out, err
}

func (s *UserService) Get(ctx context.Context, id int64) (User, error) {
	var out User
	err := s.d.Do(ctx, http.MethodGet, userPath(id), nil, nil, &out)
	return out, err
}

func (s *UserService) UpdateProfile(ctx context.Context, in ProfileUpdate) (User, error) {
	var out User
	err := s.d.Do(ctx, http.MethodPatch, "/users/me/", nil, in, &out)
	return out, err
}

func (s *UserService) ChangePassword(ctx context.Context, in PasswordChange) error {
	return s.d.Do(ctx, http.MethodPost, "/users/change-password/", nil, in, nil)
}

// LikeService manages like records directly.
type LikeService struct{ d Doer }

func (s *LikeService) List(ctx context.Context, f LikeFilter) ([]Like, error) {
	var out []Like
	err := s.d.Do(ctx, http.MethodGet, "/likes/", f.Values(), nil, &out)
	return out, err
}

func (s *LikeService) Create(ctx context.Context, reviewID int64) (Like, error) {
	var out Like
	err := s.d.Do(ctx, http.MethodPost, "/likes/", nil, LikeInput{Review: reviewID}, &out)
	return out, err
}

func (s *LikeService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, likePath(id), nil, nil, nil)
}
