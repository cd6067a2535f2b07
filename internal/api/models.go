package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Album is a catalogue entry with its aggregated review stats.
type Album struct {
	ID            int64     `json:"id"`
	Artist        int64     `json:"artist"`
	ArtistName    string    `json:"artist_name"`
	ArtistBio     string    `json:"artist_bio,omitempty"`
	Title         string    `json:"title"`
	ReleaseYear   int       `json:"release_year"`
	CoverImage    string    `json:"cover_image,omitempty"`
	Genre         string    `json:"genre"`
	AverageRating *float64  `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Artist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre"`
	Bio       string    `json:"bio"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review is one user's rating and text for an album.
type Review struct {
	ID         int64     `json:"id"`
	User       int64     `json:"user"`
	Username   string    `json:"username"`
	Album      int64     `json:"album"`
	AlbumTitle string    `json:"album_title"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	LikeCount  int       `json:"like_count"`
	UserLiked  bool      `json:"user_liked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UnmarshalJSON also accepts the album reference as "album_id".
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	aux := struct {
		*plain
		AlbumID *int64 `json:"album_id"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.Album == 0 && aux.AlbumID != nil {
		r.Album = *aux.AlbumID
	}
	return nil
}

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	DateJoined time.Time `json:"date_joined"`
}

type Like struct {
	ID        int64     `json:"id"`
	User      int64     `json:"user"`
	Username  string    `json:"username"`
	Review    int64     `json:"review"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is the reply to login and registration.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
	Message  string `json:"message,omitempty"`
}

// TokenStatus is the reply to token verification.
type TokenStatus struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

// Credentials sign a user in or up. Email is only sent on registration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type AlbumInput struct {
	Artist      int64  `json:"artist"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
	Genre       string `json:"genre"`
	CoverImage  string `json:"cover_image,omitempty"`
}

type ArtistInput struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
	Bio   string `json:"bio"`
	Image string `json:"image,omitempty"`
}

// ReviewInput creates a review.
type ReviewInput struct {
	Album      int64  `json:"album"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// ReviewUpdate edits an existing review.
type ReviewUpdate struct {
	Album      int64  `json:"album"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type LikeInput struct {
	Review int64 `json:"review"`
}

// AlbumFilter narrows the album list. Zero fields are left out of the query.
type AlbumFilter struct {
	Genre    string
	ArtistID int64
	Ordering string
	Search   string
}

// Values renders the filter as query parameters, dropping empty fields.
func (f AlbumFilter) Values() url.Values {
	v := url.Values{}
	setString(v, "genre", f.Genre)
	setID(v, "artist_id", f.ArtistID)
	setString(v, "ordering", f.Ordering)
	setString(v, "search", f.Search)
	return v
}

type ReviewFilter struct {
	AlbumID  int64
	UserID   int64
	Ordering string
}

func (f ReviewFilter) Values() url.Values {
	v := url.Values{}
	setID(v, "album_id", f.AlbumID)
	setID(v, "user_id", f.UserID)
	setString(v, "ordering", f.Ordering)
	return v
}

type LikeFilter struct {
	ReviewID int64
	UserID   int64
}

func (f LikeFilter) Values() url.Values {
	v := url.Values{}
	setID(v, "review_id", f.ReviewID)
	setID(v, "user_id", f.UserID)
	return v
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setID(v url.Values, key string, id int64) {
	if id > 0 {
		v.Set(key, strconv.FormatInt(id, 10))
	}
}
