package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"albumreviews/internal/api"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrAlreadyReviewed    = errors.New("album already reviewed by user")
	ErrAlreadyLiked       = errors.New("review already liked by user")
	ErrWrongPassword      = errors.New("wrong password")
)

// dummyPasswordHash keeps unknown-user logins as slow as wrong-password ones.
var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

type account struct {
	user         api.User
	passwordHash []byte
}

type albumRecord struct {
	api.AlbumInput
	id        int64
	createdAt time.Time
	updatedAt time.Time
}

type reviewRecord struct {
	id        int64
	user      int64
	album     int64
	rating    int
	text      string
	createdAt time.Time
	updatedAt time.Time
}

// Catalogue is the in-memory data behind the backend. All methods are safe
// for concurrent use.
type Catalogue struct {
	mu   sync.RWMutex
	cost int
	now  func() time.Time
	seq  int64

	accounts map[int64]*account
	artists  map[int64]*api.Artist
	albums   map[int64]*albumRecord
	reviews  map[int64]*reviewRecord
	likes    map[int64]*api.Like
}

// NewCatalogue returns an empty catalogue hashing passwords at cost.
func NewCatalogue(cost int) *Catalogue {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Catalogue{
		cost:     cost,
		now:      time.Now,
		accounts: make(map[int64]*account),
		artists:  make(map[int64]*api.Artist),
		albums:   make(map[int64]*albumRecord),
		reviews:  make(map[int64]*reviewRecord),
		likes:    make(map[int64]*api.Like),
	}
}

func (c *Catalogue) nextID() int64 {
	c.seq++
	return c.seq
}

// CreateUser registers a new account.
func (c *Catalogue) CreateUser(username, email, password string) (api.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return api.User{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.usernameTaken(username, 0) {
		return api.User{}, ErrUsernameTaken
	}
	u := api.User{ID: c.nextID(), Username: username, Email: email, DateJoined: c.now().UTC()}
	c.accounts[u.ID] = &account{user: u, passwordHash: hash}
	return u, nil
}

func (c *Catalogue) usernameTaken(username string, except int64) bool {
	for id, a := range c.accounts {
		if id != except && a.user.Username == username {
			return true
		}
	}
	return false
}

// Authenticate checks a username and password pair.
func (c *Catalogue) Authenticate(username, password string) (api.User, error) {
	c.mu.RLock()
	var (
		user api.User
		hash []byte
	)
	for _, a := range c.accounts {
		if a.user.Username == username {
			user, hash = a.user, a.passwordHash
			break
		}
	}
	c.mu.RUnlock()

	if hash == nil {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return api.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return api.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (c *Catalogue) User(id int64) (api.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[id]
	if !ok {
		return api.User{}, ErrNotFound
	}
	return a.user, nil
}

// Users lists accounts whose username or email contains search.
func (c *Catalogue) Users(search string) []api.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.User, 0, len(c.accounts))
	for _, a := range c.accounts {
		if search == "" || containsFold(a.user.Username, search) || containsFold(a.user.Email, search) {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateUser applies the non-empty fields of in.
func (c *Catalogue) UpdateUser(id int64, in api.ProfileUpdate) (api.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accounts[id]
	if !ok {
		return api.User{}, ErrNotFound
	}
	if in.Username != "" {
		if c.usernameTaken(in.Username, id) {
			return api.User{}, ErrUsernameTaken
		}
		a.user.Username = in.Username
	}
	if in.Email != "" {
		a.user.Email = in.Email
	}
	return a.user, nil
}

func (c *Catalogue) ChangePassword(id int64, oldPassword, newPassword string) error {
	c.mu.RLock()
	a, ok := c.accounts[id]
	var current []byte
	if ok {
		current = a.passwordHash
	}
	c.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(current, []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), c.cost)
	if err != nil {
		return err
	}
	c.mu.Lock()
	a.passwordHash = hash
	c.mu.Unlock()
	return nil
}

// Artists lists artists by name, narrowed by a name or genre search.
func (c *Catalogue) Artists(search string) []api.Artist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Artist, 0, len(c.artists))
	for _, a := range c.artists {
		if search == "" || containsFold(a.Name, search) || containsFold(a.Genre, search) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalogue) Artist(id int64) (api.Artist, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.artists[id]
	if !ok {
		return api.Artist{}, ErrNotFound
	}
	return *a, nil
}

func (c *Catalogue) CreateArtist(in api.ArtistInput) api.Artist {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UTC()
	a := &api.Artist{
		ID:        c.nextID(),
		Name:      in.Name,
		Genre:     in.Genre,
		Bio:       in.Bio,
		Image:     in.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.artists[a.ID] = a
	return *a
}

func (c *Catalogue) UpdateArtist(id int64, in api.ArtistInput) (api.Artist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.artists[id]
	if !ok {
		return api.Artist{}, ErrNotFound
	}
	a.Name, a.Genre, a.Bio, a.Image = in.Name, in.Genre, in.Bio, in.Image
	a.UpdatedAt = c.now().UTC()
	return *a, nil
}

// DeleteArtist removes the artist and, in cascade, its albums.
func (c *Catalogue) DeleteArtist(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.artists[id]; !ok {
		return ErrNotFound
	}
	delete(c.artists, id)
	for albumID, al := range c.albums {
		if al.Artist == id {
			c.deleteAlbumLocked(albumID)
		}
	}
	return nil
}

// Albums lists albums matching f. Unknown orderings fall back to newest first.
func (c *Catalogue) Albums(f api.AlbumFilter) []api.Album {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Album, 0, len(c.albums))
	for _, rec := range c.albums {
		al := c.albumLocked(rec)
		if f.Genre != "" && !containsFold(al.Genre, f.Genre) {
			continue
		}
		if f.ArtistID != 0 && al.Artist != f.ArtistID {
			continue
		}
		if f.Search != "" && !containsFold(al.Title, f.Search) &&
			!containsFold(al.ArtistName, f.Search) && !containsFold(al.Genre, f.Search) {
			continue
		}
		out = append(out, al)
	}
	sortAlbums(out, f.Ordering)
	return out
}

func (c *Catalogue) Album(id int64) (api.Album, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.albums[id]
	if !ok {
		return api.Album{}, ErrNotFound
	}
	return c.albumLocked(rec), nil
}

func (c *Catalogue) CreateAlbum(in api.AlbumInput) (api.Album, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.artists[in.Artist]; !ok {
		return api.Album{}, ErrNotFound
	}
	now := c.now().UTC()
	rec := &albumRecord{AlbumInput: in, id: c.nextID(), createdAt: now, updatedAt: now}
	c.albums[rec.id] = rec
	return c.albumLocked(rec), nil
}

func (c *Catalogue) UpdateAlbum(id int64, in api.AlbumInput) (api.Album, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.albums[id]
	if !ok {
		return api.Album{}, ErrNotFound
	}
	if _, ok := c.artists[in.Artist]; !ok {
		return api.Album{}, ErrNotFound
	}
	rec.AlbumInput = in
	rec.updatedAt = c.now().UTC()
	return c.albumLocked(rec), nil
}

func (c *Catalogue) DeleteAlbum(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.albums[id]; !ok {
		return ErrNotFound
	}
	c.deleteAlbumLocked(id)
	return nil
}

func (c *Catalogue) deleteAlbumLocked(id int64) {
	delete(c.albums, id)
	for reviewID, r := range c.reviews {
		if r.album == id {
			c.deleteReviewLocked(reviewID)
		}
	}
}

// albumLocked renders a record with its artist and review aggregates. An
// album without reviews reports an average of 0.
func (c *Catalogue) albumLocked(rec *albumRecord) api.Album {
	al := api.Album{
		ID:          rec.id,
		Artist:      rec.Artist,
		Title:       rec.Title,
		ReleaseYear: rec.ReleaseYear,
		CoverImage:  rec.CoverImage,
		Genre:       rec.Genre,
		CreatedAt:   rec.createdAt,
		UpdatedAt:   rec.updatedAt,
	}
	if artist, ok := c.artists[rec.Artist]; ok {
		al.ArtistName = artist.Name
		al.ArtistBio = artist.Bio
	}
	sum := 0
	for _, r := range c.reviews {
		if r.album == rec.id {
			sum += r.rating
			al.ReviewCount++
		}
	}
	avg := 0.0
	if al.ReviewCount > 0 {
		avg = float64(sum) / float64(al.ReviewCount)
	}
	al.AverageRating = &avg
	return al
}

// Reviews lists reviews matching f as seen by viewer (0 when anonymous).
func (c *Catalogue) Reviews(f api.ReviewFilter, viewer int64) []api.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Review, 0)
	for _, r := range c.reviews {
		if f.AlbumID != 0 && r.album != f.AlbumID {
			continue
		}
		if f.UserID != 0 && r.user != f.UserID {
			continue
		}
		out = append(out, c.reviewLocked(r, viewer))
	}
	sortReviews(out, f.Ordering)
	return out
}

func (c *Catalogue) Review(id, viewer int64) (api.Review, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reviews[id]
	if !ok {
		return api.Review{}, ErrNotFound
	}
	return c.reviewLocked(r, viewer), nil
}

// CreateReview stores a review. A user reviews an album at most once.
func (c *Catalogue) CreateReview(userID int64, in api.ReviewInput) (api.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.albums[in.Album]; !ok {
		return api.Review{}, ErrNotFound
	}
	for _, r := range c.reviews {
		if r.user == userID && r.album == in.Album {
			return api.Review{}, ErrAlreadyReviewed
		}
	}
	now := c.now().UTC()
	r := &reviewRecord{
		id:        c.nextID(),
		user:      userID,
		album:     in.Album,
		rating:    in.Rating,
		text:      in.ReviewText,
		createdAt: now,
		updatedAt: now,
	}
	c.reviews[r.id] = r
	return c.reviewLocked(r, userID), nil
}

// UpdateReview edits a review owned by userID.
func (c *Catalogue) UpdateReview(userID, id int64, in api.ReviewUpdate) (api.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reviews[id]
	if !ok {
		return api.Review{}, ErrNotFound
	}
	if r.user != userID {
		return api.Review{}, ErrForbidden
	}
	if in.Album != 0 && in.Album != r.album {
		if _, ok := c.albums[in.Album]; !ok {
			return api.Review{}, ErrNotFound
		}
		r.album = in.Album
	}
	r.rating = in.Rating
	r.text = in.ReviewText
	r.updatedAt = c.now().UTC()
	return c.reviewLocked(r, userID), nil
}

func (c *Catalogue) DeleteReview(userID, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reviews[id]
	if !ok {
		return ErrNotFound
	}
	if r.user != userID {
		return ErrForbidden
	}
	c.deleteReviewLocked(id)
	return nil
}

func (c *Catalogue) deleteReviewLocked(id int64) {
	delete(c.reviews, id)
	for likeID, l := range c.likes {
		if l.Review == id {
			delete(c.likes, likeID)
		}
	}
}

func (c *Catalogue) reviewLocked(r *reviewRecord, viewer int64) api.Review {
	out := api.Review{
		ID:         r.id,
		User:       r.user,
		Album:      r.album,
		Rating:     r.rating,
		ReviewText: r.text,
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
	if a, ok := c.accounts[r.user]; ok {
		out.Username = a.user.Username
	}
	if al, ok := c.albums[r.album]; ok {
		out.AlbumTitle = al.Title
	}
	out.LikeCount, out.UserLiked = c.likeStateLocked(r.id, viewer)
	return out
}

func (c *Catalogue) likeStateLocked(reviewID, viewer int64) (count int, liked bool) {
	for _, l := range c.likes {
		if l.Review != reviewID {
			continue
		}
		count++
		if viewer != 0 && l.User == viewer {
			liked = true
		}
	}
	return count, liked
}

// ToggleLike adds userID's like to the review, or removes it when present.
func (c *Catalogue) ToggleLike(userID, reviewID int64) (liked bool, count int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.reviews[reviewID]; !ok {
		return false, 0, ErrNotFound
	}
	if id, ok := c.findLikeLocked(userID, reviewID); ok {
		delete(c.likes, id)
	} else {
		c.addLikeLocked(userID, reviewID)
		liked = true
	}
	count, _ = c.likeStateLocked(reviewID, userID)
	return liked, count, nil
}

// LikeStatus reports the like count and whether viewer likes the review.
func (c *Catalogue) LikeStatus(viewer, reviewID int64) (liked bool, count int, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.reviews[reviewID]; !ok {
		return false, 0, ErrNotFound
	}
	count, liked = c.likeStateLocked(reviewID, viewer)
	return liked, count, nil
}

func (c *Catalogue) findLikeLocked(userID, reviewID int64) (int64, bool) {
	for id, l := range c.likes {
		if l.User == userID && l.Review == reviewID {
			return id, true
		}
	}
	return 0, false
}

func (c *Catalogue) addLikeLocked(userID, reviewID int64) api.Like {
	l := &api.Like{ID: c.nextID(), User: userID, Review: reviewID, CreatedAt: c.now().UTC()}
	if a, ok := c.accounts[userID]; ok {
		l.Username = a.user.Username
	}
	c.likes[l.ID] = l
	return *l
}

func (c *Catalogue) Likes(f api.LikeFilter) []api.Like {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.Like, 0)
	for _, l := range c.likes {
		if f.ReviewID != 0 && l.Review != f.ReviewID {
			continue
		}
		if f.UserID != 0 && l.User != f.UserID {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalogue) CreateLike(userID, reviewID int64) (api.Like, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.reviews[reviewID]; !ok {
		return api.Like{}, ErrNotFound
	}
	if _, ok := c.findLikeLocked(userID, reviewID); ok {
		return api.Like{}, ErrAlreadyLiked
	}
	return c.addLikeLocked(userID, reviewID), nil
}

func (c *Catalogue) DeleteLike(userID, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.likes[id]
	if !ok {
		return ErrNotFound
	}
	if l.User != userID {
		return ErrForbidden
	}
	delete(c.likes, id)
	return nil
}

func sortAlbums(albums []api.Album, ordering string) {
	field, desc := parseOrdering(ordering)
	var less func(a, b api.Album) bool
	switch field {
	case "title":
		less = func(a, b api.Album) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "release_year":
		less = func(a, b api.Album) bool { return a.ReleaseYear < b.ReleaseYear }
	case "created_at":
		less = func(a, b api.Album) bool { return a.ID < b.ID }
	case "average_rating":
		less = func(a, b api.Album) bool {
			ra, rb := averageOf(a), averageOf(b)
			if ra != rb {
				return ra < rb
			}
			return a.ID < b.ID
		}
	default:
		less, desc = func(a, b api.Album) bool { return a.ID < b.ID }, true
	}
	sort.SliceStable(albums, func(i, j int) bool {
		if desc {
			return less(albums[j], albums[i])
		}
		return less(albums[i], albums[j])
	})
}

func averageOf(a api.Album) float64 {
	if a.AverageRating == nil {
		return 0
	}
	return *a.AverageRating
}

func sortReviews(reviews []api.Review, ordering string) {
	field, desc := parseOrdering(ordering)
	var less func(a, b api.Review) bool
	switch field {
	case "rating":
		less = func(a, b api.Review) bool { return a.Rating < b.Rating }
	case "created_at":
		less = func(a, b api.Review) bool { return a.ID < b.ID }
	default:
		less = func(a, b api.Review) bool { return a.ID < b.ID }
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		if desc {
			return less(reviews[j], reviews[i])
		}
		return less(reviews[i], reviews[j])
	})
}

func parseOrdering(ordering string) (field string, desc bool) {
	ordering = strings.TrimSpace(ordering)
	if strings.HasPrefix(ordering, "-") {
		return ordering[1:], true
	}
	return ordering, false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
