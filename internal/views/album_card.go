package views

import (
	"context"
	"fmt"
	"sync"

	"albumreviews/internal/api"
)

const bioSnippetLen = 100

// AlbumCard is an album tile with its reviews, like buttons and an inline
// review form.
type AlbumCard struct {
	Album   api.Album
	Reviews *ReviewList
	deps    Deps

	mu       sync.Mutex
	formOpen bool
	form     *ReviewForm
}

func NewAlbumCard(album api.Album, deps Deps) *AlbumCard {
	return &AlbumCard{
		Album:   album,
		Reviews: NewReviewList(album.ID, deps),
		deps:    deps,
	}
}

// Load fetches the card's reviews.
func (c *AlbumCard) Load(ctx context.Context) error {
	return c.Reviews.Fetch(ctx)
}

// Summary averages the reviews fetched for this card.
func (c *AlbumCard) Summary() RatingSummary {
	return c.Reviews.Summary()
}

// BioSnippet returns the first 100 characters of the artist bio, with "..."
// appended and readMore set when the bio is longer.
func (c *AlbumCard) BioSnippet() (snippet string, readMore bool) {
	bio := []rune(c.Album.ArtistBio)
	if len(bio) <= bioSnippetLen {
		return string(bio), false
	}
	return string(bio[:bioSnippetLen]) + "...", true
}

// Like toggles a like on one of the card's reviews and refetches the list
// once the server confirms.
func (c *AlbumCard) Like(ctx context.Context, reviewID int64) (api.LikeState, error) {
	card, ok := c.Reviews.Card(reviewID)
	if !ok {
		return api.LikeState{}, fmt.Errorf("review %d is not listed on album %d", reviewID, c.Album.ID)
	}
	return card.Like(ctx)
}

// ToggleReviewForm opens or closes the inline review form and reports
// whether it is now open.
func (c *AlbumCard) ToggleReviewForm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formOpen = !c.formOpen
	if c.formOpen && c.form == nil {
		c.form = NewReviewForm(c.Album.ID, c.deps, c.reviewAdded)
	}
	return c.formOpen
}

// Form returns the inline review form, nil while it is closed.
func (c *AlbumCard) Form() *ReviewForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.formOpen {
		return nil
	}
	return c.form
}

func (c *AlbumCard) reviewAdded(ctx context.Context) error {
	c.mu.Lock()
	c.formOpen = false
	c.mu.Unlock()
	return c.Reviews.Invalidate(ctx)
}
