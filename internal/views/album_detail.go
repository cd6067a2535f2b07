package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"albumreviews/internal/api"
	"albumreviews/internal/nav"
)

// AlbumDetail is the album page. The album and its reviews load
// concurrently into separate slots, so either can render without the other.
type AlbumDetail struct {
	albumID int64
	deps    Deps

	mu         sync.Mutex
	generation uint64
	closed     bool
	album      *api.Album
	albumErr   error
	reviews    []api.Review
	reviewsErr error
	cards      map[int64]*ReviewCard
}

func NewAlbumDetail(albumID int64, deps Deps) *AlbumDetail {
	return &AlbumDetail{
		albumID: albumID,
		deps:    deps,
		cards:   make(map[int64]*ReviewCard),
	}
}

// Load fetches the album and its reviews concurrently. Neither fetch cancels
// the other. Results arriving after Close or after a newer Load are dropped.
// The returned error joins both failures.
func (d *AlbumDetail) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	var g errgroup.Group
	var albumErr, reviewsErr error

	g.Go(func() error {
		album, err := d.deps.Albums.Get(ctx, d.albumID)
		albumErr = err
		d.apply(gen, func() {
			d.albumErr = err
			if err == nil {
				d.album = &album
			}
		})
		return nil
	})
	g.Go(func() error {
		reviews, err := d.deps.Reviews.ListByAlbum(ctx, d.albumID)
		reviewsErr = err
		d.apply(gen, func() {
			d.reviewsErr = err
			if err == nil {
				d.reviews = reviews
				d.cards = make(map[int64]*ReviewCard, len(reviews))
			}
		})
		return nil
	})
	_ = g.Wait()

	var errs []error
	if albumErr != nil {
		errs = append(errs, fmt.Errorf("load album: %w", albumErr))
	}
	if reviewsErr != nil {
		errs = append(errs, fmt.Errorf("load reviews: %w", reviewsErr))
	}
	return errors.Join(errs...)
}

// apply runs update only while gen is still the live load.
func (d *AlbumDetail) apply(gen uint64, update func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.generation {
		return
	}
	update()
}

// Close marks the page as gone. Later results are ignored.
func (d *AlbumDetail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Album returns the loaded album, or the error of its last fetch.
func (d *AlbumDetail) Album() (api.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.album == nil {
		if d.albumErr != nil {
			return api.Album{}, d.albumErr
		}
		return api.Album{}, errors.New("album not loaded")
	}
	return *d.album, d.albumErr
}

// Reviews returns the loaded reviews and the error of their last fetch.
func (d *AlbumDetail) Reviews() ([]api.Review, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]api.Review, len(d.reviews))
	copy(out, d.reviews)
	return out, d.reviewsErr
}

func (d *AlbumDetail) Summary() RatingSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Summarize(d.reviews)
}

// Card returns the like card for a listed review. On this page a like only
// updates the card itself.
func (d *AlbumDetail) Card(reviewID int64) (*ReviewCard, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if card, ok := d.cards[reviewID]; ok {
		return card, true
	}
	for _, r := range d.reviews {
		if r.ID == reviewID {
			card := NewReviewCard(r, d.deps, nil)
			d.cards[reviewID] = card
			return card, true
		}
	}
	return nil, false
}

// WriteReview opens the review page, or the login page for anonymous users.
func (d *AlbumDetail) WriteReview() error {
	if err := d.deps.requireSession(); err != nil {
		return err
	}
	d.deps.navigate(nav.AlbumReview(d.albumID))
	return nil
}
