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

const (
	FeaturedOrdering     = "-average_rating"
	RecentReviewOrdering = "-created_at"
	featuredLimit        = 6
	recentReviewLimit    = 5
)

// HomeStats are the catalogue totals on the landing page.
type HomeStats struct {
	Albums  int
	Artists int
	Reviews int
}

// HomePage is the landing page: top-rated albums, the newest reviews and
// catalogue totals. The three lists load concurrently and each keeps its own
// error, so one failing section leaves the others intact.
type HomePage struct {
	deps Deps

	mu         sync.Mutex
	generation uint64
	closed     bool
	albums     []api.Album
	albumsErr  error
	reviews    []api.Review
	reviewsErr error
	artists    int
	artistsErr error
}

func NewHomePage(deps Deps) *HomePage {
	return &HomePage{deps: deps}
}

// Load fetches albums by rating, reviews by date and the artist list.
func (p *HomePage) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	var g errgroup.Group
	var albumsErr, reviewsErr, artistsErr error

	g.Go(func() error {
		albums, err := p.deps.Albums.List(ctx, api.AlbumFilter{Ordering: FeaturedOrdering})
		albumsErr = err
		p.apply(gen, func() {
			p.albumsErr = err
			if err == nil {
				p.albums = albums
			}
		})
		return nil
	})
	g.Go(func() error {
		reviews, err := p.deps.Reviews.List(ctx, api.ReviewFilter{Ordering: RecentReviewOrdering})
		reviewsErr = err
		p.apply(gen, func() {
			p.reviewsErr = err
			if err == nil {
				p.reviews = reviews
			}
		})
		return nil
	})
	g.Go(func() error {
		artists, err := p.deps.Artists.List(ctx)
		artistsErr = err
		p.apply(gen, func() {
			p.artistsErr = err
			if err == nil {
				p.artists = len(artists)
			}
		})
		return nil
	})
	_ = g.Wait()

	var errs []error
	if albumsErr != nil {
		errs = append(errs, fmt.Errorf("load featured albums: %w", albumsErr))
	}
	if reviewsErr != nil {
		errs = append(errs, fmt.Errorf("load recent reviews: %w", reviewsErr))
	}
	if artistsErr != nil {
		errs = append(errs, fmt.Errorf("load artists: %w", artistsErr))
	}
	if err := errors.Join(errs...); err != nil {
		p.deps.Log.Error().Err(err).Msg("home page partially loaded")
		return err
	}
	return nil
}

func (p *HomePage) apply(gen uint64, update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return
	}
	update()
}

// Retry repeats Load.
func (p *HomePage) Retry(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *HomePage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Featured returns the six best-rated albums.
func (p *HomePage) Featured() ([]api.Album, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := min(len(p.albums), featuredLimit)
	out := make([]api.Album, n)
	copy(out, p.albums[:n])
	return out, p.albumsErr
}

// RecentReviews returns the five newest reviews.
func (p *HomePage) RecentReviews() ([]api.Review, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := min(len(p.reviews), recentReviewLimit)
	out := make([]api.Review, n)
	copy(out, p.reviews[:n])
	return out, p.reviewsErr
}

// Stats counts everything loaded, not just what is featured.
func (p *HomePage) Stats() HomeStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return HomeStats{
		Albums:  len(p.albums),
		Artists: p.artists,
		Reviews: len(p.reviews),
	}
}

// BrowseAlbums and ExploreArtists are the page's two calls to action.
func (p *HomePage) BrowseAlbums()   { p.deps.navigate(nav.Albums) }
func (p *HomePage) ExploreArtists() { p.deps.navigate(nav.Artists) }
