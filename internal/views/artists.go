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

// ArtistsPage lists every artist.
type ArtistsPage struct {
	deps Deps

	mu      sync.Mutex
	artists []api.Artist
	err     error
}

func NewArtistsPage(deps Deps) *ArtistsPage {
	return &ArtistsPage{deps: deps}
}

func (p *ArtistsPage) Load(ctx context.Context) error {
	artists, err := p.deps.Artists.List(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	if err != nil {
		p.deps.Log.Error().Err(err).Msg("fetch artists failed")
		return err
	}
	p.artists = artists
	return nil
}

// Retry repeats Load.
func (p *ArtistsPage) Retry(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *ArtistsPage) Artists() ([]api.Artist, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Artist, len(p.artists))
	copy(out, p.artists)
	return out, p.err
}

// Open navigates to an artist's page.
func (p *ArtistsPage) Open(artistID int64) {
	p.deps.navigate(nav.Artist(artistID))
}

// ArtistDetail shows an artist and their albums, fetched concurrently.
type ArtistDetail struct {
	artistID int64
	deps     Deps

	mu         sync.Mutex
	generation uint64
	closed     bool
	artist     *api.Artist
	artistErr  error
	albums     []api.Album
	albumsErr  error
}

func NewArtistDetail(artistID int64, deps Deps) *ArtistDetail {
	return &ArtistDetail{artistID: artistID, deps: deps}
}

func (d *ArtistDetail) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	var g errgroup.Group
	var artistErr, albumsErr error

	g.Go(func() error {
		artist, err := d.deps.Artists.Get(ctx, d.artistID)
		artistErr = err
		d.apply(gen, func() {
			d.artistErr = err
			if err == nil {
				d.artist = &artist
			}
		})
		return nil
	})
	g.Go(func() error {
		albums, err := d.deps.Artists.Albums(ctx, d.artistID)
		albumsErr = err
		d.apply(gen, func() {
			d.albumsErr = err
			if err == nil {
				d.albums = albums
			}
		})
		return nil
	})
	_ = g.Wait()

	var errs []error
	if artistErr != nil {
		errs = append(errs, fmt.Errorf("load artist: %w", artistErr))
	}
	if albumsErr != nil {
		errs = append(errs, fmt.Errorf("load artist albums: %w", albumsErr))
	}
	return errors.Join(errs...)
}

func (d *ArtistDetail) apply(gen uint64, update func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.generation {
		return
	}
	update()
}

func (d *ArtistDetail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *ArtistDetail) Artist() (api.Artist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.artist == nil {
		if d.artistErr != nil {
			return api.Artist{}, d.artistErr
		}
		return api.Artist{}, errors.New("artist not loaded")
	}
	return *d.artist, d.artistErr
}

func (d *ArtistDetail) Albums() ([]api.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]api.Album, len(d.albums))
	copy(out, d.albums)
	return out, d.albumsErr
}
