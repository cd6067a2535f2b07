package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"albumreviews/internal/api"
)

// DefaultOrdering lists the newest albums first.
const DefaultOrdering = "-created_at"

// Genres offered by the genre filter.
var Genres = []string{
	"Rock", "Pop", "Hip Hop", "R&B", "Country", "Electronic",
	"Jazz", "Classical", "Folk", "Alternative", "Indie", "Metal",
}

// AlbumsPage is the browsable album catalogue with server-side filters and a
// search term.
type AlbumsPage struct {
	deps Deps

	mu         sync.Mutex
	generation uint64
	filter     api.AlbumFilter
	albums     []api.Album
	artists    []api.Artist
	albumsErr  error
	artistsErr error
}

func NewAlbumsPage(deps Deps) *AlbumsPage {
	return &AlbumsPage{
		deps:   deps,
		filter: api.AlbumFilter{Ordering: DefaultOrdering},
	}
}

// Filter returns the active filter, search term included.
func (p *AlbumsPage) Filter() api.AlbumFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func (p *AlbumsPage) SetGenre(genre string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Genre = strings.TrimSpace(genre)
}

func (p *AlbumsPage) SetArtist(artistID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.ArtistID = artistID
}

// SetOrdering sets the sort field; empty restores the default.
func (p *AlbumsPage) SetOrdering(ordering string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ordering = strings.TrimSpace(ordering); ordering == "" {
		ordering = DefaultOrdering
	}
	p.filter.Ordering = ordering
}

func (p *AlbumsPage) SetSearch(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Search = strings.TrimSpace(term)
}

// ClearFilters resets genre, artist, ordering and search.
func (p *AlbumsPage) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = api.AlbumFilter{Ordering: DefaultOrdering}
}

// Load fetches the albums for the current filter and the artist list used
// by the artist filter, concurrently.
func (p *AlbumsPage) Load(ctx context.Context) error {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	filter := p.filter
	p.mu.Unlock()

	var g errgroup.Group
	var albumsErr, artistsErr error

	g.Go(func() error {
		albums, err := p.deps.Albums.List(ctx, filter)
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
		artists, err := p.deps.Artists.List(ctx)
		artistsErr = err
		p.apply(gen, func() {
			p.artistsErr = err
			if err == nil {
				p.artists = artists
			}
		})
		return nil
	})
	_ = g.Wait()

	if albumsErr != nil {
		p.deps.Log.Error().Err(albumsErr).Msg("fetch albums failed")
	}
	if artistsErr != nil {
		p.deps.Log.Error().Err(artistsErr).Msg("fetch artists failed")
	}

	var errs []error
	if albumsErr != nil {
		errs = append(errs, fmt.Errorf("load albums: %w", albumsErr))
	}
	if artistsErr != nil {
		errs = append(errs, fmt.Errorf("load artists: %w", artistsErr))
	}
	return errors.Join(errs...)
}

// Retry repeats the last load with the same filter.
func (p *AlbumsPage) Retry(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *AlbumsPage) apply(gen uint64, update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	update()
}

// Albums returns the loaded albums and the error of their last fetch.
func (p *AlbumsPage) Albums() ([]api.Album, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Album, len(p.albums))
	copy(out, p.albums)
	return out, p.albumsErr
}

// Artists returns the loaded artists and the error of their last fetch.
func (p *AlbumsPage) Artists() ([]api.Artist, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Artist, len(p.artists))
	copy(out, p.artists)
	return out, p.artistsErr
}

// Cards builds an AlbumCard for every loaded album.
func (p *AlbumsPage) Cards() []*AlbumCard {
	albums, _ := p.Albums()
	cards := make([]*AlbumCard, 0, len(albums))
	for _, a := range albums {
		cards = append(cards, NewAlbumCard(a, p.deps))
	}
	return cards
}

// FilterAlbums keeps albums whose title, artist name or genre contains term,
// ignoring case. An empty term keeps everything.
func FilterAlbums(albums []api.Album, term string) []api.Album {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return albums
	}

	out := make([]api.Album, 0, len(albums))
	for _, a := range albums {
		if strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.ArtistName), term) ||
			strings.Contains(strings.ToLower(a.Genre), term) {
			out = append(out, a)
		}
	}
	return out
}
