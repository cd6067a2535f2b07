package views

import (
	"context"
	"sync"

	"albumreviews/internal/api"
)

// ReviewList caches one album's reviews. Mutations elsewhere call Invalidate
// to make the cache authoritative again.
type ReviewList struct {
	albumID int64
	deps    Deps

	mu         sync.Mutex
	generation uint64
	reviews    []api.Review
	cards      map[int64]*ReviewCard
	err        error
	loaded     bool
	fetches    int
}

func NewReviewList(albumID int64, deps Deps) *ReviewList {
	return &ReviewList{
		albumID: albumID,
		deps:    deps,
		cards:   make(map[int64]*ReviewCard),
	}
}

// Fetch loads the reviews. A failed fetch keeps the previous reviews. When
// fetches overlap only the most recently started one is applied; an older
// response arriving later is dropped.
func (l *ReviewList) Fetch(ctx context.Context) error {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	reviews, err := l.deps.Reviews.ListByAlbum(ctx, l.albumID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches++
	if gen != l.generation {
		l.deps.Log.Debug().Int64("album_id", l.albumID).Msg("dropping superseded review fetch")
		return err
	}
	if err != nil {
		l.err = err
		l.deps.Log.Error().Err(err).Int64("album_id", l.albumID).Msg("fetch reviews failed")
		return err
	}

	l.err = nil
	l.loaded = true
	l.reviews = reviews

	seen := make(map[int64]bool, len(reviews))
	for _, r := range reviews {
		seen[r.ID] = true
		if card, ok := l.cards[r.ID]; ok {
			card.refresh(r)
		}
	}
	for id := range l.cards {
		if !seen[id] {
			delete(l.cards, id)
		}
	}
	return nil
}

// Invalidate drops the cached view of the reviews and refetches them.
func (l *ReviewList) Invalidate(ctx context.Context) error {
	return l.Fetch(ctx)
}

func (l *ReviewList) Reviews() []api.Review {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]api.Review, len(l.reviews))
	copy(out, l.reviews)
	return out
}

// Err returns the error of the last fetch, nil once a fetch succeeds.
func (l *ReviewList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *ReviewList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Fetches counts completed fetch attempts.
func (l *ReviewList) Fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}

func (l *ReviewList) Summary() RatingSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summarize(l.reviews)
}

// Card returns the card for a listed review, creating it on first use. Cards
// refetch the list after each settled like.
func (l *ReviewList) Card(reviewID int64) (*ReviewCard, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if card, ok := l.cards[reviewID]; ok {
		return card, true
	}
	for _, r := range l.reviews {
		if r.ID == reviewID {
			card := NewReviewCard(r, l.deps, l.Invalidate)
			l.cards[reviewID] = card
			return card, true
		}
	}
	return nil, false
}
