package views

import (
	"context"
	"sync"

	"albumreviews/internal/api"
)

// LikePhase is where a review card is in the like protocol.
type LikePhase int

const (
	LikeIdle LikePhase = iota
	LikeLiking
	LikeSettled
	LikeFailed
)

func (p LikePhase) String() string {
	switch p {
	case LikeIdle:
		return "idle"
	case LikeLiking:
		return "liking"
	case LikeSettled:
		return "settled"
	case LikeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReviewCard shows one review and runs its like toggle. Counts only ever
// change to what the server reports.
type ReviewCard struct {
	deps   Deps
	onLike func(ctx context.Context) error

	mu      sync.Mutex
	review  api.Review
	phase   LikePhase
	count   int
	liked   bool
	lastErr error
}

// NewReviewCard starts from the counts embedded in review. onLike, when set,
// runs after every settled like; the album card uses it to refetch its list.
func NewReviewCard(review api.Review, deps Deps, onLike func(ctx context.Context) error) *ReviewCard {
	return &ReviewCard{
		deps:   deps,
		onLike: onLike,
		review: review,
		count:  review.LikeCount,
		liked:  review.UserLiked,
	}
}

func (c *ReviewCard) Review() api.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.review
}

// Likes returns the displayed like count and whether the user liked the review.
func (c *ReviewCard) Likes() (count int, liked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, c.liked
}

func (c *ReviewCard) Phase() LikePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the error of the last failed like.
func (c *ReviewCard) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LoadStatus refreshes the counts from the like-status endpoint. On failure
// the displayed counts stay as they were.
func (c *ReviewCard) LoadStatus(ctx context.Context) error {
	id := c.Review().ID
	state, err := c.deps.Reviews.LikeStatus(ctx, id)
	if err != nil {
		c.deps.Log.Warn().Err(err).Int64("review_id", id).Msg("like status unavailable")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != LikeLiking {
		c.count, c.liked = state.Count, state.Liked
	}
	return nil
}

// Like toggles the user's like. Anonymous users are sent to login without a
// call, and a like already in flight is not repeated.
func (c *ReviewCard) Like(ctx context.Context) (api.LikeState, error) {
	if err := c.deps.requireSession(); err != nil {
		return api.LikeState{}, err
	}

	c.mu.Lock()
	if c.phase == LikeLiking {
		c.mu.Unlock()
		return api.LikeState{}, ErrLikeInFlight
	}
	c.phase = LikeLiking
	id := c.review.ID
	c.mu.Unlock()

	state, err := c.deps.Reviews.ToggleLike(ctx, id)

	c.mu.Lock()
	if err != nil {
		c.phase = LikeFailed
		c.lastErr = err
		c.mu.Unlock()
		c.deps.Log.Error().Err(err).Int64("review_id", id).Msg("like failed")
		return api.LikeState{}, err
	}
	c.phase = LikeSettled
	c.lastErr = nil
	c.count, c.liked = state.Count, state.Liked
	c.mu.Unlock()

	if c.onLike != nil {
		if err := c.onLike(ctx); err != nil {
			c.deps.Log.Warn().Err(err).Int64("review_id", id).Msg("refresh after like failed")
		}
	}
	return state, nil
}

// refresh adopts newer review data from a refetched list unless a like is
// in flight.
func (c *ReviewCard) refresh(review api.Review) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == LikeLiking {
		return
	}
	c.review = review
	c.count, c.liked = review.LikeCount, review.UserLiked
}
