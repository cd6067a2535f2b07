package views

import (
	"math"
	"strconv"

	"albumreviews/internal/api"
)

// NoRatings is shown instead of an average when an album has no reviews.
const NoRatings = "No ratings"

// RatingSummary is the average of the reviews fetched at render time. It is
// never persisted.
type RatingSummary struct {
	Count   int
	Average float64
}

// Summarize averages review ratings, rounded to one decimal.
func Summarize(reviews []api.Review) RatingSummary {
	if len(reviews) == 0 {
		return RatingSummary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	mean := float64(total) / float64(len(reviews))
	return RatingSummary{
		Count:   len(reviews),
		Average: math.Round(mean*10) / 10,
	}
}

func (s RatingSummary) HasRatings() bool { return s.Count > 0 }

// String renders the average as "4.5", or NoRatings.
func (s RatingSummary) String() string {
	if !s.HasRatings() {
		return NoRatings
	}
	return strconv.FormatFloat(s.Average, 'f', 1, 64)
}
