// Package render formats albums, artists and reviews for the terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"albumreviews/internal/api"
	"albumreviews/internal/views"
)

const dateLayout = "Jan 2, 2006"

// Stars draws a 1..5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = max(0, min(5, rating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// Date formats t as "Jan 2, 2006", empty for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

// AlbumRating summarizes the aggregate the backend sent with an album.
func AlbumRating(a api.Album) views.RatingSummary {
	if a.ReviewCount == 0 || a.AverageRating == nil {
		return views.RatingSummary{}
	}
	return views.RatingSummary{
		Count:   a.ReviewCount,
		Average: math.Round(*a.AverageRating*10) / 10,
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Albums writes one row per album.
func Albums(w io.Writer, albums []api.Album) error {
	if len(albums) == 0 {
		_, err := fmt.Fprintln(w, "No albums found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tYEAR\tGENRE\tRATING\tREVIEWS")
	for _, a := range albums {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%d\n",
			a.ID, a.Title, a.ArtistName, a.ReleaseYear, a.Genre, AlbumRating(a), a.ReviewCount)
	}
	return tw.Flush()
}

func Artists(w io.Writer, artists []api.Artist) error {
	if len(artists) == 0 {
		_, err := fmt.Fprintln(w, "No artists found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tGENRE")
	for _, a := range artists {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Name, a.Genre)
	}
	return tw.Flush()
}

// Reviews writes each review as a header line followed by its text.
func Reviews(w io.Writer, reviews []api.Review) error {
	if len(reviews) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet. Be the first to review this album!")
		return err
	}
	for _, r := range reviews {
		liked := ""
		if r.UserLiked {
			liked = ", liked by you"
		}
		if _, err := fmt.Fprintf(w, "#%d %s by %s on %s (%s%s)\n    %s\n",
			r.ID, Stars(r.Rating), r.Username, Date(r.CreatedAt), likes(r.LikeCount), liked, r.ReviewText); err != nil {
			return err
		}
	}
	return nil
}

func likes(n int) string {
	if n == 1 {
		return "1 like"
	}
	return fmt.Sprintf("%d likes", n)
}

// Album writes the album header, its average and the reviews.
func Album(w io.Writer, a api.Album, summary views.RatingSummary, reviews []api.Review) error {
	fmt.Fprintf(w, "%s\n%s (%d) · %s\n", a.Title, a.ArtistName, a.ReleaseYear, a.Genre)
	if summary.HasRatings() {
		fmt.Fprintf(w, "Average rating: %s/5 from %d review(s)\n\n", summary, summary.Count)
	} else {
		fmt.Fprintf(w, "%s\n\n", views.NoRatings)
	}
	return Reviews(w, reviews)
}

// Artist writes the artist header, bio and discography.
func Artist(w io.Writer, a api.Artist, albums []api.Album) error {
	fmt.Fprintf(w, "%s · %s\n", a.Name, a.Genre)
	if a.Bio != "" {
		fmt.Fprintf(w, "%s\n", a.Bio)
	}
	fmt.Fprintln(w)
	return Albums(w, albums)
}

// Home writes the landing page: catalogue totals, featured albums and the
// newest reviews.
func Home(w io.Writer, stats views.HomeStats, featured []api.Album, recent []api.Review) error {
	fmt.Fprintf(w, "%d albums · %d artists · %d reviews\n\nFeatured Albums\n", stats.Albums, stats.Artists, stats.Reviews)
	if len(featured) == 0 {
		fmt.Fprintln(w, "No albums available yet.")
	} else if err := Albums(w, featured); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nRecent Reviews")
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet. Be the first to review an album!")
		return err
	}
	for _, r := range recent {
		if _, err := fmt.Fprintf(w, "%s %s by %s on %s\n    %s\n",
			Stars(r.Rating), r.AlbumTitle, r.Username, Date(r.CreatedAt), r.ReviewText); err != nil {
			return err
		}
	}
	return nil
}
