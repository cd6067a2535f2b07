package mockapi

import (
	"errors"
	"fmt"

	"albumreviews/internal/api"
)

// Demo credentials created by Seed.
const (
	DemoUsername = "demo"
	DemoPassword = "demo123"
)

type seedAlbum struct {
	Artist string
	Bio    string
	Title  string
	Year   int
	Genre  string
	Rating int // demo curator's rating, 0 for none
	Review string
}

var seedAlbums = []seedAlbum{
	{
		Artist: "Boards of Canada",
		Bio:    "Scottish electronic duo of brothers Michael Sandison and Marcus Eoin, known for warm analogue textures and hazy nostalgia.",
		Title:  "Music Has the Right to Children",
		Year:   1998,
		Genre:  "Electronic",
		Rating: 5,
		Review: "Washed-out synths and half-remembered melodies. Still sounds like nothing else.",
	},
	{
		Artist: "Massive Attack",
		Bio:    "Bristol collective that defined trip hop with dark, bass-heavy productions and a rotating cast of vocalists.",
		Title:  "Mezzanine",
		Year:   1998,
		Genre:  "Trip Hop",
		Rating: 5,
		Review: "Menacing and gorgeous. Teardrop alone earns the fifth star.",
	},
	{
		Artist: "Portishead",
		Bio:    "Bristol trio pairing Beth Gibbons' haunted vocals with Geoff Barrow's cinematic, sample-driven beats.",
		Title:  "Dummy",
		Year:   1994,
		Genre:  "Trip Hop",
		Rating: 4,
		Review: "Smoky spy-film atmosphere from start to finish.",
	},
	{
		Artist: "Radiohead",
		Bio:    "English rock band from Abingdon whose restless experimentation reshaped alternative music across three decades.",
		Title:  "OK Computer",
		Year:   1997,
		Genre:  "Alternative Rock",
		Rating: 5,
		Review: "Anxious, beautiful and somehow more relevant every year.",
	},
	{
		Artist: "Nirvana",
		Bio:    "Seattle band led by Kurt Cobain that carried grunge from the underground to the top of the charts.",
		Title:  "Nevermind",
		Year:   1991,
		Genre:  "Rock",
		Rating: 4,
		Review: "Loud, quiet, loud. The template for a decade.",
	},
	{
		Artist: "Nightmares on Wax",
		Bio:    "Leeds producer George Evelyn's long-running project blending downtempo, soul and dub.",
		Title:  "Carboot Soul",
		Year:   1999,
		Genre:  "Electronic",
	},
	{
		Artist: "Bonobo",
		Bio:    "Simon Green's project of lush, organic electronic music built from live instruments and field recordings.",
		Title:  "Migration",
		Year:   2017,
		Genre:  "Electronic",
		Rating: 4,
		Review: "Meticulous and warm. Best heard on a long train ride.",
	},
	{
		Artist: "Nils Frahm",
		Bio:    "Berlin-based composer and pianist working between modern classical and electronic music.",
		Title:  "Spaces",
		Year:   2013,
		Genre:  "Classical",
	},
	{
		Artist: "Thundercat",
		Bio:    "Los Angeles bassist and singer Stephen Bruner, mixing jazz fusion, funk and a loose sense of humour.",
		Title:  "Drunk",
		Year:   2017,
		Genre:  "Jazz",
		Rating: 3,
		Review: "Virtuosic and silly in equal measure. Too many short tracks.",
	},
}

const curatorUsername = "curator"

// Seed loads the demo catalogue: the demo account, a curator account that
// has reviewed most albums, and the albums with their artists. It is a no-op
// when the demo account already exists.
func Seed(c *Catalogue) error {
	if _, err := c.CreateUser(DemoUsername, "demo@example.com", DemoPassword); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("seed demo user: %w", err)
	}
	curator, err := c.CreateUser(curatorUsername, "curator@example.com", DemoPassword)
	if err != nil {
		return fmt.Errorf("seed curator user: %w", err)
	}

	for _, s := range seedAlbums {
		artist := c.CreateArtist(api.ArtistInput{Name: s.Artist, Genre: s.Genre, Bio: s.Bio})
		album, err := c.CreateAlbum(api.AlbumInput{
			Artist:      artist.ID,
			Title:       s.Title,
			ReleaseYear: s.Year,
			Genre:       s.Genre,
		})
		if err != nil {
			return fmt.Errorf("seed album %q: %w", s.Title, err)
		}
		if s.Rating == 0 {
			continue
		}
		if _, err := c.CreateReview(curator.ID, api.ReviewInput{
			Album:      album.ID,
			Rating:     s.Rating,
			ReviewText: s.Review,
		}); err != nil {
			return fmt.Errorf("seed review of %q: %w", s.Title, err)
		}
	}
	return nil
}
