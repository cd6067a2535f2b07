package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"albumreviews/internal/api"
	"albumreviews/internal/app"
	"albumreviews/internal/nav"
	"albumreviews/internal/render"
	"albumreviews/internal/views"
)

var errUsage = errors.New("invalid arguments")

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// promptPassword reads one line from stdin when no password flag was given.
func promptPassword(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func idArg(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected a single %s id", errUsage, what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid %s id", errUsage, args[0], what)
	}
	return id, nil
}

// formError prefers the message the form already shows.
func formError(message string, err error) error {
	if message == "" {
		return err
	}
	return errors.New(message)
}

// runHome prints whatever sections loaded; it fails only when all of them did.
func runHome(ctx context.Context, a *app.App, _ []string) error {
	page := views.NewHomePage(a.Views)
	defer page.Close()

	loadErr := page.Load(ctx)
	featured, albumsErr := page.Featured()
	recent, reviewsErr := page.RecentReviews()
	if albumsErr != nil && reviewsErr != nil {
		return loadErr
	}
	if err := render.Home(os.Stdout, page.Stats(), featured, recent); err != nil {
		return err
	}
	if loadErr != nil {
		fmt.Fprintln(os.Stderr, views.Describe(loadErr))
	}
	return nil
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "password, prompted when empty")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	pw, err := promptPassword(*password)
	if err != nil {
		return err
	}

	form := views.NewLoginForm(a.Views)
	if err := form.Submit(ctx, *username, pw); err != nil {
		return formError(form.Message(), err)
	}
	fmt.Println(form.Success())
	return nil
}

func runSignup(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("signup")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "password, prompted when empty")
	email := fs.String("email", "", "optional email address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	pw, err := promptPassword(*password)
	if err != nil {
		return err
	}

	form := views.NewSignupForm(a.Views)
	creds := api.Credentials{Username: *username, Password: pw, Email: *email}
	if err := form.Submit(ctx, creds); err != nil {
		return formError(form.Message(), err)
	}
	fmt.Println(form.Success())
	return nil
}

func runLogout(ctx context.Context, a *app.App, _ []string) error {
	navbar := views.NewNavbar(a.Views)
	defer navbar.Close()
	if !navbar.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := navbar.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(ctx context.Context, a *app.App, _ []string) error {
	if !a.Sessions.IsAuthenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	me, err := a.API.Users.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (id %d)\n", me.Username, me.ID)
	if joined := render.Date(me.DateJoined); joined != "" {
		fmt.Printf("Member since %s\n", joined)
	}
	return nil
}

func runAlbums(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("albums")
	genre := fs.String("genre", "", "only albums whose genre contains G")
	artist := fs.Int64("artist", 0, "only albums by this artist id")
	ordering := fs.String("ordering", views.DefaultOrdering, "title, release_year or created_at, '-' for descending")
	search := fs.String("search", "", "match title, artist or genre")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	page := views.NewAlbumsPage(a.Views)
	page.SetGenre(*genre)
	page.SetArtist(*artist)
	page.SetOrdering(*ordering)
	page.SetSearch(*search)
	if err := page.Load(ctx); err != nil {
		if _, albumsErr := page.Albums(); albumsErr != nil {
			return albumsErr
		}
		zl := a.Log.Zerolog()
		zl.Warn().Err(err).Msg("artist filter unavailable")
	}

	albums, _ := page.Albums()
	return render.Albums(os.Stdout, albums)
}

func runAlbum(ctx context.Context, a *app.App, args []string) error {
	id, err := idArg(args, "album")
	if err != nil {
		return err
	}

	detail := views.NewAlbumDetail(id, a.Views)
	defer detail.Close()
	_ = detail.Load(ctx)

	album, err := detail.Album()
	if err != nil {
		return err
	}
	reviews, reviewsErr := detail.Reviews()
	if reviewsErr != nil {
		zl := a.Log.Zerolog()
		zl.Warn().Err(reviewsErr).Int64("album_id", id).Msg("reviews unavailable")
	}
	return render.Album(os.Stdout, album, detail.Summary(), reviews)
}

func runArtists(ctx context.Context, a *app.App, _ []string) error {
	page := views.NewArtistsPage(a.Views)
	if err := page.Load(ctx); err != nil {
		return err
	}
	artists, _ := page.Artists()
	return render.Artists(os.Stdout, artists)
}

func runArtist(ctx context.Context, a *app.App, args []string) error {
	id, err := idArg(args, "artist")
	if err != nil {
		return err
	}

	detail := views.NewArtistDetail(id, a.Views)
	defer detail.Close()
	if err := detail.Load(ctx); err != nil {
		return err
	}
	artist, err := detail.Artist()
	if err != nil {
		return err
	}
	albums, _ := detail.Albums()
	return render.Artist(os.Stdout, artist, albums)
}

func runReview(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("review")
	albumID := fs.Int64("album", 0, "album id")
	rating := fs.Int("rating", 5, "rating from 1 to 5")
	text := fs.String("text", "", "review text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *albumID <= 0 {
		return fmt.Errorf("%w: -album is required", errUsage)
	}

	form := views.NewReviewForm(*albumID, a.Views, nil)
	form.SetRating(*rating)
	form.SetText(*text)
	review, err := form.Submit(ctx)
	if err != nil {
		return formError(form.Message(), err)
	}
	fmt.Printf("Review #%d posted: %s\n", review.ID, render.Stars(review.Rating))
	return nil
}

func runLike(ctx context.Context, a *app.App, args []string) error {
	id, err := idArg(args, "review")
	if err != nil {
		return err
	}
	if !a.Sessions.IsAuthenticated() {
		a.History.Navigate(nav.Login)
		return views.ErrLoginRequired
	}
	review, err := a.API.Reviews.Get(ctx, id)
	if err != nil {
		return err
	}

	card := views.NewReviewCard(review, a.Views, nil)
	state, err := card.Like(ctx)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if state.Liked {
		verb = "Liked"
	}
	fmt.Printf("%s review #%d (%d likes)\n", verb, id, state.Count)
	return nil
}

func runGenres(_ context.Context, _ *app.App, _ []string) error {
	for _, g := range views.Genres {
		fmt.Println(g)
	}
	return nil
}
