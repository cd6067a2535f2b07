// Command albumreviews browses and reviews albums from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog/log"

	"albumreviews/internal/app"
	"albumreviews/internal/config"
	"albumreviews/internal/gateway"
	"albumreviews/internal/logging"
	"albumreviews/internal/nav"
	"albumreviews/internal/views"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app.App, args []string) error
}

var commands = map[string]command{
	"home":    {"home", runHome},
	"login":   {"login -username NAME [-password PW]", runLogin},
	"signup":  {"signup -username NAME [-password PW] [-email EMAIL]", runSignup},
	"logout":  {"logout", runLogout},
	"whoami":  {"whoami", runWhoami},
	"albums":  {"albums [-genre G] [-artist ID] [-ordering F] [-search TERM]", runAlbums},
	"album":   {"album ID", runAlbum},
	"artists": {"artists", runArtists},
	"artist":  {"artist ID", runArtist},
	"review":  {"review -album ID -rating 1-5 -text TEXT", runReview},
	"like":    {"like REVIEW_ID", runLike},
	"genres":  {"genres", runGenres},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: albumreviews <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start client")
	}

	runErr := cmd.run(ctx, a, os.Args[2:])
	if err := a.Close(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session")
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, views.Describe(runErr))
		expired := errors.Is(runErr, gateway.ErrUnauthorized) || errors.Is(runErr, views.ErrLoginRequired)
		if expired && a.History.Current() == nav.Login {
			fmt.Fprintln(os.Stderr, "Run `albumreviews login` to sign in again.")
		}
		os.Exit(1)
	}
}
