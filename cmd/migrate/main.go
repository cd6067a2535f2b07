// Command migrate applies or reverts the local_storage schema of a SQL
// session store (a sqlite:// or postgres:// SESSION_STORE).
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"albumreviews/internal/config"
	"albumreviews/internal/logging"
	"albumreviews/internal/store"
)

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal().Msg("Usage: migrate [up|down]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	dbURL := cfg.Session.StoreURL
	if os.Args[1] == "up" {
		if err := store.MigrateUp(dbURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	} else {
		if err := store.MigrateDown(dbURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
	}

	version, dirty, err := store.MigrationVersion(dbURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read schema version")
		return
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Str("direction", os.Args[1]).Msg("Migrations complete")
}
