// Command mockapi serves the album review API from memory for local
// development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"albumreviews/internal/config"
	"albumreviews/internal/logging"
	"albumreviews/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.SetGlobalLogger(logger)

	backend, err := mockapi.New(mockapi.Config{
		JWTSecret:     cfg.MockAPI.JWTSecret,
		AllowedOrigin: cfg.MockAPI.AllowedOrigin,
		Seed:          cfg.MockAPI.Seed,
	}, logger.Component("mockapi"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise backend")
	}

	server := &http.Server{
		Addr:              cfg.MockAPI.Addr,
		Handler:           backend.Handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.MockAPI.Addr).
			Bool("seeded", cfg.MockAPI.Seed).
			Msg("Mock API starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
