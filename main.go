// main.go
//
// Entry point for the Tetris server.
// Loads configuration, opens and migrates the database, bootstraps the
// admin account when configured, and serves HTTP until interrupted.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/config"
	"github.com/its-lightning/tetris/internal/database"
	"github.com/its-lightning/tetris/internal/httpserver"
	"github.com/its-lightning/tetris/internal/store"
)

func main() {
	cfg := config.Load()
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenAndMigrate(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DatabaseURL).Msg("open database")
	}
	defer db.Close()

	srv := httpserver.New(cfg, db, store.NewMemoryStore())
	defer srv.Close()

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if u, err := srv.Users().EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Error().Err(err).Str("username", cfg.AdminUsername).Msg("bootstrap admin")
		} else {
			log.Info().Str("username", u.Username).Msg("admin account ready")
		}
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting tetris server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
}
