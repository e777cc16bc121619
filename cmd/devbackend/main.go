// Command devbackend serves the in-memory atelier backend for local development
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/atelier-portal/devbackend"
	"github.com/jrsteele09/atelier-portal/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable .env")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("devbackend stopped")
	}
}

func run() error {
	addr := config.GetEnv("DEVBACKEND_ADDR", ":3002")
	adminEmail := config.GetEnv("DEVBACKEND_ADMIN_EMAIL", "admin@atelier.local")

	b := devbackend.New(
		devbackend.WithAdminSecret(config.GetEnv("DEVBACKEND_ADMIN_SECRET", "atelier-admin")),
		devbackend.WithTokenTTL(config.GetEnvDuration("DEVBACKEND_TOKEN_TTL", time.Hour)),
	)
	password, err := b.SeedAdmin(adminEmail, os.Getenv("DEVBACKEND_ADMIN_PASSWORD"))
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	b.SeedParts(devbackend.DefaultCatalogue()...)

	log.Info().Str("email", adminEmail).Str("password", password).Msg("Admin seller ready (tipo vendedor)")

	srv := &http.Server{Addr: addr, Handler: b, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("devbackend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("devbackend ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
