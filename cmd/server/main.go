package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/yokyay/classhub/internal/adapters/http"
	"github.com/yokyay/classhub/internal/adapters/signal"
	"github.com/yokyay/classhub/internal/app"
	"github.com/yokyay/classhub/internal/config"
	"github.com/yokyay/classhub/internal/core"
)

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	// Wire the coordinator with the socket hub and its collaborators.
	hub := signal.NewHub()
	files := app.NewFileStore()
	coord := core.NewCoordinator(hub, files)
	creds := app.NewCredentialChecker(cfg.Teacher.Username, cfg.Teacher.Password)
	tokens := app.NewMediaTokenIssuer(cfg.Media.URL, cfg.Media.APIKey, cfg.Media.APISecret)
	metrics := app.NewMetrics(coord, hub)

	handlers := router.NewHandlers(coord, files, creds, tokens, cfg)
	ws := signal.NewController(hub, coord, cfg)

	r := router.SetupRouter(ctx, cfg, handlers, ws, metrics)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Classhub server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
