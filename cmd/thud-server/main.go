package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaminalder/codex-thud/internal/app"
	"github.com/jaminalder/codex-thud/internal/config"
	"github.com/jaminalder/codex-thud/internal/web"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := cfg.Logger()
	log.Logger = logger

	svc := app.NewService(
		app.WithLogger(logger.With().Str("component", "service").Logger()),
		app.WithMaxGames(cfg.MaxGames),
		app.WithSubscriberBuffer(cfg.SubscriberBuffer),
	)
	handler := web.NewServer(svc,
		web.WithLogger(logger.With().Str("component", "http").Logger()),
		web.WithHeartbeat(time.Duration(cfg.HeartbeatInterval)),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
