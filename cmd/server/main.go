package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"iris-api/internal/config"
	"iris-api/internal/handlers"
	"iris-api/internal/model"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogger(cfg.Log.Level)

	log.Info().Str("path", cfg.Model.Path).Msg("loading model")
	classifier, err := model.NewServer(cfg.Model.Path, cfg.Model.MetadataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model server")
	}
	defer classifier.Close()
	log.Info().Strs("classes", classifier.Metadata.Classes).Msg("model loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Model.WatchArtifact {
		watcher, err := model.NewWatcher(cfg.Model.Path, classifier.Reload, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to watch model artifact")
		}
		go watcher.Run(ctx)
	}

	handler := handlers.NewHandler(classifier, log.Logger)

	mux := http.NewServeMux()
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handlers.RegisterRoutes(mux, handler, log.Logger),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		log.Info().Msg("endpoints: GET / | GET /health | POST /predict")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func setupLogger(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
