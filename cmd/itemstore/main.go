package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopstack/itemstore/internal/config"
	"github.com/shopstack/itemstore/internal/database"
	"github.com/shopstack/itemstore/internal/logging"
	"github.com/shopstack/itemstore/internal/observability"
	"github.com/shopstack/itemstore/internal/server"
	"github.com/shopstack/itemstore/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logCfg := logging.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Primary.Env,
	}
	if cfg.Logging.Token != "" {
		logCfg.Remote = &logging.RemoteConfig{
			Endpoint: cfg.Logging.Endpoint,
			Dataset:  cfg.Logging.Dataset,
			Token:    cfg.Logging.Token,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewClient(cfg.Archive)
	if err != nil {
		log.Fatalf("archive store: %v", err)
	}
	var archive io.Writer
	if store != nil {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("archive bucket: %v (uploads may fail)", err)
		}
		archive = logging.NewArchiveSink(store, cfg.Primary.Env)
	}

	logger := logging.New(logCfg, archive)
	defer logger.Close()

	if err := database.RunMigrations(ctx, cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	nrApp, err := observability.NewApp(cfg.Observability)
	if err != nil {
		logger.Fatal().Err(err).Msg("apm agent failed to start")
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger, nrApp)
	if err != nil {
		logger.Fatal().Err(err).Msg("database pool failed")
	}
	defer pool.Close()

	srv := server.New(cfg, logger, pool, store)
	logger.Info().
		Str("port", cfg.Server.Port).
		Bool("remote_logging", logCfg.Remote != nil).
		Bool("archive", store != nil).
		Bool("apm", nrApp != nil).
		Msg("itemstore starting")

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
