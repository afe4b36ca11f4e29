// Command api serves the publications REST API.
//
// @title Datahub API
// @version 1.0
// @description Field-notes publications with image uploads and favorites.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/terrain-ouvert/datahub/docs"
	"github.com/terrain-ouvert/datahub/internal/api/handlers"
	"github.com/terrain-ouvert/datahub/internal/api/middleware"
	"github.com/terrain-ouvert/datahub/internal/api/router"
	"github.com/terrain-ouvert/datahub/internal/config"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/query"
	"github.com/terrain-ouvert/datahub/internal/repository/sqlstore"
	"github.com/terrain-ouvert/datahub/internal/services"
	"github.com/terrain-ouvert/datahub/internal/storage"
	"github.com/terrain-ouvert/datahub/internal/upload"
	"github.com/terrain-ouvert/datahub/internal/worker"
	"github.com/terrain-ouvert/datahub/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "datahub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlstore.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	schema, err := migrations.For(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := sqlstore.RunMigrations(db, schema)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// Repositories
	pubRepo := sqlstore.NewPublicationRepository(db)
	userRepo := sqlstore.NewUserRepository(db)
	favRepo := sqlstore.NewFavoriteRepository(db)

	// Services
	validate := services.NewValidator()
	userService := services.NewUserService(userRepo, log)
	pubService := services.NewPublicationService(pubRepo, userRepo, validate, log)
	favService := services.NewFavoriteService(favRepo, pubRepo, log)
	uploader := upload.New(store, upload.ConfigFrom(cfg.Upload), log)

	listOptions := publication.QueryOptions
	listOptions.PageSize = cfg.Query.PageSize
	listOptions.MaxPageSize = cfg.Query.MaxPageSize
	favOptions := listOptions
	favOptions.PageSize = cfg.Query.FavoritesPageSize
	if favOptions.PageSize <= 0 {
		favOptions.PageSize = query.FavoritesPageSize
	}

	h := &router.Handlers{
		Health: handlers.NewHealthHandler(db, store.Name(), log),
		Publication: handlers.NewPublicationHandler(pubService, uploader, handlers.PublicationConfig{
			BatchTag:    cfg.Upload.BatchTag,
			MaxFiles:    cfg.Upload.MaxFiles,
			MaxFileSize: cfg.Upload.MaxFileSize,
			ListOptions: listOptions,
		}, log),
		Favorite: handlers.NewFavoriteHandler(favService, favOptions, log),
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimit)
	go limiter.Run(ctx, 5*time.Minute)

	if cfg.Worker.FavoritesSweepEnabled {
		sweeper := worker.NewFavoritesSweeper(favService, cfg.Worker.FavoritesSweepSpec, log)
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h, router.Deps{Users: userService, RateLimiter: limiter}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":    srv.Addr,
			"env":     cfg.Server.Environment,
			"storage": store.Name(),
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
