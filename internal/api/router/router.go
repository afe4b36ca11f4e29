package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/terrain-ouvert/datahub/internal/api/handlers"
	"github.com/terrain-ouvert/datahub/internal/api/middleware"
	"github.com/terrain-ouvert/datahub/internal/config"
	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted by New
type Handlers struct {
	Health      *handlers.HealthHandler
	Publication *handlers.PublicationHandler
	Favorite    *handlers.FavoriteHandler
}

// Deps are the collaborators middleware needs
type Deps struct {
	Users       user.Service
	RateLimiter *middleware.RateLimiter
}

// New builds the application router
func New(cfg *config.Config, log *logger.Logger, h *Handlers, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.FrontendCORS(cfg.Server.FrontendURL))
	if deps.RateLimiter != nil {
		r.Use(middleware.RateLimit(deps.RateLimiter))
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	requireAuth := middleware.Auth(cfg.Auth.JWTSecret, deps.Users)
	onlyOwner := middleware.OnlyOwner("id", h.Publication.OwnerOf)

	r.Route("/api/v1/resources", func(r chi.Router) {
		r.Get("/", h.Publication.List)
		r.Get("/{id}", h.Publication.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/", h.Publication.Create)
			r.Get("/user/{userId}", h.Publication.ListByUser)
			r.Get("/fav", h.Favorite.List)
			r.Get("/fav/{id}", h.Favorite.Toggle)

			r.With(onlyOwner).Patch("/modify/{id}", h.Publication.Modify)
			r.With(onlyOwner).Delete("/delete/{id}", h.Publication.Delete)
		})
	})

	return r
}
