package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/NemoKam/VSrapInformer/internal/application/auth"
	"github.com/NemoKam/VSrapInformer/internal/application/catalog"
	"github.com/NemoKam/VSrapInformer/internal/application/notifier"
	"github.com/NemoKam/VSrapInformer/internal/application/tracking"
	"github.com/NemoKam/VSrapInformer/internal/application/user"
	"github.com/NemoKam/VSrapInformer/internal/config"
	jwtinfra "github.com/NemoKam/VSrapInformer/internal/infrastructure/jwt"
	"github.com/NemoKam/VSrapInformer/internal/infrastructure/postgres"
	"github.com/NemoKam/VSrapInformer/internal/transport/http/handler"
	appmiddleware "github.com/NemoKam/VSrapInformer/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo        *postgres.UserRepo
	CodeRepo        *postgres.CodeRepo
	SessionRepo     *postgres.SessionRepo
	CollectionRepo  *postgres.CollectionRepo
	ProductRepo     *postgres.ProductRepo
	CombinationRepo *postgres.CombinationRepo
	Notifier        *notifier.Service
	JWTProvider     *jwtinfra.Provider
	Logger          *slog.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:          deps.UserRepo,
		CodeRepo:          deps.CodeRepo,
		Notifier:          deps.Notifier,
		CodeLength:        cfg.CodeLength,
		CodeTTL:           cfg.CodeTTL,
		UnverifiedUserTTL: cfg.UnverifiedUserTTL,
		ProjectTitle:      cfg.ProjectTitle,
		Logger:            deps.Logger,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	catalogSvc := catalog.NewService(deps.CollectionRepo, deps.ProductRepo, deps.CombinationRepo)
	trackingSvc := tracking.NewService(deps.CombinationRepo, deps.ProductRepo)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	sessionH := handler.NewSessionHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	trackingH := handler.NewTrackingHandler(trackingSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/users/verify", userH.Verify)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		r.Get("/collections", catalogH.ListCollections)
		r.Get("/products", catalogH.ListProducts)
		r.Get("/combinations/{id}", catalogH.GetCombination)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/tracking", trackingH.List)
			r.Get("/tracking/products", trackingH.ListProducts)
			r.Post("/tracking/{id}", trackingH.Track)
			r.Delete("/tracking/{id}", trackingH.Untrack)
		})
	})

	return r
}
