package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"linguameet/internal/config"
	"linguameet/internal/handler"
	"linguameet/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	coinsHandler *handler.CoinsHandler,
	auditHandler *handler.AuditHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/coins", func(coins chi.Router) {
			coins.With(authMiddleware.RequireAuth).Get("/balance", coinsHandler.Balance)
			coins.With(authMiddleware.RequireAuth).Post("/transfer", coinsHandler.Transfer)
			coins.With(middleware.RequireInternalKey(cfg.InternalAPIKey)).Post("/credit", coinsHandler.Credit)
		})

		api.With(middleware.RequireInternalKey(cfg.InternalAPIKey)).Get("/audit", auditHandler.List)
	})

	return r
}
