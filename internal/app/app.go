package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linguameet/internal/cache"
	"linguameet/internal/config"
	"linguameet/internal/database"
	"linguameet/internal/event"
	"linguameet/internal/handler"
	"linguameet/internal/middleware"
	"linguameet/internal/repository"
	"linguameet/internal/router"
	"linguameet/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	coinsRepo := repository.NewCoinsRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	balanceCache := cache.New(context.Background(), cfg.RedisAddr, cfg.BalanceCacheTTL)

	bus := event.NewBus()

	tokenService := service.NewTokenService(
		cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
		cfg.JWTAccessTTL, cfg.JWTRefreshTTL,
		tokenRepo,
	)
	authService := service.NewAuthService(userRepo, tokenService, bus)
	coinsService := service.NewCoinsService(coinsRepo, balanceCache, bus)
	auditService := service.NewAuditService(auditRepo, bus)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)
	authHandler := handler.NewAuthHandler(authService, cfg.CookieSecure, cfg.JWTRefreshTTL)
	coinsHandler := handler.NewCoinsHandler(coinsService)
	auditHandler := handler.NewAuditHandler(auditService)

	appRouter := router.New(cfg, authMiddleware, authHandler, coinsHandler, auditHandler)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	go auditService.Run(bgCtx)
	go cleanExpiredTokens(bgCtx, tokenRepo)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			bgCancel,
			balanceCache.Close,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}

// cleanExpiredTokens periodically removes refresh tokens past their
// expiry so the table does not grow without bound.
func cleanExpiredTokens(ctx context.Context, tokens *repository.TokenRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			removed, err := tokens.CleanExpired(cleanCtx)
			cancel()
			if err != nil {
				slog.Error("refresh token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}
