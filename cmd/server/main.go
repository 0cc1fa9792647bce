package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"forum-server/internal/config"
	transport "forum-server/internal/http"
	"forum-server/internal/http/middleware"
	"forum-server/internal/mailer"
	"forum-server/internal/payments"
	"forum-server/internal/policy"
	"forum-server/internal/services"
	"forum-server/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(cfg.DocumentPath)
	if err != nil {
		logger.Error("failed to open document store", "path", cfg.DocumentPath, "error", err)
		os.Exit(1)
	}

	sessions := policy.NewMemoryStore()
	mail := mailer.New(cfg.SMTP, logger)
	provider := payments.NewLocalProvider(logger)

	authService := services.NewAuthService(st, sessions, mail, cfg, logger)
	userService := services.NewUserService(st)
	inviteService := services.NewInviteService(st, logger)
	forumService := services.NewForumService(st)
	ticketService := services.NewTicketService(st)
	storeService := services.NewStoreService(st, provider)
	adminService := services.NewAdminService(st, logger)

	router := transport.NewRouter(transport.Dependencies{
		Config:        cfg,
		AuthService:   authService,
		UserService:   userService,
		InviteService: inviteService,
		ForumService:  forumService,
		TicketService: ticketService,
		StoreService:  storeService,
		AdminService:  adminService,
		Logger:        logger,
		RateLimiter:   middleware.NewRateLimiter(cfg.RateLimitPerMinute),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrors:
		logger.Error("http server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("http server stopped")
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env != "prod" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
