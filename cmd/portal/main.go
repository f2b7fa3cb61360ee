package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/campusdesk/student-portal/internal/api/http"
	"github.com/campusdesk/student-portal/internal/api/http/handlers"
	"github.com/campusdesk/student-portal/internal/auth"
	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/events"
	"github.com/campusdesk/student-portal/internal/observability"
	"github.com/campusdesk/student-portal/internal/profileapi"
	"github.com/campusdesk/student-portal/internal/service"
	"github.com/campusdesk/student-portal/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	sessions, err := session.Open(*cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session backend", zap.Error(err))
	}
	defer sessions.Close() //nolint:errcheck

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	profiles := service.NewProfileService(cfg.Profile, service.ProfileDependencies{
		API:        profileapi.NewClient(cfg.ProfileAPI),
		Store:      sessions,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, sessions, metrics),
		Profile:        handlers.NewProfileHandler(profiles, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, cfg.Auth.CookieName),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("profile_api", cfg.ProfileAPI.BaseURL),
			zap.String("session_backend", cfg.Session.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
