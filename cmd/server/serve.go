package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prayershare/backend/internal/database"
	"github.com/prayershare/backend/internal/handlers"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/internal/session"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	var (
		revoker  middleware.RevocationChecker
		sessions handlers.TokenRevoker
	)
	if cfg.Redis.Enabled {
		store, err := session.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer store.Close()
		revoker, sessions = store, store
	} else {
		logger.Warn("session_store_disabled", map[string]interface{}{
			"reason": "REDIS_ENABLED=false, logout will not revoke tokens",
		})
	}

	accessService := services.NewAccessService(db)
	visibilityService := services.NewVisibilityService(db, accessService)
	auditService := services.NewAuditService(db, cfg.Audit.QueueSize)
	defer auditService.Close()

	h := handlers.Handlers{
		Auth:       handlers.NewAuthHandler(services.NewUserService(db), sessions, auditService),
		Groups:     handlers.NewGroupsHandler(services.NewGroupService(db), visibilityService, auditService),
		Requests:   handlers.NewRequestsHandler(services.NewRequestService(db, accessService), visibilityService, auditService),
		Activities: handlers.NewActivitiesHandler(db),
	}
	authMiddleware := middleware.NewAuthMiddleware(db, revoker)

	app := fiber.New(fiber.Config{BodyLimit: 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	handlers.RegisterRoutes(app, h, authMiddleware)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":      cfg.Server.Port,
		"address":   listenAddr,
		"db_driver": cfg.DB.Driver,
		"redis":     cfg.Redis.Enabled,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("server_shutting_down", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server_shutdown_failed", err, nil)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
