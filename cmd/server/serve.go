// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/router"
	"github.com/javajoker/jingjai-backend/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	uploadsDir      = "uploads"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := i18n.InitializeWithDefault(cfg.I18n.DefaultLocale); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Seed.OnStart {
		if err := seed(ctx, cfg, db, true); err != nil {
			return err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	storage, err := services.NewStorageService(cfg.AWS, uploadsDir, localBaseURL(cfg.Server))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	server := router.Initialize(router.Dependencies{
		DB:       db,
		Config:   cfg,
		Gateway:  paymentGateway(cfg.Payment),
		Identity: services.NewGoogleIdentityProvider(cfg.Google),
		Storage:  storage,
	})

	go server.RateLimiters.Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      server.Engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	// Let in-flight payment emails finish before the process exits.
	server.PaymentService.Wait()

	logrus.Info("Server exited")
	return nil
}

func paymentGateway(cfg config.PaymentConfig) services.PaymentGateway {
	if cfg.StripeSecretKey == "" {
		logrus.Warn("STRIPE_SECRET_KEY not set, using the simulated payment gateway")
		return services.NewSimulatedGateway()
	}
	return services.NewStripeGateway(cfg.StripeSecretKey)
}

func localBaseURL(cfg config.ServerConfig) string {
	return fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port)
}
