package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tundeafolabi/indicert-backend/api/routes"
	"github.com/tundeafolabi/indicert-backend/internal/applications"
	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	"github.com/tundeafolabi/indicert-backend/internal/locks"
	"github.com/tundeafolabi/indicert-backend/internal/registry"
	"github.com/tundeafolabi/indicert-backend/internal/review"
	"github.com/tundeafolabi/indicert-backend/internal/verification"
	"github.com/tundeafolabi/indicert-backend/pkg/config"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
	"github.com/tundeafolabi/indicert-backend/pkg/metrics"
	"github.com/tundeafolabi/indicert-backend/pkg/migrate"
	"github.com/tundeafolabi/indicert-backend/pkg/redis"
	"github.com/tundeafolabi/indicert-backend/pkg/storage/artifacts"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	artifactStore, err := artifacts.New(cfg.Certificates, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap artifact store", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(context.Background(), "root", artifactStore.Root()), "artifact store ready")

	promRegistry := prometheus.NewRegistry()
	verificationMetrics := metrics.NewVerificationMetrics(promRegistry)

	keyed := locks.NewKeyedMutex()
	ninRegistry := registry.NewFormatClient()

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	verificationService, err := verification.NewService(verification.NewRepository(dbClient.DB()), ninRegistry, keyed, logg, verificationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create verification service", err)
		os.Exit(1)
	}

	certificatesService, err := certificates.NewService(certificates.NewRepository(dbClient.DB()), artifactStore, auditService, keyed, cfg.Certificates, logg, verificationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create certificates service", err)
		os.Exit(1)
	}

	reviewService, err := review.NewService(review.NewRepository(dbClient.DB()), certificatesService, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	applicationsService, err := applications.NewService(applications.NewRepository(dbClient.DB()), verificationService, certificatesService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create applications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			applicationsService,
			certificatesService,
			reviewService,
			auditService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
