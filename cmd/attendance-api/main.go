package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker/api/swagger"
	"github.com/noah-isme/attendance-tracker/internal/bootstrap"
	"github.com/noah-isme/attendance-tracker/internal/handler"
	internalmiddleware "github.com/noah-isme/attendance-tracker/internal/middleware"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Track attended and missed classes per subject against a 75% target
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	store, err := bootstrap.OpenSubjectStore(ctx, cfg, logr, metricsSvc)
	if err != nil {
		logr.Fatal("failed to open subject store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logr.Warn("failed to close subject store", zap.Error(err))
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, store.Subjects)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc := service.NewReportService(store.Subjects, reportStorage, signer, service.ReportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, metricsSvc, nil, nil)
		reportHandler = handler.NewReportHandler(reportSvc)
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.NewSubjectHandler(store.Subjects), reportHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
