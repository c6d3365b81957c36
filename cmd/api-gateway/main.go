package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/section-allocator/api/swagger"
	"github.com/noah-isme/section-allocator/internal/bootstrap"
	"github.com/noah-isme/section-allocator/internal/handler"
	internalmiddleware "github.com/noah-isme/section-allocator/internal/middleware"
	"github.com/noah-isme/section-allocator/pkg/config"
	"github.com/noah-isme/section-allocator/pkg/logger"
	corsmiddleware "github.com/noah-isme/section-allocator/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/section-allocator/pkg/middleware/requestid"
)

// @title Section Allocator API
// @version 1.0.0
// @description Admin API for generating and maintaining semester course-section schedules.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.Build(ctx, cfg, logr, bootstrap.Options{})
	if err != nil {
		logr.Fatal("failed to build dependencies", zap.Error(err))
	}
	defer container.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(container.Metrics))

	checks := map[string]handler.Pinger{"postgres": container.DB}
	if container.Redis != nil {
		checks["redis"] = bootstrap.RedisPinger{Client: container.Redis}
	}
	metricsHandler := handler.NewMetricsHandler(container.Metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.NewSchedulerHandler(container.Scheduler, container.Exports, container.Jobs).Register(api)

	workerDone := make(chan struct{})
	if container.Jobs != nil && cfg.Scheduler.WorkerEnabled {
		go func() {
			defer close(workerDone)
			if err := container.Jobs.Run(ctx); err != nil {
				logr.Error("schedule worker stopped", zap.Error(err))
			}
		}()
	} else {
		close(workerDone)
		logr.Info("schedule worker disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	<-workerDone
	logr.Info("server stopped")
}
