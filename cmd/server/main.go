package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qp-hub-backend/internal/config"
	"qp-hub-backend/internal/handler"
	"qp-hub-backend/internal/pkg/events"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/pkg/metrics"
	"qp-hub-backend/internal/pkg/tracing"
	"qp-hub-backend/internal/router"
	"qp-hub-backend/internal/service"
	"qp-hub-backend/internal/upstream"
)

func main() {
	if _, err := config.LoadEnv(".env", ".env.local"); err != nil {
		log.Fatal("Failed to load .env:", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// 로거
	appLogger := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	defer appLogger.Sync()

	shutdownTracing, err := tracing.Setup(cfg.Tracing.Stdout)
	if err != nil {
		appLogger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		p, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, appLogger)
		if err != nil {
			appLogger.Warn("NATS unavailable, batch events stay local", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	m := metrics.Default()

	// 서비스
	client := upstream.NewClient(upstream.Config{
		Timeout:  cfg.Upstream.Timeout,
		RetryMax: cfg.Upstream.RetryMax,
	}, appLogger, m)
	userService := service.NewUserService(client, cfg.Batch.Concurrency, appLogger)
	serverService := service.NewServerService(client, appLogger)
	databaseService := service.NewDatabaseService(client, appLogger)
	batchService := service.NewBatchService(userService, serverService, databaseService, service.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		PageSize:    cfg.Batch.PageSize,
	}, publisher, m, appLogger)

	// 핸들러
	handlers := router.Handlers{
		User:      handler.NewUserHandler(userService),
		Server:    handler.NewServerHandler(serverService),
		Database:  handler.NewDatabaseHandler(databaseService),
		Dashboard: handler.NewDashboardHandler(),
		Batch:     handler.NewBatchHandler(batchService, handler.NewEventStream(cfg.Server.AllowOrigins, appLogger)),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) == 0 || cfg.Server.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r, handlers, cfg.Server.MaxUploadSize)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		var err error
		if cfg.Server.TLSEnabled() {
			appLogger.Info("HUB server starting (https)", zap.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			appLogger.Info("HUB server starting", zap.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	appLogger.Info("shutdown initiated")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("http server shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Error("tracer shutdown error", zap.Error(err))
	}
	appLogger.Info("shutdown complete")
}
