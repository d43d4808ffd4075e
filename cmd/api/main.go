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

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/cache"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/queue"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize tracing
	_, closer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer closer.Close()

	var clientOpts []youtube.ClientOption
	if cfg.Cache.Enabled {
		c, err := cache.NewCache(cfg.Cache)
		if err != nil {
			logger.WarnWithErr("Extraction cache unavailable", err)
		} else {
			defer c.Close()
			backend := cache.NewBackend(youtube.NewYTDLP(cfg.YouTube.BinaryPath), c, cfg.Cache.TTL, logger)
			clientOpts = append(clientOpts, youtube.WithBackend(backend))
		}
	}
	client := youtube.NewClientFromConfig(cfg.YouTube, logger, clientOpts...)

	api := &API{
		videos: client,
		logger: logger,
	}

	// The queue only backs asynchronous lookups
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.WarnWithErr("Queue unavailable, asynchronous lookups disabled", err)
	} else {
		defer q.Close()
		api.lookups = q
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rl.Cleanup(ctx)

	// Setup router
	router := setupRouter(api, cfg.Auth.JWTSecret, rl)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("Server stopped")
}

// loadConfig reads path, falling back to defaults when the file is missing
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default()
	}
	return config.Load(path)
}

func setupRouter(api *API, jwtSecret string, rl *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Tracing(), middleware.Logger(api.logger))

	// Health check
	router.GET("/health", api.healthCheck)

	// API routes
	v1 := router.Group("/api/v1")
	if jwtSecret != "" {
		v1.Use(middleware.JWTAuth(jwtSecret))
	}
	v1.Use(middleware.RateLimit(rl))
	{
		// URLs
		v1.GET("/urls/validate", api.validateURL)
		v1.GET("/urls/video-id", api.resolveVideoID)

		// Videos
		v1.GET("/videos/info", api.getVideoInfo)
		v1.GET("/videos/captions", api.listCaptions)

		// Lookups
		v1.POST("/lookups", api.createLookup)
	}

	return router
}
