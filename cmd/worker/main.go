package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/cache"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/queue"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/webhook"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
)

const queueMetricsInterval = 15 * time.Second

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

	_, closer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer closer.Close()

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

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

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	w := &worker{
		lookups:  client,
		results:  q,
		notifier: webhook.NewNotifier(cfg.Webhook, logger),
		logger:   logger,
	}

	go reportQueueDepth(ctx, q, &w.inProgress)

	// Start consuming lookups
	logger.Info("Worker started, waiting for lookups...")
	if err := q.ConsumeLookups(ctx, w.processLookup); err != nil {
		logger.Fatalf("Failed to consume lookups: %v", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("Worker stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default()
	}
	return config.Load(path)
}

type depthReporter interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

func reportQueueDepth(ctx context.Context, q depthReporter, inProgress *atomic.Int64) {
	ticker := time.NewTicker(queueMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reportDepthOnce(q, inProgress)
		}
	}
}

func reportDepthOnce(q depthReporter, inProgress *atomic.Int64) {
	depth, err := q.GetQueueDepth()
	if err != nil {
		metrics.RecordError("worker", "queue_inspect")
	} else {
		metrics.UpdateLookupMetrics(int(inProgress.Load()), depth)
	}

	dlqDepth, err := q.GetDLQDepth()
	if err != nil {
		metrics.RecordError("worker", "dlq_inspect")
		return
	}
	metrics.UpdateDeadLetterDepth(dlqDepth)
}
