package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

type lookupProcessor interface {
	Lookup(ctx context.Context, req *models.LookupRequest) *models.LookupResult
}

type resultPublisher interface {
	PublishResult(ctx context.Context, res *models.LookupResult) error
	PublishToRetryQueue(ctx context.Context, req *models.LookupRequest, retryCount int) error
}

type resultNotifier interface {
	NotifyResult(ctx context.Context, url string, res *models.LookupResult) error
}

type worker struct {
	lookups    lookupProcessor
	results    resultPublisher
	notifier   resultNotifier
	logger     *logging.Logger
	inProgress atomic.Int64
}

// processLookup runs one lookup. Auth-expired lookups are retried later;
// every other outcome is published as a result.
func (w *worker) processLookup(ctx context.Context, req *models.LookupRequest, retryCount int) error {
	w.inProgress.Add(1)
	defer w.inProgress.Add(-1)

	w.logger.LogLookupEvent(req.ID, "started", "processing", map[string]interface{}{
		"kind":        req.Kind,
		"url":         req.URL,
		"retry_count": retryCount,
	})

	start := time.Now()
	res := w.lookups.Lookup(ctx, req)
	elapsed := time.Since(start)

	if res.ErrorKind == models.ErrorKindAuthExpired {
		w.logger.LogLookupEvent(req.ID, "retry", res.Status, map[string]interface{}{
			"error": res.ErrorMsg,
		})
		metrics.RecordLookupCompleted(req.Kind, "retry", elapsed.Seconds())
		if err := w.results.PublishToRetryQueue(ctx, req, retryCount); err != nil {
			return fmt.Errorf("failed to schedule retry: %w", err)
		}
		return nil
	}

	if err := w.results.PublishResult(ctx, res); err != nil {
		metrics.RecordError("worker", "publish")
		return fmt.Errorf("failed to publish result: %w", err)
	}

	w.notify(ctx, req, res)

	status := res.Status
	if res.ErrorKind != "" {
		status = res.ErrorKind
	}
	metrics.RecordLookupCompleted(req.Kind, status, elapsed.Seconds())
	w.logger.LogLookupEvent(req.ID, "completed", res.Status, map[string]interface{}{
		"video_id":    res.VideoID,
		"error_kind":  res.ErrorKind,
		"duration_ms": elapsed.Milliseconds(),
	})
	return nil
}

// notify posts res to the request's callback URL. Delivery failures are
// logged only; the result is already on the result queue.
func (w *worker) notify(ctx context.Context, req *models.LookupRequest, res *models.LookupResult) {
	if req.CallbackURL == "" || w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyResult(ctx, req.CallbackURL, res); err != nil {
		metrics.RecordError("worker", "webhook")
		w.logger.WithRequestID(req.ID).WarnWithErr("Failed to deliver lookup callback", err)
	}
}
