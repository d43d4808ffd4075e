package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

type videoService interface {
	GetVideoInfo(ctx context.Context, url string, opts youtube.Options) (*models.VideoDetails, error)
	ListAvailableCaptions(ctx context.Context, url string, returnAll bool) models.MergedCaptions
	Options() youtube.Options
}

type lookupPublisher interface {
	PublishLookup(ctx context.Context, req *models.LookupRequest) error
	GetQueueDepth() (int, error)
}

type API struct {
	videos  videoService
	lookups lookupPublisher
	logger  *logging.Logger
}

type urlQuery struct {
	URL string `form:"url" binding:"required"`
}

type infoQuery struct {
	URL    string `form:"url" binding:"required"`
	Format string `form:"format"`
}

type captionsQuery struct {
	URL string `form:"url" binding:"required"`
	All bool   `form:"all"`
}

type lookupBody struct {
	URL         string         `json:"url" binding:"required"`
	Kind        string         `json:"kind" binding:"required,oneof=info captions video_id"`
	ReturnAll   bool           `json:"return_all"`
	Options     map[string]any `json:"options"`
	CallbackURL string         `json:"callback_url" binding:"omitempty,url"`
}

func errorResponse(c *gin.Context, status int, kind, msg string) {
	c.JSON(status, gin.H{"error": msg, "kind": kind})
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if api.lookups != nil {
		if depth, err := api.lookups.GetQueueDepth(); err == nil {
			resp["queue_depth"] = depth
		} else {
			resp["queue"] = "unreachable"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Validate URL endpoint
func (api *API) validateURL(c *gin.Context) {
	var q urlQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest, "url query parameter is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   q.URL,
		"valid": youtube.IsValidURL(q.URL),
	})
}

// Resolve video ID endpoint
func (api *API) resolveVideoID(c *gin.Context) {
	var q urlQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest, "url query parameter is required")
		return
	}

	id, ok := youtube.ExtractVideoID(q.URL)
	metrics.RecordVideoIDResolution(ok)
	if !ok {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindInvalidURL, "Could not extract a video ID")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       q.URL,
		"video_id":  id,
		"watch_url": youtube.WatchURL(id),
	})
}

// Get video info endpoint
func (api *API) getVideoInfo(c *gin.Context) {
	var q infoQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest, "url query parameter is required")
		return
	}

	if !youtube.IsValidURL(q.URL) {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindInvalidURL, "Invalid YouTube URL")
		return
	}

	var opts youtube.Options
	if q.Format != "" {
		opts = api.videos.Options().Merge(youtube.Options{youtube.OptFormat: q.Format})
	}

	details, err := api.videos.GetVideoInfo(c.Request.Context(), q.URL, opts)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, youtube.ErrAuthExpired):
			status = http.StatusServiceUnavailable
		case errors.Is(err, youtube.ErrVideoUnavailable):
			status = http.StatusNotFound
		}
		errorResponse(c, status, youtube.ErrorKind(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, details)
}

// List captions endpoint
func (api *API) listCaptions(c *gin.Context) {
	var q captionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest, "url query parameter is required")
		return
	}

	captions := api.videos.ListAvailableCaptions(c.Request.Context(), q.URL, q.All)

	c.JSON(http.StatusOK, gin.H{
		"url":       q.URL,
		"languages": captions.Keys(),
		"captions":  captions,
	})
}

// Create lookup endpoint
func (api *API) createLookup(c *gin.Context) {
	if api.lookups == nil {
		errorResponse(c, http.StatusServiceUnavailable, "queue_unavailable", "Lookup queue is not configured")
		return
	}

	var body lookupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest, err.Error())
		return
	}

	if body.Kind != models.LookupKindVideoID && !youtube.IsValidURL(body.URL) {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindInvalidURL, "Invalid YouTube URL")
		return
	}

	if _, rejected := youtube.RequestOptions(body.Options); len(rejected) > 0 {
		errorResponse(c, http.StatusBadRequest, models.ErrorKindBadRequest,
			fmt.Sprintf("unsupported lookup options: %s", strings.Join(rejected, ", ")))
		return
	}

	req := &models.LookupRequest{
		ID:          middleware.GetRequestID(c),
		URL:         body.URL,
		Kind:        body.Kind,
		ReturnAll:   body.ReturnAll,
		Options:     body.Options,
		CallbackURL: body.CallbackURL,
		CreatedAt:   time.Now().UTC(),
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := api.lookups.PublishLookup(c.Request.Context(), req); err != nil {
		api.logger.WithRequestID(req.ID).ErrorWithErr("Failed to enqueue lookup", err)
		metrics.RecordError("api", "publish")
		errorResponse(c, http.StatusServiceUnavailable, "queue_unavailable", "Failed to enqueue lookup")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     req.ID,
		"status": "queued",
	})
}
