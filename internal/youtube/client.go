package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

const (
	modeInfo     = "info"
	modeCaptions = "captions"
)

// Client fetches video metadata and caption listings through a Backend.
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	backend   Backend
	options   Options
	preferred []string
	logger    *logging.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBackend replaces the default yt-dlp backend
func WithBackend(b Backend) ClientOption {
	return func(c *Client) {
		c.backend = b
	}
}

// WithLogger sets the logger used by the client
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPreferredLanguages overrides DefaultPreferredLanguages
func WithPreferredLanguages(langs []string) ClientOption {
	return func(c *Client) {
		if len(langs) > 0 {
			c.preferred = append([]string(nil), langs...)
		}
	}
}

// NewClient creates a client whose default extraction options are opts
// merged over DefaultOptions.
func NewClient(opts Options, options ...ClientOption) *Client {
	c := &Client{
		options:   DefaultOptions().Merge(opts),
		preferred: append([]string(nil), DefaultPreferredLanguages...),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.backend == nil {
		c.backend = NewYTDLP("")
	}
	if c.logger == nil {
		c.logger = logging.NewNopLogger()
	}
	c.logger.WithField("options", c.options).Debug("Initialized YouTube client")
	return c
}

// NewClientFromConfig builds a yt-dlp backed Client as configured in cfg.
// extra is applied last and may replace the backend.
func NewClientFromConfig(cfg config.YouTubeConfig, logger *logging.Logger, extra ...ClientOption) *Client {
	opts := Options{}
	for k, v := range cfg.Options {
		opts[k] = v
	}
	if cfg.CookieFile != "" {
		opts[OptCookieFile] = cfg.CookieFile
	}

	options := []ClientOption{
		WithBackend(NewYTDLP(cfg.BinaryPath)),
		WithLogger(logger),
		WithPreferredLanguages(cfg.PreferredLanguages),
	}
	return NewClient(opts, append(options, extra...)...)
}

// Options returns a copy of the client's default extraction options
func (c *Client) Options() Options {
	return c.options.Merge(nil)
}

// PreferredLanguages returns the caption keys kept by preferred lookups
func (c *Client) PreferredLanguages() []string {
	return append([]string(nil), c.preferred...)
}

// GetVideoInfo fetches the full metadata record for url. opts replaces the
// client defaults when non-nil. It fails with ErrAuthExpired or
// ErrVideoUnavailable. A payload that fails strict validation is rebuilt
// from a minimal record instead of failing.
func (c *Client) GetVideoInfo(ctx context.Context, url string, opts Options) (_ *models.VideoDetails, err error) {
	span, ctx := tracing.StartSpan(ctx, "youtube.GetVideoInfo")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "url", url)

	logger := c.logger.WithURL(url)
	logger.Debug("Fetching video info")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: Unexpected error: %v", ErrVideoUnavailable, r)
			metrics.RecordExtraction(modeInfo, ErrorKind(err), 0)
			tracing.LogError(span, err)
			logger.ErrorWithErr("Video info lookup panicked", err)
		}
	}()

	if opts == nil {
		opts = c.options
	}

	start := time.Now()
	result, err := c.backend.ExtractInfo(ctx, url, opts)
	elapsed := time.Since(start)
	logger.LogExtraction(modeInfo, url, elapsed, err)

	if err == nil && len(result) == 0 {
		err = fmt.Errorf("%w: No video information returned", ErrVideoUnavailable)
	} else if err != nil {
		err = classifyError(err)
	}
	if err != nil {
		metrics.RecordExtraction(modeInfo, ErrorKind(err), elapsed.Seconds())
		tracing.LogError(span, err)
		logger.ErrorWithErr("Failed to fetch video info", err)
		return nil, err
	}

	info := projectVideoInfo(result)
	details, err := strictDetails(info)
	if err != nil {
		logger.WarnWithErr("Video info failed strict validation, rebuilding minimal record", err)
		metrics.RecordValidationFallback()
		tracing.SetTag(span, "fallback", true)

		details = fallbackDetails(info)
		if err := lenientValidate(details); err != nil {
			err = fmt.Errorf("%w: invalid video record: %v", ErrVideoUnavailable, err)
			metrics.RecordExtraction(modeInfo, ErrorKind(err), elapsed.Seconds())
			tracing.LogError(span, err)
			return nil, err
		}
		metrics.RecordExtraction(modeInfo, "fallback", elapsed.Seconds())
	} else {
		metrics.RecordExtraction(modeInfo, "success", elapsed.Seconds())
	}

	tracing.SetTag(span, "video_id", details.ID)
	logger.WithVideoID(details.ID).Debug("Fetched video info")
	return details, nil
}

// ListAvailableCaptions lists the caption tracks of url keyed by language,
// with automatic captions under "auto-<lang>". Unless returnAll is set only
// the preferred languages are kept. Any failure yields an empty map.
func (c *Client) ListAvailableCaptions(ctx context.Context, url string, returnAll bool) (captions models.MergedCaptions) {
	span, ctx := tracing.StartSpan(ctx, "youtube.ListAvailableCaptions")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "url", url)
	tracing.SetTag(span, "return_all", returnAll)

	logger := c.logger.WithURL(url)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Caption lookup panicked: %v", r)
			metrics.RecordCaptionLookup(returnAll, "error", 0)
			captions = models.MergedCaptions{}
		}
	}()

	if !IsValidURL(url) {
		logger.Warn("Invalid YouTube URL")
		metrics.RecordCaptionLookup(returnAll, models.ErrorKindInvalidURL, 0)
		return models.MergedCaptions{}
	}

	start := time.Now()
	result, err := c.backend.ExtractInfo(ctx, url, c.options.Merge(captionOptions()))
	elapsed := time.Since(start)
	logger.LogExtraction(modeCaptions, url, elapsed, err)

	if err != nil {
		err = classifyError(err)
		metrics.RecordExtraction(modeCaptions, ErrorKind(err), elapsed.Seconds())
		metrics.RecordCaptionLookup(returnAll, "error", 0)
		tracing.LogError(span, err)
		logger.WarnWithErr("Caption lookup failed", err)
		return models.MergedCaptions{}
	}
	metrics.RecordExtraction(modeCaptions, "success", elapsed.Seconds())

	captions = ExtractCaptions(result)
	if !returnAll {
		captions = FilterPreferred(captions, c.preferred)
	}

	metrics.RecordCaptionLookup(returnAll, "success", len(captions))
	logger.Debugf("Found %d caption keys", len(captions))
	return captions
}
