package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

// Lookup processes a queued lookup request. Failures are reported in the
// returned result rather than as an error.
func (c *Client) Lookup(ctx context.Context, req *models.LookupRequest) *models.LookupResult {
	res := &models.LookupResult{
		RequestID: req.ID,
		URL:       req.URL,
		Status:    models.LookupStatusCompleted,
	}
	defer func() {
		res.CompletedAt = time.Now().UTC()
	}()

	videoID, ok := ExtractVideoID(req.URL)
	if ok {
		res.VideoID = videoID
	}

	switch req.Kind {
	case models.LookupKindVideoID:
		if !ok {
			res.Fail(models.ErrorKindInvalidURL, "Could not extract a video ID")
		}
	case models.LookupKindInfo:
		if !IsValidURL(req.URL) {
			res.Fail(models.ErrorKindInvalidURL, "Invalid YouTube URL")
			return res
		}
		var opts Options
		if allowed, rejected := RequestOptions(req.Options); len(allowed) > 0 || len(rejected) > 0 {
			if len(rejected) > 0 {
				c.logger.WithRequestID(req.ID).Warnf("Ignoring lookup options %v", rejected)
			}
			opts = c.options.Merge(allowed)
		}
		details, err := c.GetVideoInfo(ctx, req.URL, opts)
		if err != nil {
			res.Fail(ErrorKind(err), err.Error())
			return res
		}
		res.Details = details
	case models.LookupKindCaptions:
		if !IsValidURL(req.URL) {
			res.Fail(models.ErrorKindInvalidURL, "Invalid YouTube URL")
			return res
		}
		res.Captions = c.ListAvailableCaptions(ctx, req.URL, req.ReturnAll)
	default:
		res.Fail(models.ErrorKindBadRequest, fmt.Sprintf("unknown lookup kind %q", req.Kind))
	}

	return res
}
