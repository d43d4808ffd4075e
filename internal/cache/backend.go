package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
)

// Backend serves extraction payloads from the cache and falls through to
// next on a miss. Failed extractions are not cached, and a cache outage
// only costs the extra backend call.
type Backend struct {
	next   youtube.Backend
	cache  *Cache
	ttl    time.Duration
	logger *logging.Logger
}

var _ youtube.Backend = (*Backend)(nil)

const keyOriginalURL = "original_url"

// NewBackend wraps next with a payload cache
func NewBackend(next youtube.Backend, cache *Cache, ttl time.Duration, logger *logging.Logger) *Backend {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Backend{next: next, cache: cache, ttl: ttl, logger: logger}
}

// ExtractInfo implements youtube.Backend
func (b *Backend) ExtractInfo(ctx context.Context, url string, opts youtube.Options) (map[string]any, error) {
	key := cacheKey(url, opts)

	payload, err := b.cache.GetPayload(ctx, key)
	switch {
	case err != nil:
		b.logger.WarnWithErr("Extraction cache read failed", err)
		metrics.RecordCacheLookup("error")
	case payload != nil:
		metrics.RecordCacheLookup("hit")
		// Entries are shared across URL shapes of one video; original_url
		// must still echo this caller's URL.
		if _, ok := payload[keyOriginalURL]; ok {
			payload[keyOriginalURL] = url
		}
		return payload, nil
	default:
		metrics.RecordCacheLookup("miss")
	}

	payload, err = b.next.ExtractInfo(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := b.cache.SetPayload(ctx, key, payload, b.ttl); err != nil {
			b.logger.WarnWithErr("Extraction cache write failed", err)
		}
	}
	return payload, nil
}

// cacheKey identifies a payload by video and by the exact backend flags
func cacheKey(url string, opts youtube.Options) string {
	subject := url
	if id, ok := youtube.ExtractVideoID(url); ok {
		subject = id
	}

	sum := sha256.Sum256([]byte(strings.Join(opts.Args(), "\x00")))
	return subject + ":" + hex.EncodeToString(sum[:8])
}
