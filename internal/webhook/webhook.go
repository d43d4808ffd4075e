package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

// Webhook event names
const (
	EventLookupCompleted = "lookup.completed"
	EventLookupFailed    = "lookup.failed"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"
	DeliveryHeader  = "X-Webhook-Delivery"

	maxResponseBody = 4 << 10
)

// Event is the JSON body posted to a callback URL
type Event struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// DeliveryError is returned when the receiver answered with a non-2xx status
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook receiver returned status %d", e.StatusCode)
}

// retryable reports whether another attempt could succeed
func (e *DeliveryError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Notifier posts lookup results to callback URLs
type Notifier struct {
	client      *http.Client
	secret      string
	maxAttempts int
	backoff     time.Duration
	logger      *logging.Logger
}

// NewNotifier creates a Notifier from the webhook configuration
func NewNotifier(cfg config.WebhookConfig, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	return &Notifier{
		client:      &http.Client{Timeout: timeout},
		secret:      cfg.Secret,
		maxAttempts: attempts,
		backoff:     cfg.RetryBackoff,
		logger:      logger,
	}
}

// NotifyResult posts res to url as a lookup.completed or lookup.failed event
func (n *Notifier) NotifyResult(ctx context.Context, url string, res *models.LookupResult) error {
	event := EventLookupCompleted
	if res.Status == models.LookupStatusFailed {
		event = EventLookupFailed
	}
	return n.Deliver(ctx, url, event, res)
}

// Deliver posts data to url, retrying server errors with exponential
// backoff until the configured number of attempts is used up.
func (n *Notifier) Deliver(ctx context.Context, url, event string, data interface{}) error {
	payload, err := json.Marshal(Event{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	deliveryID := uuid.NewString()
	logger := n.logger.WithFields(map[string]interface{}{
		"event":       event,
		"delivery_id": deliveryID,
	})

	for attempt := 0; ; attempt++ {
		err = n.send(ctx, url, event, deliveryID, payload)
		if err == nil {
			metrics.RecordWebhookDelivery(event, "delivered")
			return nil
		}

		var derr *DeliveryError
		if errors.As(err, &derr) && !derr.retryable() {
			metrics.RecordWebhookDelivery(event, "rejected")
			return err
		}
		if attempt+1 >= n.maxAttempts {
			metrics.RecordWebhookDelivery(event, "failed")
			return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempt+1, err)
		}

		metrics.RecordWebhookDelivery(event, "retry")
		delay := n.backoff * (1 << attempt)
		logger.Warnf("Webhook delivery attempt %d failed, retrying in %v: %v", attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (n *Notifier) send(ctx context.Context, url, event, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ytmeta-webhook/1.0")
	req.Header.Set(EventHeader, event)
	req.Header.Set(DeliveryHeader, deliveryID)
	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, n.secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return &DeliveryError{StatusCode: resp.StatusCode, Body: string(body)}
}

// Sign returns the HMAC-SHA256 signature of payload in the
// "sha256=<hex>" form sent in SignatureHeader.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches payload signed with secret
func Verify(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}
