package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

const (
	DeadLetterExchangeName = "ytmeta_dlq"
	MaxRetries             = 5
)

func (q *Queue) deadLetterQueue() string {
	return q.requests + ".dlq"
}

func (q *Queue) retryQueue() string {
	return q.requests + ".retry"
}

// setupDeadLetterQueue declares the dead letter and retry queues
func (q *Queue) setupDeadLetterQueue() error {
	// Declare dead letter exchange
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	// Declare dead letter queue
	_, err = q.channel.QueueDeclare(
		q.deadLetterQueue(),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Bind DLQ to exchange
	err = q.channel.QueueBind(
		q.deadLetterQueue(),
		q.deadLetterQueue(),
		DeadLetterExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Expired retry messages go back to the request queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": q.requests,
	}

	_, err = q.channel.QueueDeclare(
		q.retryQueue(),
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// PublishToRetryQueue schedules req to be processed again after a backoff.
// Once MaxRetries is reached it is dead-lettered instead.
func (q *Queue) PublishToRetryQueue(ctx context.Context, req *models.LookupRequest, retryCount int) error {
	if retryCount >= MaxRetries {
		return q.PublishToDeadLetterQueue(ctx, req, "max retries exceeded")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup: %w", err)
	}

	// Calculate exponential backoff delay
	delay := calculateBackoffDelay(retryCount)

	err = q.channel.PublishWithContext(ctx,
		"",
		q.retryQueue(),
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: req.ID,
			Body:          body,
			Timestamp:     time.Now(),
			Headers:       amqp.Table{retryCountHeader: int32(retryCount + 1)},
			Expiration:    fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithRequestID(req.ID).Infof("Lookup queued for retry #%d in %v", retryCount+1, delay)
	return nil
}

// PublishToDeadLetterQueue publishes a failed lookup to the dead letter queue
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, req *models.LookupRequest, reason string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup: %w", err)
	}

	headers := amqp.Table{
		"x-failure-reason": reason,
		"x-failed-at":      time.Now().Format(time.RFC3339),
	}

	err = q.channel.PublishWithContext(ctx,
		DeadLetterExchangeName,
		q.deadLetterQueue(),
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: req.ID,
			Body:          body,
			Timestamp:     time.Now(),
			Headers:       headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	q.logger.WithRequestID(req.ID).Warnf("Lookup moved to dead letter queue: %s", reason)
	return nil
}

// calculateBackoffDelay calculates exponential backoff delay
func calculateBackoffDelay(retryCount int) time.Duration {
	// Exponential backoff: 1min, 2min, 4min, 8min, 16min
	baseDelay := 1 * time.Minute
	delay := baseDelay * (1 << retryCount) // 2^retryCount

	// Cap at 1 hour
	if delay > 1*time.Hour {
		delay = 1 * time.Hour
	}

	return delay
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(q.deadLetterQueue())
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}
