package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

const (
	ExchangeName = "ytmeta"

	retryCountHeader = "x-retry-count"
)

// amqpChannel is the subset of *amqp.Channel used by Queue
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	QueueInspect(name string) (amqp.Queue, error)
	Close() error
}

var _ amqpChannel = (*amqp.Channel)(nil)

// LookupHandler processes one lookup request. retryCount is the number of
// times the request has already been retried. Returning an error
// dead-letters the message.
type LookupHandler func(ctx context.Context, req *models.LookupRequest, retryCount int) error

// Queue provides message queue operations
type Queue struct {
	conn     io.Closer
	channel  amqpChannel
	logger   *logging.Logger
	requests string
	results  string
	prefetch int
}

// New creates a new queue client and declares the lookup topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := newQueue(channel, cfg, logger)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	q.conn = conn

	return q, nil
}

func newQueue(channel amqpChannel, cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}

	q := &Queue{
		channel:  channel,
		logger:   logger,
		requests: cfg.RequestQueue,
		results:  cfg.ResultQueue,
		prefetch: prefetch,
	}

	if err := q.declare(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) declare() error {
	// Declare exchange
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := q.setupDeadLetterQueue(); err != nil {
		return err
	}

	// Rejected requests are dead-lettered
	requestArgs := amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchangeName,
		"x-dead-letter-routing-key": q.deadLetterQueue(),
	}

	for _, decl := range []struct {
		name string
		args amqp.Table
	}{
		{q.requests, requestArgs},
		{q.results, nil},
	} {
		_, err = q.channel.QueueDeclare(
			decl.name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			decl.args,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", decl.name, err)
		}

		if err := q.channel.QueueBind(decl.name, decl.name, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", decl.name, err)
		}
	}

	return nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishLookup publishes a lookup request
func (q *Queue) PublishLookup(ctx context.Context, req *models.LookupRequest) error {
	return q.publishLookup(ctx, req, 0)
}

func (q *Queue) publishLookup(ctx context.Context, req *models.LookupRequest, retryCount int) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		q.requests,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: req.ID,
			Body:          body,
			Timestamp:     time.Now(),
			Headers:       amqp.Table{retryCountHeader: int32(retryCount)},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish lookup: %w", err)
	}

	return nil
}

// PublishResult publishes the result of a lookup
func (q *Queue) PublishResult(ctx context.Context, res *models.LookupResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		q.results,
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: res.RequestID,
			Body:          body,
			Timestamp:     time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	return nil
}

// ConsumeLookups starts consuming lookup requests. Messages are acked when
// handler succeeds and dead-lettered when it fails or the body is not a
// lookup request.
func (q *Queue) ConsumeLookups(ctx context.Context, handler LookupHandler) error {
	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		q.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		q.requests,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				q.handleDelivery(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (q *Queue) handleDelivery(ctx context.Context, msg amqp.Delivery, handler LookupHandler) {
	var req models.LookupRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		q.logger.WarnWithErr("Dropping malformed lookup request", err)
		msg.Nack(false, false)
		return
	}

	if err := handler(ctx, &req, retryCount(msg.Headers)); err != nil {
		q.logger.WithRequestID(req.ID).ErrorWithErr("Lookup handler failed", err)
		msg.Nack(false, false)
		return
	}
	msg.Ack(false)
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryCountHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// GetQueueDepth returns the number of requests waiting in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(q.requests)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}
