package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  []string
	queues     map[string]amqp.Table
	bindings   map[string]string
	published  []published
	deliveries chan amqp.Delivery
	prefetch   int
	depth      map[string]int
	declareErr error
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		queues:     make(map[string]amqp.Table),
		bindings:   make(map[string]string),
		deliveries: make(chan amqp.Delivery, 8),
		depth:      make(map[string]int),
	}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if f.declareErr != nil {
		return amqp.Queue{}, f.declareErr
	}
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings[name] = exchange
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) QueueInspect(name string) (amqp.Queue, error) {
	n, ok := f.depth[name]
	if !ok {
		return amqp.Queue{}, errors.New("NOT_FOUND - no queue")
	}
	return amqp.Queue{Name: name, Messages: n}, nil
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) lastPublished(t *testing.T) published {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.published)
	return f.published[len(f.published)-1]
}

type ackResult struct {
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	results chan ackResult
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.results <- ackResult{acked: true}
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.results <- ackResult{requeue: requeue}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		RequestQueue:  "ytmeta.lookups",
		ResultQueue:   "ytmeta.results",
		PrefetchCount: 3,
	}
}

func newTestQueue(t *testing.T) (*Queue, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel()
	q, err := newQueue(ch, testQueueConfig(), nil)
	require.NoError(t, err)
	return q, ch
}

func TestNewDeclaresTopology(t *testing.T) {
	_, ch := newTestQueue(t)

	assert.ElementsMatch(t, []string{ExchangeName, DeadLetterExchangeName}, ch.exchanges)
	assert.Contains(t, ch.queues, "ytmeta.lookups")
	assert.Contains(t, ch.queues, "ytmeta.results")
	assert.Contains(t, ch.queues, "ytmeta.lookups.dlq")
	assert.Contains(t, ch.queues, "ytmeta.lookups.retry")

	assert.Equal(t, DeadLetterExchangeName, ch.queues["ytmeta.lookups"]["x-dead-letter-exchange"])
	assert.Equal(t, "ytmeta.lookups.dlq", ch.queues["ytmeta.lookups"]["x-dead-letter-routing-key"])
	assert.Equal(t, ExchangeName, ch.queues["ytmeta.lookups.retry"]["x-dead-letter-exchange"])
	assert.Equal(t, "ytmeta.lookups", ch.queues["ytmeta.lookups.retry"]["x-dead-letter-routing-key"])

	assert.Equal(t, ExchangeName, ch.bindings["ytmeta.lookups"])
	assert.Equal(t, ExchangeName, ch.bindings["ytmeta.results"])
	assert.Equal(t, DeadLetterExchangeName, ch.bindings["ytmeta.lookups.dlq"])
}

func TestNewDeclareFailure(t *testing.T) {
	ch := newFakeChannel()
	ch.declareErr = errors.New("channel closed")

	_, err := newQueue(ch, testQueueConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestPublishLookup(t *testing.T) {
	q, ch := newTestQueue(t)

	req := &models.LookupRequest{
		ID:        "req-1",
		URL:       "https://youtu.be/dQw4w9WgXcQ",
		Kind:      models.LookupKindInfo,
		CreatedAt: time.Now(),
	}
	require.NoError(t, q.PublishLookup(context.Background(), req))

	p := ch.lastPublished(t)
	assert.Equal(t, ExchangeName, p.exchange)
	assert.Equal(t, "ytmeta.lookups", p.key)
	assert.Equal(t, "req-1", p.msg.CorrelationId)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, 0, retryCount(p.msg.Headers))

	var decoded models.LookupRequest
	require.NoError(t, json.Unmarshal(p.msg.Body, &decoded))
	assert.Equal(t, req.URL, decoded.URL)
	assert.Equal(t, req.Kind, decoded.Kind)
}

func TestPublishResult(t *testing.T) {
	q, ch := newTestQueue(t)

	res := &models.LookupResult{
		RequestID: "req-2",
		URL:       "https://youtu.be/dQw4w9WgXcQ",
		Status:    models.LookupStatusFailed,
		ErrorKind: models.ErrorKindUnavailable,
	}
	require.NoError(t, q.PublishResult(context.Background(), res))

	p := ch.lastPublished(t)
	assert.Equal(t, "ytmeta.results", p.key)
	assert.Equal(t, "req-2", p.msg.CorrelationId)
	assert.Contains(t, string(p.msg.Body), `"error_kind":"video_unavailable"`)
}

func TestPublishError(t *testing.T) {
	q, ch := newTestQueue(t)
	ch.publishErr = errors.New("connection reset")

	err := q.PublishLookup(context.Background(), &models.LookupRequest{ID: "req-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish lookup")
}

func TestConsumeLookups(t *testing.T) {
	q, ch := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type call struct {
		id      string
		retries int
	}
	calls := make(chan call, 4)
	handler := func(ctx context.Context, req *models.LookupRequest, retries int) error {
		calls <- call{id: req.ID, retries: retries}
		if req.ID == "fail" {
			return errors.New("backend exploded")
		}
		return nil
	}
	require.NoError(t, q.ConsumeLookups(ctx, handler))
	assert.Equal(t, 3, ch.prefetch)

	tests := []struct {
		name     string
		body     string
		headers  amqp.Table
		wantCall *call
		wantAck  bool
	}{
		{
			name:     "success is acked",
			body:     `{"id":"ok","url":"https://youtu.be/dQw4w9WgXcQ","kind":"info"}`,
			headers:  amqp.Table{retryCountHeader: int32(2)},
			wantCall: &call{id: "ok", retries: 2},
			wantAck:  true,
		},
		{
			name:     "handler failure is dead-lettered",
			body:     `{"id":"fail","url":"https://youtu.be/dQw4w9WgXcQ","kind":"info"}`,
			wantCall: &call{id: "fail"},
			wantAck:  false,
		},
		{
			name:    "malformed body is dead-lettered",
			body:    `not json`,
			wantAck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{results: make(chan ackResult, 1)}
			ch.deliveries <- amqp.Delivery{Acknowledger: ack, Body: []byte(tt.body), Headers: tt.headers}

			select {
			case res := <-ack.results:
				assert.Equal(t, tt.wantAck, res.acked)
				assert.False(t, res.requeue)
			case <-time.After(2 * time.Second):
				t.Fatal("delivery was not acknowledged")
			}

			if tt.wantCall != nil {
				select {
				case got := <-calls:
					assert.Equal(t, *tt.wantCall, got)
				default:
					t.Fatal("handler was not called")
				}
			} else {
				assert.Len(t, calls, 0)
			}
		})
	}
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 0, retryCount(amqp.Table{retryCountHeader: "3"}))
	assert.Equal(t, 3, retryCount(amqp.Table{retryCountHeader: int32(3)}))
	assert.Equal(t, 4, retryCount(amqp.Table{retryCountHeader: int64(4)}))
	assert.Equal(t, 1, retryCount(amqp.Table{retryCountHeader: int8(1)}))
}

func TestGetQueueDepth(t *testing.T) {
	q, ch := newTestQueue(t)
	ch.depth["ytmeta.lookups"] = 7
	ch.depth["ytmeta.lookups.dlq"] = 2

	depth, err := q.GetQueueDepth()
	require.NoError(t, err)
	assert.Equal(t, 7, depth)

	dlq, err := q.GetDLQDepth()
	require.NoError(t, err)
	assert.Equal(t, 2, dlq)

	delete(ch.depth, "ytmeta.lookups")
	_, err = q.GetQueueDepth()
	assert.Error(t, err)
}
