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
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []entity.User
}

func (s *fakeSender) Send(_ context.Context, to entity.User, _ entity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

type ackRecord struct {
	acked   bool
	nacked  bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	records map[uint64]*ackRecord
}

func (a *fakeAcknowledger) update(tag uint64, fn func(r *ackRecord)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.records == nil {
		a.records = map[uint64]*ackRecord{}
	}
	if a.records[tag] == nil {
		a.records[tag] = &ackRecord{}
	}
	fn(a.records[tag])
}

func (a *fakeAcknowledger) record(tag uint64) ackRecord {
	var out ackRecord
	a.update(tag, func(r *ackRecord) { out = *r })
	return out
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.update(tag, func(r *ackRecord) { r.acked = true })
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.update(tag, func(r *ackRecord) { r.nacked, r.requeue = true, requeue })
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
}

func (c *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

var recipient = entity.User{ID: "b1", Name: "Firm A", Email: "firm@example.com"}

func jobBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(NewEmailJob(recipient, entity.Message{Kind: entity.NotificationPurchaseConfirmed, Title: "Purchase confirmed"}))
	require.NoError(t, err)
	return body
}

func TestEmailProducerPublishesPersistentJob(t *testing.T) {
	pub := &fakePublisher{}
	p := NewEmailProducer(pub)

	err := p.Send(context.Background(), recipient, entity.Message{Kind: entity.NotificationLeadAvailable, Title: "New lead", Link: "https://x/l1"})

	require.NoError(t, err)
	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var job EmailJob
	require.NoError(t, json.Unmarshal(pub.msg.Body, &job))
	assert.Equal(t, "firm@example.com", job.Email)
	assert.Equal(t, entity.NotificationLeadAvailable, job.Kind)
	assert.Equal(t, "https://x/l1", job.Link)
}

func TestEmailProducerErrors(t *testing.T) {
	p := NewEmailProducer(&fakePublisher{err: errors.New("channel closed")})
	assert.ErrorContains(t, p.Send(context.Background(), recipient, entity.Message{Title: "t"}), "channel closed")
	assert.Error(t, p.Send(context.Background(), entity.User{ID: "x"}, entity.Message{Title: "t"}))
}

func TestWorkerProcess(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(nil, sender, zap.NewNop())

	require.NoError(t, w.Process(context.Background(), jobBody(t)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "firm@example.com", sender.sent[0].Email)

	assert.ErrorIs(t, w.Process(context.Background(), []byte("{not json")), errMalformedJob)
	assert.ErrorIs(t, w.Process(context.Background(), []byte(`{"user_id":"b1"}`)), errMalformedJob)
}

func TestWorkerAcksAndDeadLetters(t *testing.T) {
	ack := &fakeAcknowledger{}
	deliveries := make(chan amqp.Delivery, 4)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("garbage")}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: jobBody(t)}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: jobBody(t), Redelivered: true}
	close(deliveries)

	sender := &fakeSender{err: errors.New("smtp down")}
	w := NewWorker(&fakeConsumer{deliveries: deliveries}, sender, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := w.Start(ctx, QueueName)

	assert.Error(t, err)
	assert.Equal(t, ackRecord{nacked: true, requeue: false}, ack.record(1))
	assert.Equal(t, ackRecord{nacked: true, requeue: true}, ack.record(2))
	assert.Equal(t, ackRecord{nacked: true, requeue: false}, ack.record(3))
}

func TestWorkerAcksDelivered(t *testing.T) {
	ack := &fakeAcknowledger{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: jobBody(t)}

	w := NewWorker(&fakeConsumer{deliveries: deliveries}, &fakeSender{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, QueueName) }()

	require.Eventually(t, func() bool {
		return ack.record(7).acked
	}, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
