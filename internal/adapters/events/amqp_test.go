package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"technician-route-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfirm resolves when a value is sent on result.
type fakeConfirm struct {
	result chan bool
}

func (f *fakeConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case ack := <-f.result:
		return ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type fakeBroker struct {
	mu       sync.Mutex
	sent     []amqp.Publishing
	keys     []string
	confirms []*fakeConfirm
	err      error
}

func (b *fakeBroker) publish(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	c := &fakeConfirm{result: make(chan bool, 1)}
	b.sent = append(b.sent, msg)
	b.keys = append(b.keys, key)
	b.confirms = append(b.confirms, c)
	return c, nil
}

func (b *fakeBroker) confirmsSnapshot() []*fakeConfirm {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeConfirm(nil), b.confirms...)
}

func newTestAMQPPublisher(b *fakeBroker) *AMQPPublisher {
	return &AMQPPublisher{exchange: "routesvc.events", publish: b.publish}
}

func TestAMQPPublishWaitsForAck(t *testing.T) {
	b := &fakeBroker{}
	p := newTestAMQPPublisher(b)

	done := make(chan error, 1)
	go func() {
		done <- p.Publish(context.Background(), domain.Event{Type: domain.EventRouteOptimized, Route: "A"})
	}()

	require.Eventually(t, func() bool { return len(b.confirmsSnapshot()) == 1 }, time.Second, 5*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("publish returned before confirm: %v", err)
	default:
	}

	b.confirmsSnapshot()[0].result <- true
	require.NoError(t, <-done)

	require.Len(t, b.sent, 1)
	assert.Equal(t, domain.EventRouteOptimized, b.keys[0])
	assert.Equal(t, amqp.Persistent, b.sent[0].DeliveryMode)
	assert.Equal(t, "application/json", b.sent[0].ContentType)

	var e domain.Event
	require.NoError(t, json.Unmarshal(b.sent[0].Body, &e))
	assert.Equal(t, "A", e.Route)
}

func TestAMQPPublishNack(t *testing.T) {
	b := &fakeBroker{}
	p := newTestAMQPPublisher(b)

	go func() {
		for len(b.confirmsSnapshot()) == 0 {
			time.Sleep(time.Millisecond)
		}
		b.confirmsSnapshot()[0].result <- false
	}()

	err := p.Publish(context.Background(), domain.Event{Type: domain.EventBookingSubmitted})
	assert.ErrorContains(t, err, "NACK")
}

func TestAMQPLateConfirmDoesNotLeakIntoNextPublish(t *testing.T) {
	b := &fakeBroker{}
	p := newTestAMQPPublisher(b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Publish(ctx, domain.Event{Type: domain.EventRouteReordered})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The first message's ack arrives after its publish gave up.
	b.confirmsSnapshot()[0].result <- true

	go func() {
		for len(b.confirmsSnapshot()) < 2 {
			time.Sleep(time.Millisecond)
		}
		b.confirmsSnapshot()[1].result <- false
	}()

	err = p.Publish(context.Background(), domain.Event{Type: domain.EventRouteReordered})
	assert.ErrorContains(t, err, "NACK")
}

func TestAMQPPublishError(t *testing.T) {
	b := &fakeBroker{err: amqp.ErrClosed}
	p := newTestAMQPPublisher(b)

	err := p.Publish(context.Background(), domain.Event{Type: domain.EventRouteOptimized})
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}
