package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfirm answers after delay, or never when delay is negative.
type fakeConfirm struct {
	ack   bool
	delay time.Duration
}

func (c fakeConfirm) WaitContext(ctx context.Context) (bool, error) {
	if c.delay < 0 {
		<-ctx.Done()
		return false, ctx.Err()
	}
	select {
	case <-time.After(c.delay):
		return c.ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type fakeChannel struct {
	mu         sync.Mutex
	confirms   []fakeConfirm
	publishErr error
	sent       []amqp.Publishing
	notify     chan *amqp.Error
	closeCalls int
}

func newFakeChannel(confirms ...fakeConfirm) *fakeChannel {
	return &fakeChannel{confirms: confirms, notify: make(chan *amqp.Error, 1)}
}

func (c *fakeChannel) publish(exchange, key string, msg amqp.Publishing) (confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return nil, c.publishErr
	}
	c.sent = append(c.sent, msg)
	next := fakeConfirm{ack: true}
	if len(c.confirms) > 0 {
		next, c.confirms = c.confirms[0], c.confirms[1:]
	}
	return next, nil
}

func (c *fakeChannel) closed() <-chan *amqp.Error {
	return c.notify
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return nil
}

func (c *fakeChannel) brokerClose() {
	c.notify <- &amqp.Error{Code: amqp.ChannelError, Reason: "channel error"}
	close(c.notify)
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// openerOf hands out the given channels in order.
func openerOf(channels ...*fakeChannel) (channelOpener, *int) {
	opened := 0
	return func() (publishChannel, error) {
		if opened >= len(channels) {
			return nil, errors.New("connection refused")
		}
		ch := channels[opened]
		opened++
		return ch, nil
	}, &opened
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testEvent(eventType string) AppointmentEvent {
	return AppointmentEvent{
		Type:          eventType,
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		Date:          "2026-10-20",
		Time:          "10:00 AM",
		Status:        "booked",
		OccurredAt:    time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestRabbitMQPublisher_PublishesPersistentJSON(t *testing.T) {
	ch := newFakeChannel()
	open, _ := openerOf(ch)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	event := testEvent(EventAppointmentBooked)
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.sent, 1)
	msg := ch.sent[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, EventAppointmentBooked, msg.Type)
	assert.NotEmpty(t, msg.MessageId)

	var decoded AppointmentEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event.AppointmentID, decoded.AppointmentID)
	assert.Equal(t, event.Date, decoded.Date)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestRabbitMQPublisher_TimedOutConfirmDoesNotLeakIntoNextPublish(t *testing.T) {
	ch := newFakeChannel(
		fakeConfirm{delay: -1},
		fakeConfirm{ack: false},
		fakeConfirm{ack: true},
	)
	open, _ := openerOf(ch)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), 20*time.Millisecond)

	err := p.Publish(context.Background(), testEvent(EventAppointmentBooked))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, p.Publish(context.Background(), testEvent(EventAppointmentConfirmed)), ErrEventNotConfirmed)
	assert.NoError(t, p.Publish(context.Background(), testEvent(EventAppointmentCompleted)))
	assert.Equal(t, 3, ch.sentCount())
}

func TestRabbitMQPublisher_ConfirmWaitOutlivesRequestContext(t *testing.T) {
	ch := newFakeChannel(fakeConfirm{ack: true, delay: 50 * time.Millisecond})
	open, _ := openerOf(ch)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.NoError(t, p.Publish(ctx, testEvent(EventAppointmentCancelled)))
}

func TestRabbitMQPublisher_CancelledRequestPublishesNothing(t *testing.T) {
	ch := newFakeChannel()
	open, opened := openerOf(ch)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, testEvent(EventAppointmentBooked)), context.Canceled)
	assert.Zero(t, ch.sentCount())
	assert.Zero(t, *opened)
}

func TestRabbitMQPublisher_ReopensChannelClosedByBroker(t *testing.T) {
	first := newFakeChannel()
	second := newFakeChannel()
	open, opened := openerOf(first, second)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	require.NoError(t, p.Publish(context.Background(), testEvent(EventAppointmentBooked)))
	first.brokerClose()
	require.NoError(t, p.Publish(context.Background(), testEvent(EventAppointmentConfirmed)))

	assert.Equal(t, 2, *opened)
	assert.Equal(t, 1, first.sentCount())
	assert.Equal(t, 1, second.sentCount())
}

func TestRabbitMQPublisher_ReopensAfterPublishError(t *testing.T) {
	first := newFakeChannel()
	first.publishErr = amqp.ErrClosed
	second := newFakeChannel()
	open, opened := openerOf(first, second)
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	err := p.Publish(context.Background(), testEvent(EventAppointmentBooked))
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.Equal(t, 1, first.closeCalls)

	require.NoError(t, p.Publish(context.Background(), testEvent(EventAppointmentBooked)))
	assert.Equal(t, 2, *opened)
	assert.Equal(t, 1, second.sentCount())
}

func TestRabbitMQPublisher_OpenFailureIsRetriedOnNextPublish(t *testing.T) {
	ch := newFakeChannel()
	calls := 0
	open := func() (publishChannel, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return ch, nil
	}
	p := newRabbitMQPublisher(open, "appointments", quietLogger(), time.Second)

	err := p.Publish(context.Background(), testEvent(EventAppointmentBooked))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open event channel")

	require.NoError(t, p.Publish(context.Background(), testEvent(EventAppointmentBooked)))
	assert.Equal(t, 2, calls)
}
