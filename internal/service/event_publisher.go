package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Routing keys of appointment lifecycle events
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
)

// AppointmentEvent is the message body published after a committed change
type AppointmentEvent struct {
	Type          string    `json:"type"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Status        string    `json:"status"`
	ActorID       uuid.UUID `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event AppointmentEvent) error
}

// ErrEventNotConfirmed is returned when the broker nacks a message
var ErrEventNotConfirmed = errors.New("event not confirmed by broker")

// confirmTimeout bounds the wait for a broker confirm, independent of the request
const confirmTimeout = 5 * time.Second

// confirmation is the broker's answer for a single published message
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// publishChannel is a confirm-mode channel with the exchange already declared
type publishChannel interface {
	publish(exchange, key string, msg amqp.Publishing) (confirmation, error)
	closed() <-chan *amqp.Error
	Close() error
}

type channelOpener func() (publishChannel, error)

type amqpChannel struct {
	ch     *amqp.Channel
	notify chan *amqp.Error
}

func (c *amqpChannel) publish(exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(context.Background(), exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

func (c *amqpChannel) closed() <-chan *amqp.Error {
	return c.notify
}

func (c *amqpChannel) Close() error {
	return c.ch.Close()
}

// amqpOpener opens a channel on conn, declares a durable topic exchange and enables publisher confirms.
func amqpOpener(conn *amqp.Connection, exchange string) channelOpener {
	return func() (publishChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}

		err = ch.ExchangeDeclare(
			exchange, // name
			"topic",  // kind
			true,     // durable
			false,    // autoDelete
			false,    // internal
			false,    // noWait
			nil,      // args
		)
		if err != nil {
			ch.Close()
			return nil, err
		}

		if err := ch.Confirm(false); err != nil {
			ch.Close()
			return nil, err
		}

		return &amqpChannel{ch: ch, notify: ch.NotifyClose(make(chan *amqp.Error, 1))}, nil
	}
}

type rabbitMQPublisher struct {
	open           channelOpener
	exchange       string
	log            *logrus.Logger
	confirmTimeout time.Duration

	mu sync.Mutex
	ch publishChannel
}

// NewRabbitMQPublisher opens the first channel eagerly so a misconfigured broker fails startup.
// Later channels are reopened on demand after the broker closes one.
func NewRabbitMQPublisher(conn *amqp.Connection, exchange string, log *logrus.Logger) (EventPublisher, error) {
	p := newRabbitMQPublisher(amqpOpener(conn, exchange), exchange, log, confirmTimeout)
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

func newRabbitMQPublisher(open channelOpener, exchange string, log *logrus.Logger, timeout time.Duration) *rabbitMQPublisher {
	return &rabbitMQPublisher{
		open:           open,
		exchange:       exchange,
		log:            log,
		confirmTimeout: timeout,
	}
}

// channel returns the live channel, replacing one the broker has closed.
func (p *rabbitMQPublisher) channel() (publishChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		select {
		case amqpErr, ok := <-p.ch.closed():
			if ok && amqpErr != nil {
				p.log.Warnf("Event channel closed by broker: %v", amqpErr)
			}
			p.ch = nil
		default:
			return p.ch, nil
		}
	}

	ch, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("open event channel: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// discard drops ch after a failed publish so the next call reopens.
func (p *rabbitMQPublisher) discard(ch publishChannel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.ch = nil
		ch.Close()
	}
}

// Publish waits for the confirm of this message only. The wait is bounded by
// confirmTimeout rather than ctx, so a request that returns early does not
// abandon a confirm that is still in flight.
func (p *rabbitMQPublisher) Publish(ctx context.Context, event AppointmentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	confirm, err := ch.publish(p.exchange, event.Type, msg)
	if err != nil {
		p.discard(ch)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), p.confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", event.Type, err)
	}
	if !acked {
		return ErrEventNotConfirmed
	}
	return nil
}

type noopPublisher struct {
	log *logrus.Logger
}

// NewNoopPublisher is used when no broker is configured
func NewNoopPublisher(log *logrus.Logger) EventPublisher {
	return &noopPublisher{log: log}
}

func (p *noopPublisher) Publish(ctx context.Context, event AppointmentEvent) error {
	p.log.Debugf("Event %s for appointment %s not published, broker disabled", event.Type, event.AppointmentID)
	return nil
}
