package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
)

// DefaultRoutingKey is used when none is configured.
const DefaultRoutingKey = "msgcore.retry"

// LogNotifier logs every hint at Warn.
type LogNotifier struct {
	Log logrus.FieldLogger
}

// NotifyRetry implements domain.RetryNotifier.
func (n LogNotifier) NotifyRetry(_ context.Context, hint domain.RetryHint) error {
	log := n.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"retry_id":             hint.ID,
		"id":                   hint.Key.ID,
		"chat":                 hint.Key.RemoteJID,
		"participant":          hint.Key.Participant,
		"retry_count":          hint.RetryCount,
		"session_record_error": hint.SessionRecordError,
		"error":                hint.Error,
	}).Warn("retry: message needs resend")
	return nil
}

// Confirmation is a pending broker acknowledgement.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Publisher publishes one message and returns its pending confirmation.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp091.Publishing) (Confirmation, error)
}

// ChannelPublisher publishes on a channel that is in confirm mode.
type ChannelPublisher struct {
	Ch *amqp091.Channel
}

// Publish implements Publisher.
func (p ChannelPublisher) Publish(ctx context.Context, exchange, key string, msg amqp091.Publishing) (Confirmation, error) {
	dc, err := p.Ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, ErrNoConfirm
	}
	return dc, nil
}

var (
	// ErrNacked is returned when the broker refuses a hint.
	ErrNacked = errors.New("retry: broker nacked hint")
	// ErrNoConfirm is returned when the channel is not in confirm mode.
	ErrNoConfirm = errors.New("retry: channel not in confirm mode")
)

// ConfirmTimeout bounds the wait for a broker acknowledgement.
const ConfirmTimeout = 5 * time.Second

// AMQPNotifier publishes hints to an exchange.
type AMQPNotifier struct {
	pub        Publisher
	exchange   string
	routingKey string
	log        logrus.FieldLogger
	closer     func() error
}

// NewAMQPNotifier publishes through pub. An empty routingKey uses
// DefaultRoutingKey.
func NewAMQPNotifier(pub Publisher, exchange, routingKey string, log logrus.FieldLogger) *AMQPNotifier {
	if routingKey == "" {
		routingKey = DefaultRoutingKey
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AMQPNotifier{pub: pub, exchange: exchange, routingKey: routingKey, log: log}
}

// DialAMQP connects to url, declares exchange as a durable topic exchange,
// puts the channel in confirm mode and returns a notifier that owns the
// connection.
func DialAMQP(url, exchange, routingKey string, log logrus.FieldLogger) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, err
	}
	n := NewAMQPNotifier(ChannelPublisher{Ch: ch}, exchange, routingKey, log)
	n.closer = func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return n, nil
}

// NotifyRetry implements domain.RetryNotifier.
func (n *AMQPNotifier) NotifyRetry(ctx context.Context, hint domain.RetryHint) error {
	body, err := json.Marshal(hint)
	if err != nil {
		return err
	}
	conf, err := n.pub.Publish(ctx, n.exchange, n.routingKey, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     hint.ID,
		CorrelationId: hint.Key.ID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ConfirmTimeout)
	defer cancel()
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("retry: waiting for confirm of %s: %w", hint.ID, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNacked, hint.ID)
	}
	n.log.WithFields(logrus.Fields{
		"retry_id": hint.ID,
		"exchange": n.exchange,
		"key":      n.routingKey,
	}).Debug("retry: published hint, broker confirmed")
	return nil
}

// Close releases the connection opened by DialAMQP. It is a no-op for
// notifiers built with NewAMQPNotifier.
func (n *AMQPNotifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}

var (
	_ domain.RetryNotifier = LogNotifier{}
	_ domain.RetryNotifier = (*AMQPNotifier)(nil)
)
