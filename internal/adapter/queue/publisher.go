package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publish outcome errors. The initiator treats all of them the same
// way (errorCode 4), they exist so logs can tell the cases apart.
var (
	ErrPublishNacked  = errors.New("message was nacked by broker")
	ErrConfirmTimeout = errors.New("publish confirmation timed out")
)

const confirmTimeout = 5 * time.Second

// Publisher sends intent payloads to the settlement queue using
// publisher confirms: a publish only counts once the broker acks it.
// One publish attempt per request, no retries.
type Publisher struct {
	ch    *amqp.Channel
	queue string
}

// Connect dials the broker and returns the connection. Lifecycle is
// owned by the caller (closed on shutdown).
func Connect(amqpURL string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to broker: %w", err)
	}
	return conn, nil
}

// NewPublisher opens a dedicated channel in confirm mode and declares
// the settlement queue as durable.
func NewPublisher(conn *amqp.Connection, queueName string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("unable to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("unable to declare queue %q: %w", queueName, err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("unable to enable confirm mode: %w", err)
	}

	return &Publisher{ch: ch, queue: queueName}, nil
}

// Publish sends one persistent message and waits for the broker's
// confirmation. Returns the message id on ack.
func (p *Publisher) Publish(ctx context.Context, body []byte) (string, error) {
	messageID := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	confirmation, err := p.ch.PublishWithDeferredConfirmWithContext(waitCtx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return "", fmt.Errorf("publish failed: %w", err)
	}

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfirmTimeout, err)
	}
	if !acked {
		return "", ErrPublishNacked
	}

	return messageID, nil
}

// Close releases the channel. The connection is closed separately by
// the owner.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
