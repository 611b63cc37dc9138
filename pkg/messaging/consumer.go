package messaging

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/medflow/medflow-idscan/pkg/logger"
)

const defaultMaxDeliveries = 3

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer handles consuming events from one work queue
type Consumer struct {
	rmq           *RabbitMQ
	queueName     string
	handlers      map[string]MessageHandler
	maxDeliveries int
	park          func(ctx context.Context, msg amqp.Delivery, reason string) error
	logger        *logger.Logger
}

// NewConsumer declares queueName with its retry and parking queues
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if err := rmq.DeclareWorkQueue(queueName); err != nil {
		return nil, err
	}

	c := &Consumer{
		rmq:           rmq,
		queueName:     queueName,
		handlers:      make(map[string]MessageHandler),
		maxDeliveries: rmq.config.MaxDeliveries,
		logger:        log,
	}
	if c.maxDeliveries <= 0 {
		c.maxDeliveries = defaultMaxDeliveries
	}
	c.park = c.publishToParking
	return c, nil
}

// Subscribe subscribes to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	// Declare the exchange first
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Bind the queue to the exchange
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")

	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start starts consuming messages from the queue.
// A closed delivery channel triggers a reconnect.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.consume()
	if err != nil {
		return err
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go c.loop(ctx, msgs)

	return nil
}

func (c *Consumer) consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.rmq.Channel().Consume(
		c.queueName, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return msgs, nil
}

func (c *Consumer) loop(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn().Str("queue", c.queueName).Msg("message channel closed, reconnecting")
				if err := c.rmq.Reconnect(ctx); err != nil {
					c.logger.Error().Err(err).Str("queue", c.queueName).Msg("consumer gave up")
					return
				}
				next, err := c.consume()
				if err != nil {
					c.logger.Error().Err(err).Str("queue", c.queueName).Msg("consumer gave up")
					return
				}
				msgs = next
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Str("queue", c.queueName).Msg("failed to unmarshal event")
		c.deadLetter(ctx, msg, "malformed event")
		return
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().
			Str("event_type", event.Type).
			Msg("no handler registered for event type")
		msg.Ack(false)
		return
	}

	c.logger.Debug().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Str("correlation_id", event.CorrelationID).
		Msg("processing event")

	if err := handler(ctx, &event); err != nil {
		retries := retryCount(msg, c.queueName)
		c.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Int("retry_count", retries).
			Msg("failed to process event")

		if retries+1 >= c.maxDeliveries {
			c.deadLetter(ctx, msg, "max deliveries exceeded")
			return
		}

		// goes to the retry queue and comes back after the retry delay
		msg.Reject(false)
		return
	}

	msg.Ack(false)
}

// deadLetter moves msg to the parking queue. If parking fails the delivery is
// requeued so it is not lost.
func (c *Consumer) deadLetter(ctx context.Context, msg amqp.Delivery, reason string) {
	if err := c.park(ctx, msg, reason); err != nil {
		c.logger.Error().Err(err).Str("queue", c.queueName).Msg("failed to park message")
		msg.Nack(false, true)
		return
	}

	c.logger.Warn().
		Str("queue", ParkingQueue(c.queueName)).
		Str("message_id", msg.MessageId).
		Str("reason", reason).
		Msg("message parked")
	msg.Ack(false)
}

func (c *Consumer) publishToParking(ctx context.Context, msg amqp.Delivery, reason string) error {
	headers := amqp.Table{"x-parked-reason": reason}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return c.rmq.Publish(ctx, "", ParkingQueue(c.queueName), amqp.Publishing{
		ContentType:   msg.ContentType,
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.MessageId,
		CorrelationId: msg.CorrelationId,
		Type:          msg.Type,
		Headers:       headers,
		Body:          msg.Body,
	})
}

// retryCount reads how often msg was rejected from queue, from the broker's x-death header
func retryCount(msg amqp.Delivery, queue string) int {
	deaths, ok := msg.Headers["x-death"].([]interface{})
	if !ok {
		return 0
	}

	for _, death := range deaths {
		d, ok := death.(amqp.Table)
		if !ok {
			continue
		}
		if q, ok := d["queue"].(string); ok && q != queue {
			continue
		}
		if count, ok := d["count"].(int64); ok {
			return int(count)
		}
	}

	return 0
}
