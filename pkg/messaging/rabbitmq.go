package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/medflow/medflow-idscan/pkg/config"
	"github.com/medflow/medflow-idscan/pkg/logger"
)

// retryExchange routes rejected deliveries to the delay queue of their work queue
const retryExchange = "idscan.retry"

// RetryQueue is where rejected deliveries of queue wait before going back
func RetryQueue(queue string) string { return queue + ".retry" }

// ParkingQueue holds deliveries that exhausted their retries or could not be decoded
func ParkingQueue(queue string) string { return queue + ".parked" }

// RabbitMQ owns the connection and channel shared by a service's publisher and consumers
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	name    string
	logger  *logger.Logger
	mu      sync.RWMutex
	closed  bool
}

// New dials RabbitMQ. name is shown as the connection name in the broker UI.
func New(cfg *config.RabbitMQConfig, name string, log *logger.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
		name:   name,
		logger: log.WithComponent("rabbitmq"),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(r.name)

	conn, err := amqp.DialConfig(r.config.URL, amqp.Config{
		Properties: props,
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	r.conn, r.channel = conn, ch
	r.logger.Info().Str("connection", r.name).Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Publish sends one message on the current channel
func (r *RabbitMQ) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	ch := r.Channel()
	if ch == nil {
		return errors.New("rabbitmq channel not open")
	}
	return ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

// Close closes the channel and the connection. A closed RabbitMQ never reconnects.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports "up" or "down" for the /health endpoint
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// DeclareWorkQueue declares queue together with its retry and parking queues.
//
// A delivery rejected on queue is dead-lettered through the retry exchange
// into the retry queue, waits there for RetryDelay and is dead-lettered back
// to queue by the default exchange. Each round trip adds to the x-death count.
func (r *RabbitMQ) DeclareWorkQueue(queue string) error {
	ch := r.Channel()

	if err := ch.ExchangeDeclare(retryExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare retry exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    retryExchange,
		"x-dead-letter-routing-key": queue,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	retry := RetryQueue(queue)
	if _, err := ch.QueueDeclare(retry, true, false, false, false, amqp.Table{
		"x-message-ttl":             r.config.RetryDelay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", retry, err)
	}
	if err := ch.QueueBind(retry, queue, retryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", retry, err)
	}

	if _, err := ch.QueueDeclare(ParkingQueue(queue), true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", ParkingQueue(queue), err)
	}

	return nil
}

// BindQueue binds a queue to an exchange with a routing key pattern
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

// Reconnect dials again, waiting ReconnectDelay between attempts
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("connection is permanently closed")
	}

	for i := 0; i < r.config.MaxRetries; i++ {
		r.logger.Info().Int("attempt", i+1).Msg("attempting to reconnect to RabbitMQ")

		err := r.connect()
		if err == nil {
			return nil
		}
		r.logger.Warn().Err(err).Msg("reconnection attempt failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.ReconnectDelay):
		}
	}

	return fmt.Errorf("failed to reconnect after %d attempts", r.config.MaxRetries)
}
