package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	// Exchange is the topic exchange order events are published to.
	Exchange = "order_events"
	// Queue is the durable queue bound to every order event.
	Queue = "order_queue"
)

// Routing keys of order events.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderRiderAssigned = "order.rider_assigned"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	Restaurant int64     `json:"restaurant"`
	Customer   int64     `json:"customer"`
	Rider      *int64    `json:"rider,omitempty"`
	Status     string    `json:"status"`
	Previous   string    `json:"previous_status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Channel is the subset of *amqp.Channel used by Client.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	logger  *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the order topology.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := NewClientWithChannel(ch, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel declares the order topology on ch and wraps it.
func NewClientWithChannel(ch Channel, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare %s exchange: %w", Exchange, err)
	}
	if _, err := ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", Queue, err)
	}
	if err := ch.QueueBind(Queue, "order.#", Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", Queue, err)
	}
	logger.Info("RabbitMQ order topology declared", zap.String("exchange", Exchange), zap.String("queue", Queue))
	return &Client{channel: ch, logger: logger}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishOrderEvent publishes ev as persistent JSON, routed by its type.
func (c *Client) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = c.channel.Publish(Exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}

	c.logger.Debug("order event published", zap.String("type", ev.Type), zap.Int64("order_id", ev.OrderID))
	return nil
}

// ConsumeOrderEvents delivers decoded events to handler until the delivery
// channel closes. Successful deliveries are acked; handler errors requeue the
// message and undecodable messages are dropped.
func (c *Client) ConsumeOrderEvents(handler func(OrderEvent) error) error {
	msgs, err := c.channel.Consume(Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.logger.Info("order event consumer stopped")
	}()
	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(OrderEvent) error) {
	var ev OrderEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		c.logger.Warn("dropping undecodable order event", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Warn("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}
	if err := handler(ev); err != nil {
		c.logger.Warn("order event handler failed, requeueing", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Warn("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Warn("failed to ack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(ackErr))
	}
}
