package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	DefaultExchange    = "inventory"
	DefaultAlertQueue  = "inventory_low_stock_alerts"
	DefaultAlertRoute  = "stock.low"
	exchangeKindTopic  = "topic"
	contentTypeJSON    = "application/json"
	publishingAppIDTag = "inventory-service"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *zap.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	Exchange   string
	AlertQueue string
	AlertRoute string
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.AlertQueue == "" {
		c.AlertQueue = DefaultAlertQueue
	}
	if c.AlertRoute == "" {
		c.AlertRoute = DefaultAlertRoute
	}
	return c
}

// NewClient connects to RabbitMQ, declares the durable topic exchange that
// carries inventory events, and binds the low-stock alert queue to it.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("alert_queue", cfg.AlertQueue),
	)

	return &Client{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	err := ch.ExchangeDeclare(
		cfg.Exchange,      // name
		exchangeKindTopic, // kind
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	_, err = ch.QueueDeclare(
		cfg.AlertQueue, // name
		true,           // durable (persists messages across broker restarts)
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", cfg.AlertQueue, err)
	}

	if err := ch.QueueBind(cfg.AlertQueue, cfg.AlertRoute, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", cfg.AlertQueue, cfg.AlertRoute, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
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

// Publish sends payload as a persistent JSON message to the inventory
// exchange under routingKey.
func (c *Client) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(payload, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		c.cfg.Exchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.Debug("Published event", zap.String("routing_key", routingKey), zap.String("message_id", msg.MessageId))
	return nil
}

func newPublishing(payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event to JSON: %w", err)
	}
	return amqp.Publishing{
		ContentType:  contentTypeJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent, // Make message persistent
		MessageId:    uuid.NewString(),
		AppId:        publishingAppIDTag,
		Timestamp:    now.UTC(),
	}, nil
}

// LowStockAlert is the body of a stock.low event.
type LowStockAlert struct {
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}

// AlertHandler processes one low-stock alert. Returning an error requeues it.
type AlertHandler func(ctx context.Context, alert LowStockAlert) error

// ConsumeAlerts consumes the low-stock alert queue until ctx is cancelled or
// the channel closes. Malformed messages are dropped.
func (c *Client) ConsumeAlerts(ctx context.Context, handler AlertHandler) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.cfg.AlertQueue, // queue
		"",               // consumer tag
		false,            // auto-ack: messages are acked after handling
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Waiting for low stock alerts", zap.String("queue", c.cfg.AlertQueue))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("Alert delivery channel closed")
					return
				}
				c.handleDelivery(ctx, msg, handler)
			}
		}
	}()
	return nil
}

func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler AlertHandler) {
	ack, requeue := dispatchAlert(ctx, msg.Body, handler, c.logger)
	if ack {
		if err := msg.Ack(false); err != nil {
			c.logger.Error("Error acking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
		}
		return
	}
	if err := msg.Nack(false, requeue); err != nil {
		c.logger.Error("Error nacking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
	}
}

// dispatchAlert decodes body and runs handler. It reports whether to ack
// and, when not, whether to requeue.
func dispatchAlert(ctx context.Context, body []byte, handler AlertHandler, logger *zap.Logger) (ack, requeue bool) {
	var alert LowStockAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		logger.Error("Dropping malformed low stock alert", zap.ByteString("body", body), zap.Error(err))
		return false, false
	}
	if err := handler(ctx, alert); err != nil {
		logger.Warn("Low stock alert handler failed", zap.Uint("product_id", alert.ProductID), zap.Error(err))
		return false, true
	}
	return true, false
}

// LogAlert is the default AlertHandler: it records the alert in the log.
func LogAlert(logger *zap.Logger) AlertHandler {
	return func(_ context.Context, alert LowStockAlert) error {
		logger.Warn("Low stock alert",
			zap.Uint("product_id", alert.ProductID),
			zap.String("product_name", alert.ProductName),
			zap.Int("stock", alert.Stock),
			zap.Int("threshold", alert.Threshold),
		)
		return nil
	}
}
