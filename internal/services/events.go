package services

import (
	"context"

	"inventory/internal/models"

	"go.uber.org/zap"
)

// Routing keys of the events published after a commit.
const (
	EventProductCreated      = "product.created"
	EventProductUpdated      = "product.updated"
	EventTransactionRecorded = "transaction.recorded"
	EventStockAdjusted       = "stock.adjusted"
	EventStockLow            = "stock.low"
)

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// ValuationCache stores the derived inventory valuation between mutations.
// GetInventoryValue returns nil without error on a miss. Every invalidation
// advances the generation, and SetInventoryValue stores nothing unless the
// generation still equals the one read before the value was computed.
type ValuationCache interface {
	GetInventoryValue(ctx context.Context) (*models.InventoryValue, error)
	InventoryValueGeneration(ctx context.Context) (int64, error)
	SetInventoryValue(ctx context.Context, value models.InventoryValue, generation int64) error
	InvalidateInventoryValue(ctx context.Context) error
}

// LowStockEvent is published when a mutation leaves a product at or below
// the low-stock threshold.
type LowStockEvent struct {
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}

const (
	DefaultLowStockThreshold = 10
	DefaultCurrency          = "USD"
	DefaultPageSize          = 5
)

// Option configures the optional collaborators of a service.
type Option func(*options)

type options struct {
	publisher         EventPublisher
	cache             ValuationCache
	lowStockThreshold int
	currency          string
}

func buildOptions(opts []Option) options {
	o := options{
		lowStockThreshold: DefaultLowStockThreshold,
		currency:          DefaultCurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPublisher publishes events to p after each committed mutation.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithValuationCache caches the inventory valuation in c.
func WithValuationCache(c ValuationCache) Option {
	return func(o *options) { o.cache = c }
}

// WithLowStockThreshold sets the threshold used for low-stock events and as
// the default of the low-stock report.
func WithLowStockThreshold(n int) Option {
	return func(o *options) { o.lowStockThreshold = n }
}

// WithCurrency sets the currency label of the inventory valuation.
func WithCurrency(currency string) Option {
	return func(o *options) { o.currency = currency }
}

// afterCommit runs the side effects of a committed unit of work. None of
// them can fail the operation: errors are logged.
type afterCommit struct {
	options
	logger *zap.Logger
}

func (a afterCommit) publish(ctx context.Context, routingKey string, payload interface{}) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(context.WithoutCancel(ctx), routingKey, payload); err != nil {
		a.logger.Warn("Failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func (a afterCommit) invalidateValuation(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.InvalidateInventoryValue(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("Failed to invalidate inventory value cache", zap.Error(err))
	}
}

// checkLowStock publishes a LowStockEvent when stock fell to or below the
// threshold. Increases never alert.
func (a afterCommit) checkLowStock(ctx context.Context, product models.Product, previousStock, newStock int) {
	if newStock > a.lowStockThreshold || newStock >= previousStock {
		return
	}
	a.logger.Info("Product stock is low",
		zap.Uint("product_id", product.ID),
		zap.String("product_name", product.Name),
		zap.Int("stock", newStock),
		zap.Int("threshold", a.lowStockThreshold),
	)
	a.publish(ctx, EventStockLow, LowStockEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		Stock:       newStock,
		Threshold:   a.lowStockThreshold,
	})
}
