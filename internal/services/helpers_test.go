package services_test

import (
	"context"
	"sync"
	"testing"

	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/models"
	"inventory/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestStore returns a migrated in-memory SQLite store with the default
// categories and one user (returned) already present.
func newTestStore(t *testing.T) (*repositories.GORMStore, *models.User) {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	store := repositories.NewGORMStore(db)
	require.NoError(t, database.Seed(context.Background(), store))

	user := &models.User{Name: "Test Clerk", Username: "clerk", Email: "clerk@example.com", Password: "x"}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return store, user
}

func categoryID(t *testing.T, store repositories.Store, name string) uint {
	t.Helper()
	categories, err := store.Categories().List(context.Background())
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not seeded", name)
	return 0
}

// seedProduct inserts a product straight through the repository.
func seedProduct(t *testing.T, store repositories.Store, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: categoryID(t, store, "Electronics"),
	}
	require.NoError(t, store.Products().Create(context.Background(), product))
	return product
}

func stockOf(t *testing.T, store repositories.Store, id uint) int {
	t.Helper()
	product, err := store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func ptr[T any](v T) *T { return &v }

type publishedEvent struct {
	RoutingKey string
	Payload    interface{}
}

// fakePublisher records every published event.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return p.err
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

func (p *fakePublisher) last(routingKey string) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].RoutingKey == routingKey {
			return p.events[i].Payload, true
		}
	}
	return nil, false
}

// fakeCache is an in-memory ValuationCache. onGeneration, when set, runs
// after each generation read, between the read and the valuation query.
type fakeCache struct {
	mu           sync.Mutex
	value        *models.InventoryValue
	generation   int64
	gets         int
	invalidated  int
	onGeneration func()
}

func (c *fakeCache) GetInventoryValue(context.Context) (*models.InventoryValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.value == nil {
		return nil, nil
	}
	v := *c.value
	return &v, nil
}

func (c *fakeCache) InventoryValueGeneration(context.Context) (int64, error) {
	c.mu.Lock()
	generation, hook := c.generation, c.onGeneration
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return generation, nil
}

func (c *fakeCache) SetInventoryValue(_ context.Context, value models.InventoryValue, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.value = &value
	return nil
}

func (c *fakeCache) InvalidateInventoryValue(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.generation++
	c.invalidated++
	return nil
}
