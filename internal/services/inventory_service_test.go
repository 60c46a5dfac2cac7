package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inventory/internal/models"
	"inventory/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sale(productID uint, qty int, userID uint) models.RecordTransactionInput {
	return models.RecordTransactionInput{
		ProductID: &productID,
		Quantity:  &qty,
		Type:      ptr(models.TransactionSale),
		UserID:    &userID,
	}
}

func purchase(productID uint, qty int, userID uint) models.RecordTransactionInput {
	in := sale(productID, qty, userID)
	in.Type = ptr(models.TransactionPurchase)
	return in
}

func TestInventoryService_RecordTransaction_Sale(t *testing.T) {
	store, user := newTestStore(t)
	publisher := &fakePublisher{}
	service := services.NewInventoryService(store, zap.NewNop(), services.WithPublisher(publisher))
	widget := seedProduct(t, store, "Widget", "10", 5)

	result, err := service.RecordTransaction(context.Background(), sale(widget.ID, 3, user.ID))
	require.NoError(t, err)
	assert.NotZero(t, result.ID)
	assert.Equal(t, "Widget", result.ProductName)
	assert.Equal(t, 5, result.PreviousStock)
	assert.Equal(t, 2, result.NewStock)
	assert.Equal(t, models.TransactionSale, result.Type)
	assert.False(t, result.TransactionDate.IsZero())
	assert.Equal(t, 2, stockOf(t, store, widget.ID))

	assert.Equal(t, []string{services.EventTransactionRecorded, services.EventStockLow}, publisher.keys())
	payload, ok := publisher.last(services.EventStockLow)
	require.True(t, ok)
	assert.Equal(t, services.LowStockEvent{ProductID: widget.ID, ProductName: "Widget", Stock: 2, Threshold: 10}, payload)
}

func TestInventoryService_RecordTransaction_InsufficientStock(t *testing.T) {
	store, user := newTestStore(t)
	publisher := &fakePublisher{}
	service := services.NewInventoryService(store, zap.NewNop(), services.WithPublisher(publisher))
	widget := seedProduct(t, store, "Widget", "10", 2)
	ctx := context.Background()

	_, err := service.RecordTransaction(ctx, sale(widget.ID, 10, user.ID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrInsufficientStock))

	var ise *services.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Widget", ise.ProductName)
	assert.Equal(t, 10, ise.Requested)
	assert.Equal(t, 2, ise.Available)

	assert.Equal(t, 2, stockOf(t, store, widget.ID))
	history, err := service.GetProductHistory(ctx, widget.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, publisher.keys())
}

func TestInventoryService_RecordTransaction_SellEverything(t *testing.T) {
	store, user := newTestStore(t)
	service := services.NewInventoryService(store, zap.NewNop())
	widget := seedProduct(t, store, "Widget", "10", 4)

	result, err := service.RecordTransaction(context.Background(), sale(widget.ID, 4, user.ID))
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewStock)
	assert.Equal(t, 0, stockOf(t, store, widget.ID))
}

func TestInventoryService_RecordTransaction_Purchase(t *testing.T) {
	store, user := newTestStore(t)
	publisher := &fakePublisher{}
	service := services.NewInventoryService(store, zap.NewNop(), services.WithPublisher(publisher))
	widget := seedProduct(t, store, "Widget", "10", 2)

	result, err := service.RecordTransaction(context.Background(), purchase(widget.ID, 7, user.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, result.PreviousStock)
	assert.Equal(t, 9, result.NewStock)
	assert.Equal(t, 9, stockOf(t, store, widget.ID))
	// A purchase never raises a low-stock alert, even below the threshold.
	assert.Equal(t, []string{services.EventTransactionRecorded}, publisher.keys())
}

func TestInventoryService_RecordTransaction_Validation(t *testing.T) {
	store, user := newTestStore(t)
	service := services.NewInventoryService(store, zap.NewNop())
	widget := seedProduct(t, store, "Widget", "10", 5)

	tests := []struct {
		name       string
		in         models.RecordTransactionInput
		wantFields []string
	}{
		{"everything missing", models.RecordTransactionInput{}, []string{"productId", "quantity", "type", "userId"}},
		{"zero quantity", sale(widget.ID, 0, user.ID), []string{"quantity"}},
		{"negative quantity", sale(widget.ID, -3, user.ID), []string{"quantity"}},
		{"unknown type", func() models.RecordTransactionInput {
			in := sale(widget.ID, 1, user.ID)
			in.Type = ptr(models.TransactionType("refund"))
			return in
		}(), []string{"type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.RecordTransaction(context.Background(), tt.in)
			require.Error(t, err)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
	assert.Equal(t, 5, stockOf(t, store, widget.ID))
}

func TestInventoryService_RecordTransaction_UnknownProduct(t *testing.T) {
	store, user := newTestStore(t)
	service := services.NewInventoryService(store, zap.NewNop())

	_, err := service.RecordTransaction(context.Background(), purchase(404, 1, user.ID))
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestInventoryService_RecordTransaction_ConcurrentSales(t *testing.T) {
	store, user := newTestStore(t)
	service := services.NewInventoryService(store, zap.NewNop())
	widget := seedProduct(t, store, "Widget", "10", 5)

	const buyers = 10
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		committed    int
		insufficient int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.RecordTransaction(context.Background(), sale(widget.ID, 1, user.ID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, services.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, committed)
	assert.Equal(t, 5, insufficient)
	assert.Equal(t, 0, stockOf(t, store, widget.ID))

	history, err := service.GetProductHistory(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestInventoryService_GetProductHistory(t *testing.T) {
	store, user := newTestStore(t)
	service := services.NewInventoryService(store, zap.NewNop())
	widget := seedProduct(t, store, "Widget", "10", 10)
	ctx := context.Background()

	_, err := service.RecordTransaction(ctx, purchase(widget.ID, 5, user.ID))
	require.NoError(t, err)
	_, err = service.RecordTransaction(ctx, sale(widget.ID, 3, user.ID))
	require.NoError(t, err)

	history, err := service.GetProductHistory(ctx, widget.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionSale, history[0].Type)
	assert.Equal(t, models.TransactionPurchase, history[1].Type)
	assert.False(t, history[0].TransactionDate.Before(history[1].TransactionDate))
	assert.Equal(t, "Widget", history[0].ProductName)
	assert.Equal(t, "Test Clerk", history[0].UserName)

	empty, err := service.GetProductHistory(ctx, 9999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestInventoryService_AdjustStock(t *testing.T) {
	store, _ := newTestStore(t)
	publisher := &fakePublisher{}
	service := services.NewInventoryService(store, zap.NewNop(), services.WithPublisher(publisher))
	ctx := context.Background()

	t.Run("purchase adds stock without a ledger entry", func(t *testing.T) {
		widget := seedProduct(t, store, "Bolt", "0.10", 5)
		adj, err := service.AdjustStock(ctx, widget.ID, 20, models.TransactionPurchase)
		require.NoError(t, err)
		assert.Equal(t, 5, adj.PreviousStock)
		assert.Equal(t, 25, adj.NewStock)
		assert.Equal(t, 25, stockOf(t, store, widget.ID))

		history, err := service.GetProductHistory(ctx, widget.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("sale is not checked against stock on hand", func(t *testing.T) {
		widget := seedProduct(t, store, "Nut", "0.05", 2)
		adj, err := service.AdjustStock(ctx, widget.ID, 5, models.TransactionSale)
		require.NoError(t, err)
		assert.Equal(t, -3, adj.NewStock)
		assert.Equal(t, -3, stockOf(t, store, widget.ID))
	})

	t.Run("negative sale quantity is rejected", func(t *testing.T) {
		widget := seedProduct(t, store, "Washer", "0.01", 2)
		_, err := service.AdjustStock(ctx, widget.ID, -1, models.TransactionSale)
		assert.True(t, errors.Is(err, services.ErrValidation))
		assert.Equal(t, 2, stockOf(t, store, widget.ID))
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := service.AdjustStock(ctx, 1, 1, models.TransactionType("gift"))
		assert.True(t, errors.Is(err, services.ErrValidation))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := service.AdjustStock(ctx, 4242, 1, models.TransactionPurchase)
		assert.True(t, errors.Is(err, services.ErrNotFound))
	})

	assert.Contains(t, publisher.keys(), services.EventStockAdjusted)
}

func TestInventoryService_PublishFailureDoesNotFailOperation(t *testing.T) {
	store, user := newTestStore(t)
	publisher := &fakePublisher{err: errors.New("broker down")}
	cache := &fakeCache{}
	service := services.NewInventoryService(store, zap.NewNop(),
		services.WithPublisher(publisher),
		services.WithValuationCache(cache),
	)
	widget := seedProduct(t, store, "Widget", "10", 50)

	_, err := service.RecordTransaction(context.Background(), sale(widget.ID, 1, user.ID))
	require.NoError(t, err)
	assert.Equal(t, 49, stockOf(t, store, widget.ID))
	assert.Equal(t, 1, cache.invalidated)
}
