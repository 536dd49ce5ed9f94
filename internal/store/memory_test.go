package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/paccofacile/internal/config"
	"github.com/tournevent/paccofacile/internal/store"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

func TestMemoryStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, ok, err := s.GetSetting(ctx, "autoPayment")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSetting(ctx, "autoPayment", "true"))
	require.NoError(t, s.SetSetting(ctx, "autoPayment", "false"))

	v, ok, err := s.GetSetting(ctx, "autoPayment")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)

	all, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"autoPayment": "false"}, all)
}

func TestMemoryStore_Fulfillments(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetFulfillment(ctx, "ful_1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	record := &fulfillment.Record{
		ID:         "ful_1",
		OrderID:    "order_1",
		ProviderID: "paccofacile",
		Data:       fulfillment.Data{"shipment_id": int64(42)},
	}
	require.NoError(t, s.SaveFulfillment(ctx, record))
	record.Data["mutated"] = true

	got, err := s.GetFulfillment(ctx, "ful_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", got.OrderID)
	assert.NotContains(t, got.Data, "mutated")

	id, ok := got.Data.ShipmentID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestMemoryStore_ShippingMethodData(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetShippingMethodData(ctx, "order_1", "sm_1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveShippingMethodData(ctx, "order_1", "sm_1", map[string]any{"service_id": 2}))

	data, err := s.GetShippingMethodData(ctx, "order_1", "sm_1")
	require.NoError(t, err)
	assert.Equal(t, float64(2), data["service_id"])

	_, err = s.GetShippingMethodData(ctx, "order_2", "sm_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpen_Memory(t *testing.T) {
	s, err := store.Open(context.Background(), &config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestOpen_Unknown(t *testing.T) {
	_, err := store.Open(context.Background(), &config.Config{StoreDriver: "mongo"})
	assert.Error(t, err)
}
