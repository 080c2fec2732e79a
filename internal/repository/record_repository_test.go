package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewRecordRepository(store, "test")

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales, "absent key reads as empty set")

	require.NoError(t, repo.SaveSales(ctx, []domain.SalesRecord{
		{ProductID: "A", Date: "2026-01-30", SalesQty: 3},
	}))
	cost := decimal.RequireFromString("12.50")
	hq := 4
	require.NoError(t, repo.SaveMaster(ctx, []domain.ProductMaster{
		{Barcode: "0880", SkuName: "Toner", CostPrice: &cost, HQInventory: &hq},
	}))

	sales, err = repo.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 3, sales[0].SalesQty)

	masters, err := repo.LoadMaster(ctx)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, "0880", masters[0].Barcode)
	assert.True(t, cost.Equal(*masters[0].CostPrice))

	_, ok, err := store.Get(ctx, "test:sales_records")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordRepositoryClear(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(NewMemoryStore(), "")

	require.NoError(t, repo.SaveInbound(ctx, []domain.InboundRecord{{ProductName: "Toner", InboundQty: 5}}))
	require.NoError(t, repo.Clear(ctx))

	inbound, err := repo.LoadInbound(ctx)
	require.NoError(t, err)
	assert.Empty(t, inbound)
}

type failingStore struct{ MemoryStore }

func (*failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestRecordRepositoryPropagatesStoreErrors(t *testing.T) {
	repo := NewRecordRepository(&failingStore{}, "x")
	_, err := repo.LoadSales(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales_records")
}

func TestRecordRepositoryRejectsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "sales_records", []byte("{not json")))

	_, err := NewRecordRepository(store, "").LoadSales(ctx)
	assert.Error(t, err)
}
