package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/stockpilot/internal/domain"
)

const (
	salesKey   = "sales_records"
	masterKey  = "product_master"
	inboundKey = "inbound_records"
)

// RecordRepository stores the three persisted record sets on a KVStore.
type RecordRepository struct {
	store  KVStore
	prefix string
}

func NewRecordRepository(store KVStore, prefix string) *RecordRepository {
	return &RecordRepository{store: store, prefix: prefix}
}

// Key returns the namespaced store key for name.
func (r *RecordRepository) Key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

func (r *RecordRepository) LoadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	out := []domain.SalesRecord{}
	if err := r.load(ctx, salesKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecordRepository) SaveSales(ctx context.Context, records []domain.SalesRecord) error {
	return r.save(ctx, salesKey, records)
}

func (r *RecordRepository) LoadMaster(ctx context.Context) ([]domain.ProductMaster, error) {
	out := []domain.ProductMaster{}
	if err := r.load(ctx, masterKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecordRepository) SaveMaster(ctx context.Context, records []domain.ProductMaster) error {
	return r.save(ctx, masterKey, records)
}

func (r *RecordRepository) LoadInbound(ctx context.Context) ([]domain.InboundRecord, error) {
	out := []domain.InboundRecord{}
	if err := r.load(ctx, inboundKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecordRepository) SaveInbound(ctx context.Context, records []domain.InboundRecord) error {
	return r.save(ctx, inboundKey, records)
}

// Clear deletes every persisted record set.
func (r *RecordRepository) Clear(ctx context.Context) error {
	for _, name := range []string{salesKey, masterKey, inboundKey} {
		if err := r.store.Delete(ctx, r.Key(name)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}
	}
	return nil
}

func (r *RecordRepository) load(ctx context.Context, name string, dst any) error {
	raw, ok, err := r.store.Get(ctx, r.Key(name))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (r *RecordRepository) save(ctx context.Context, name string, records any) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := r.store.Set(ctx, r.Key(name), raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
