package pharmacy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

type repoKV struct {
	mu    sync.RWMutex
	store *kvstore.Store
	items []*StockItem
}

func NewKVRepo(store *kvstore.Store) (Repository, error) {
	r := &repoKV{store: store}
	if _, err := store.GetJSON(kvstore.KeyPharmacy, &r.items); err != nil {
		return nil, fmt.Errorf("load pharmacy inventory: %w", err)
	}
	return r, nil
}

func (r *repoKV) persist() error {
	return r.store.PutJSON(kvstore.KeyPharmacy, r.items)
}

func (r *repoKV) Create(_ context.Context, item *StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items = append(r.items, &cp)
	return r.persist()
}

func (r *repoKV) GetByID(_ context.Context, id uuid.UUID) (*StockItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("stock item %s not found", id)
}

func (r *repoKV) Update(_ context.Context, item *StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.items {
		if existing.ID == item.ID {
			cp := *item
			r.items[i] = &cp
			return r.persist()
		}
	}
	return fmt.Errorf("stock item %s not found", item.ID)
}

func (r *repoKV) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return r.persist()
		}
	}
	return fmt.Errorf("stock item %s not found", id)
}

func (r *repoKV) List(_ context.Context) ([]*StockItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*StockItem, len(r.items))
	for i, item := range r.items {
		cp := *item
		out[i] = &cp
	}
	return out, nil
}
