package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

// repoKV keeps the ledger in memory and writes the whole collection through
// to the key-value store on every mutation.
type repoKV struct {
	mu       sync.RWMutex
	store    *kvstore.Store
	invoices []*Invoice
}

func NewKVRepo(store *kvstore.Store) (Repository, error) {
	r := &repoKV{store: store}
	if _, err := store.GetJSON(kvstore.KeyInvoices, &r.invoices); err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return r, nil
}

func (r *repoKV) persist() error {
	return r.store.PutJSON(kvstore.KeyInvoices, r.invoices)
}

func cloneInvoice(inv *Invoice) *Invoice {
	cp := *inv
	if inv.Items != nil {
		cp.Items = make([]LineItem, len(inv.Items))
		copy(cp.Items, inv.Items)
	}
	if inv.Breakdown != nil {
		cp.Breakdown = make(map[string]float64, len(inv.Breakdown))
		for k, v := range inv.Breakdown {
			cp.Breakdown[k] = v
		}
	}
	return &cp
}

func (r *repoKV) Create(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// newest first
	r.invoices = append([]*Invoice{cloneInvoice(inv)}, r.invoices...)
	return r.persist()
}

func (r *repoKV) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			return cloneInvoice(inv), nil
		}
	}
	return nil, fmt.Errorf("invoice %s not found", id)
}

func (r *repoKV) Update(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.invoices {
		if existing.ID == inv.ID {
			r.invoices[i] = cloneInvoice(inv)
			return r.persist()
		}
	}
	return fmt.Errorf("invoice %s not found", inv.ID)
}

func (r *repoKV) List(ctx context.Context) ([]*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Invoice, len(r.invoices))
	for i, inv := range r.invoices {
		out[i] = cloneInvoice(inv)
	}
	return out, nil
}

func (r *repoKV) NextInvoiceSeq(ctx context.Context) (uint64, error) {
	return r.store.NextSeq("invoice")
}
