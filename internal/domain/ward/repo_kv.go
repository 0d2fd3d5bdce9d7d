package ward

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

// repoKV keeps the ward collection in memory and writes the whole collection
// through to the snapshot store after every mutation. Reads hand out copies
// so callers can stage changes and commit them with Replace.
type repoKV struct {
	mu    sync.RWMutex
	store *kvstore.Store
	wards []*Ward
}

func NewKVRepo(store *kvstore.Store) (Repository, error) {
	r := &repoKV{store: store}
	if _, err := store.GetJSON(kvstore.KeyWards, &r.wards); err != nil {
		return nil, fmt.Errorf("load wards: %w", err)
	}
	return r, nil
}

func (r *repoKV) Create(_ context.Context, w *Ward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	for i := range w.Beds {
		if w.Beds[i].ID == uuid.Nil {
			w.Beds[i].ID = uuid.New()
		}
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	r.wards = append(r.wards, cloneWard(w))
	return r.persist()
}

func (r *repoKV) GetByID(_ context.Context, id uuid.UUID) (*Ward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.wards {
		if w.ID == id {
			return cloneWard(w), nil
		}
	}
	return nil, fmt.Errorf("ward %s not found", id)
}

func (r *repoKV) List(_ context.Context) ([]*Ward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Ward, len(r.wards))
	for i, w := range r.wards {
		out[i] = cloneWard(w)
	}
	return out, nil
}

func (r *repoKV) Replace(_ context.Context, w *Ward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.wards {
		if existing.ID == w.ID {
			r.wards[i] = cloneWard(w)
			return r.persist()
		}
	}
	return fmt.Errorf("ward %s not found", w.ID)
}

func (r *repoKV) persist() error {
	return r.store.PutJSON(kvstore.KeyWards, r.wards)
}

func cloneWard(w *Ward) *Ward {
	cp := *w
	cp.Beds = make([]Bed, len(w.Beds))
	for i, b := range w.Beds {
		cp.Beds[i] = b
		if b.PatientID != nil {
			pid := *b.PatientID
			cp.Beds[i].PatientID = &pid
		}
	}
	return &cp
}
