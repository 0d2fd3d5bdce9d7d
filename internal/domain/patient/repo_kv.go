package patient

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

// repoKV keeps the patient registry in memory and writes the whole
// collection through to the key-value store on every mutation.
type repoKV struct {
	mu       sync.RWMutex
	store    *kvstore.Store
	patients []*Patient
}

func NewKVRepo(store *kvstore.Store) (Repository, error) {
	r := &repoKV{store: store}
	if _, err := store.GetJSON(kvstore.KeyPatients, &r.patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return r, nil
}

func (r *repoKV) persist() error {
	return r.store.PutJSON(kvstore.KeyPatients, r.patients)
}

func clonePatient(p *Patient) *Patient {
	cp := *p
	cp.Ward = clonePtr(p.Ward)
	cp.BedNumber = clonePtr(p.BedNumber)
	cp.Department = clonePtr(p.Department)
	cp.AdmissionType = clonePtr(p.AdmissionType)
	cp.LegalStatus = clonePtr(p.LegalStatus)
	if p.BedID != nil {
		id := *p.BedID
		cp.BedID = &id
	}
	if p.AdmissionDate != nil {
		t := *p.AdmissionDate
		cp.AdmissionDate = &t
	}
	return &cp
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *repoKV) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// newest first
	r.patients = append([]*Patient{clonePatient(p)}, r.patients...)
	return r.persist()
}

func (r *repoKV) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.ID == id {
			return clonePatient(p), nil
		}
	}
	return nil, fmt.Errorf("patient %s not found", id)
}

func (r *repoKV) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.UHID == uhid {
			return clonePatient(p), nil
		}
	}
	return nil, fmt.Errorf("patient uhid %s not found", uhid)
}

func (r *repoKV) Update(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.patients {
		if existing.ID == p.ID {
			r.patients[i] = clonePatient(p)
			return r.persist()
		}
	}
	return fmt.Errorf("patient %s not found", p.ID)
}

func (r *repoKV) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.patients {
		if p.ID == id {
			r.patients = append(r.patients[:i], r.patients[i+1:]...)
			return r.persist()
		}
	}
	return fmt.Errorf("patient %s not found", id)
}

func (r *repoKV) List(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, len(r.patients))
	for i, p := range r.patients {
		out[i] = clonePatient(p)
	}
	return out, nil
}

func (r *repoKV) NextUHIDSeq(ctx context.Context) (uint64, error) {
	return r.store.NextSeq("uhid")
}
