// Package referral tracks cross-facility referral records.
package referral

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusAccepted:  true,
	StatusCompleted: true,
	StatusRejected:  true,
}

var ErrNotFound = fmt.Errorf("referral not found")

type Referral struct {
	ID           uuid.UUID `json:"id"`
	UHID         string    `json:"uhid"`
	PatientName  string    `json:"patient_name"`
	FromFacility string    `json:"from_facility"`
	ToFacility   string    `json:"to_facility"`
	Department   string    `json:"department,omitempty"`
	Reason       string    `json:"reason"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Service struct {
	mu        sync.RWMutex
	store     *kvstore.Store
	referrals []*Referral
}

func NewService(store *kvstore.Store) (*Service, error) {
	s := &Service{store: store}
	if _, err := store.GetJSON(kvstore.KeyReferrals, &s.referrals); err != nil {
		return nil, fmt.Errorf("load referrals: %w", err)
	}
	return s, nil
}

func (s *Service) persist() error {
	return s.store.PutJSON(kvstore.KeyReferrals, s.referrals)
}

func (s *Service) Create(ctx context.Context, r *Referral) (*Referral, error) {
	if r.PatientName == "" || r.ToFacility == "" {
		return nil, fmt.Errorf("patient name and target facility are required")
	}
	if r.Reason == "" {
		return nil, fmt.Errorf("referral reason is required")
	}
	r.ID = uuid.New()
	r.Status = StatusPending
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.referrals = append([]*Referral{r}, s.referrals...)
	if err := s.persist(); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.referrals {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Referral, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid referral status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.referrals {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = time.Now().UTC()
			if err := s.persist(); err != nil {
				return nil, err
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns referrals newest first, optionally narrowed by status.
func (s *Service) List(ctx context.Context, status Status) []*Referral {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Referral, 0, len(s.referrals))
	for _, r := range s.referrals {
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.referrals {
		if r.ID == id {
			s.referrals = append(s.referrals[:i], s.referrals[i+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
