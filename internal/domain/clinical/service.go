package clinical

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

var (
	ErrOrderNotFound   = fmt.Errorf("lab order not found")
	ErrTheatreConflict = fmt.Errorf("theatre already booked for that window")
)

// Service keeps the clinical working collections: lab orders, ward rounds
// and the OT schedule. Each collection lives under its own store key.
type Service struct {
	mu    sync.RWMutex
	store *kvstore.Store

	orders   []*LabOrder
	rounds   []*Round
	schedule []*OTBooking
}

func NewService(store *kvstore.Store) (*Service, error) {
	s := &Service{store: store}
	if _, err := store.GetJSON(kvstore.KeyLabOrders, &s.orders); err != nil {
		return nil, fmt.Errorf("load lab orders: %w", err)
	}
	if _, err := store.GetJSON(kvstore.KeyRounds, &s.rounds); err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	if _, err := store.GetJSON(kvstore.KeyOTSchedule, &s.schedule); err != nil {
		return nil, fmt.Errorf("load ot schedule: %w", err)
	}
	return s, nil
}

// OrderLab files a new lab order for a patient.
func (s *Service) OrderLab(ctx context.Context, uhid, test, orderedBy string) (*LabOrder, error) {
	if uhid == "" || test == "" {
		return nil, fmt.Errorf("uhid and test are required")
	}
	now := time.Now().UTC()
	order := &LabOrder{
		ID:        uuid.New(),
		UHID:      uhid,
		Test:      test,
		Status:    LabOrdered,
		OrderedBy: orderedBy,
		OrderedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]*LabOrder{order}, s.orders...)
	if err := s.store.PutJSON(kvstore.KeyLabOrders, s.orders); err != nil {
		return nil, err
	}
	cp := *order
	return &cp, nil
}

// SetLabStatus moves an order through its lifecycle and records the result
// text when completing.
func (s *Service) SetLabStatus(ctx context.Context, id uuid.UUID, status LabOrderStatus, result string) (*LabOrder, error) {
	if !validLabStatuses[status] {
		return nil, fmt.Errorf("invalid lab order status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			o.Status = status
			if result != "" {
				o.Result = result
			}
			o.UpdatedAt = time.Now().UTC()
			if err := s.store.PutJSON(kvstore.KeyLabOrders, s.orders); err != nil {
				return nil, err
			}
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// LabOrders returns orders newest first, optionally for one patient.
func (s *Service) LabOrders(ctx context.Context, uhid string) []*LabOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LabOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if uhid != "" && o.UHID != uhid {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out
}

// AddRound files a ward-round note.
func (s *Service) AddRound(ctx context.Context, uhid, physician, notes string) (*Round, error) {
	if uhid == "" || notes == "" {
		return nil, fmt.Errorf("uhid and notes are required")
	}
	r := &Round{
		ID:        uuid.New(),
		UHID:      uhid,
		Physician: physician,
		Notes:     notes,
		At:        time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append([]*Round{r}, s.rounds...)
	if err := s.store.PutJSON(kvstore.KeyRounds, s.rounds); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

// Rounds returns round notes newest first, optionally for one patient.
func (s *Service) Rounds(ctx context.Context, uhid string) []*Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Round, 0, len(s.rounds))
	for _, r := range s.rounds {
		if uhid != "" && r.UHID != uhid {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out
}

// BookTheatre schedules a procedure, rejecting any overlap with an existing
// booking for the same theatre.
func (s *Service) BookTheatre(ctx context.Context, b *OTBooking) (*OTBooking, error) {
	if b.Theatre == "" || b.Procedure == "" {
		return nil, fmt.Errorf("theatre and procedure are required")
	}
	if !b.Start.Before(b.End) {
		return nil, fmt.Errorf("booking end must be after start")
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.schedule {
		if b.overlaps(existing) {
			return nil, fmt.Errorf("%w: %s from %s to %s",
				ErrTheatreConflict, existing.Theatre,
				existing.Start.Format(time.RFC3339), existing.End.Format(time.RFC3339))
		}
	}
	s.schedule = append(s.schedule, b)
	if err := s.store.PutJSON(kvstore.KeyOTSchedule, s.schedule); err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}

// Schedule returns all bookings, optionally for one theatre.
func (s *Service) Schedule(ctx context.Context, theatre string) []*OTBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*OTBooking, 0, len(s.schedule))
	for _, b := range s.schedule {
		if theatre != "" && b.Theatre != theatre {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out
}
