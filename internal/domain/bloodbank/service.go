package bloodbank

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

var (
	ErrInvalidGroup      = fmt.Errorf("unknown blood group")
	ErrInsufficientStock = fmt.Errorf("insufficient blood stock")
)

type storedState struct {
	Stock     []GroupStock `json:"stock"`
	Movements []Movement   `json:"movements"`
}

// Service tracks blood units per group. Issues are checked against current
// stock before any mutation; a shortfall changes nothing and reports how far
// short the bank is.
type Service struct {
	mu    sync.RWMutex
	store *kvstore.Store
	state storedState
}

func NewService(store *kvstore.Store) (*Service, error) {
	s := &Service{store: store}
	if _, err := store.GetJSON(kvstore.KeyBloodStock, &s.state); err != nil {
		return nil, fmt.Errorf("load blood stock: %w", err)
	}
	return s, nil
}

func (s *Service) persist() error {
	return s.store.PutJSON(kvstore.KeyBloodStock, &s.state)
}

func (s *Service) groupIndex(group string) int {
	for i := range s.state.Stock {
		if s.state.Stock[i].Group == group {
			return i
		}
	}
	return -1
}

// Stock returns the current unit count for every group that has seen stock.
func (s *Service) Stock(ctx context.Context) []GroupStock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GroupStock, len(s.state.Stock))
	copy(out, s.state.Stock)
	return out
}

// Available returns the unit count for one group.
func (s *Service) Available(ctx context.Context, group string) (int, error) {
	if !validGroups[group] {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.groupIndex(group); i >= 0 {
		return s.state.Stock[i].Units, nil
	}
	return 0, nil
}

// RecordDonation adds donated units to the group's stock.
func (s *Service) RecordDonation(ctx context.Context, group, donor string, units int) (*GroupStock, error) {
	if !validGroups[group] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	if units <= 0 {
		return nil, fmt.Errorf("units must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	i := s.groupIndex(group)
	if i < 0 {
		s.state.Stock = append(s.state.Stock, GroupStock{Group: group})
		i = len(s.state.Stock) - 1
	}
	s.state.Stock[i].Units += units
	s.state.Stock[i].UpdatedAt = now
	s.state.Movements = append(s.state.Movements, Movement{
		Group: group, Units: units, Kind: "donation", Party: donor, At: now,
	})
	if err := s.persist(); err != nil {
		return nil, err
	}
	st := s.state.Stock[i]
	return &st, nil
}

// Issue removes units for a patient. The request fails without touching
// stock when fewer units are on hand than requested.
func (s *Service) Issue(ctx context.Context, group, patientUHID string, units int) (*GroupStock, error) {
	if !validGroups[group] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	if units <= 0 {
		return nil, fmt.Errorf("units must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.groupIndex(group)
	have := 0
	if i >= 0 {
		have = s.state.Stock[i].Units
	}
	if have < units {
		return nil, fmt.Errorf("%w: %s has %d units, requested %d, short by %d",
			ErrInsufficientStock, group, have, units, units-have)
	}

	now := time.Now().UTC()
	s.state.Stock[i].Units -= units
	s.state.Stock[i].UpdatedAt = now
	s.state.Movements = append(s.state.Movements, Movement{
		Group: group, Units: units, Kind: "issue", Party: patientUHID, At: now,
	})
	if err := s.persist(); err != nil {
		return nil, err
	}
	st := s.state.Stock[i]
	return &st, nil
}

// Movements returns the audit trail, oldest first.
func (s *Service) Movements(ctx context.Context) []Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Movement, len(s.state.Movements))
	copy(out, s.state.Movements)
	return out
}
