package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = fmt.Errorf("patient not found")
	ErrDuplicateUHID = fmt.Errorf("uhid already registered")
)

// Service owns patient lifecycle rules. UHID issuance is facility-scoped:
// <prefix>-<facility>-<six digit sequence>.
type Service struct {
	repo         Repository
	uhidPrefix   string
	facilityCode string
}

func NewService(repo Repository, uhidPrefix, facilityCode string) *Service {
	return &Service{repo: repo, uhidPrefix: uhidPrefix, facilityCode: facilityCode}
}

// Register validates demographics, issues a UHID when the caller did not
// supply one, and stores the patient at the head of the registry.
func (s *Service) Register(ctx context.Context, p *Patient) (*Patient, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return nil, fmt.Errorf("invalid age %d", p.Age)
	}
	if p.Type == "" {
		p.Type = TypeOPD
	}
	if !validTypes[p.Type] {
		return nil, fmt.Errorf("invalid patient type %q", p.Type)
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !validStatuses[p.Status] {
		return nil, fmt.Errorf("invalid patient status %q", p.Status)
	}

	if p.UHID == "" {
		uhid, err := s.nextUHID(ctx)
		if err != nil {
			return nil, fmt.Errorf("issue uhid: %w", err)
		}
		p.UHID = uhid
	} else if existing, err := s.repo.GetByUHID(ctx, p.UHID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUHID, p.UHID)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) nextUHID(ctx context.Context) (string, error) {
	n, err := s.repo.NextUHIDSeq(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%06d", s.uhidPrefix, s.facilityCode, n), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Service) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	p, err := s.repo.GetByUHID(ctx, uhid)
	if err != nil {
		return nil, fmt.Errorf("%w: uhid %s", ErrNotFound, uhid)
	}
	return p, nil
}

// Update replaces the stored record wholesale. The identity fields (ID, UHID,
// CreatedAt) and the registry position are preserved from the stored copy.
func (s *Service) Update(ctx context.Context, p *Patient) (*Patient, error) {
	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	if !validTypes[p.Type] {
		return nil, fmt.Errorf("invalid patient type %q", p.Type)
	}
	if !validStatuses[p.Status] {
		return nil, fmt.Errorf("invalid patient status %q", p.Status)
	}
	p.UHID = current.UHID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

// Delete removes the record only. Invoices and bed assignments referencing
// the patient are left in place for the audit trail.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// List returns patients matching the filter, newest registration first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Patient, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if f.Type == "" && f.Status == "" && f.Query == "" {
		return all, nil
	}
	q := strings.ToLower(f.Query)
	out := make([]*Patient, 0, len(all))
	for _, p := range all {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.UHID), q) &&
			!strings.Contains(p.Mobile, f.Query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ActiveIPD returns admitted in-patients, used by occupancy views.
func (s *Service) ActiveIPD(ctx context.Context) ([]*Patient, error) {
	return s.List(ctx, Filter{Type: TypeIPD, Status: StatusActive})
}
