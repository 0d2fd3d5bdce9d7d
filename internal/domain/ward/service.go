package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrWardNotFound = errors.New("ward not found")
	ErrBedNotFound  = errors.New("bed not found")
	// ErrBedOccupied is returned when a bed already holds a different patient.
	ErrBedOccupied = errors.New("bed already occupied")
	// ErrPatientHasBed is returned when the patient is already linked to an
	// occupied bed anywhere in the facility. Callers must free the old bed
	// first.
	ErrPatientHasBed = errors.New("patient already occupies a bed")
)

// Service is the bed/ward registry: the authoritative occupancy state of
// every bed, and the single mutation that changes it.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if w.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validWardTypes[w.Type] {
		return fmt.Errorf("invalid ward type: %s", w.Type)
	}
	seen := map[string]bool{}
	for i := range w.Beds {
		if w.Beds[i].Number == "" {
			return fmt.Errorf("bed number is required")
		}
		if seen[w.Beds[i].Number] {
			return fmt.Errorf("duplicate bed number %s in ward %s", w.Beds[i].Number, w.Name)
		}
		seen[w.Beds[i].Number] = true
		if w.Beds[i].Status == "" {
			w.Beds[i].Status = BedAvailable
		}
	}
	return s.repo.Create(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWardNotFound, id)
	}
	return w, nil
}

func (s *Service) ListWards(ctx context.Context) ([]*Ward, error) {
	return s.repo.List(ctx)
}

// SetBedStatus changes one bed's occupancy state. patientID is required for
// BedOccupied and ignored (cleared) for every other status.
//
// An unknown ward or bed id fails with a typed not-found error rather than
// silently leaving the registry unchanged. Double assignment is rejected in
// both directions: a bed holding a different patient, and a patient already
// holding a different bed.
func (s *Service) SetBedStatus(ctx context.Context, wardID, bedID uuid.UUID, status BedStatus, patientID *uuid.UUID) (*Ward, error) {
	if !validBedStatuses[status] {
		return nil, fmt.Errorf("invalid bed status: %s", status)
	}
	if status == BedOccupied && patientID == nil {
		return nil, fmt.Errorf("patient_id is required when occupying a bed")
	}

	w, err := s.repo.GetByID(ctx, wardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWardNotFound, wardID)
	}
	bed := w.FindBed(bedID)
	if bed == nil {
		return nil, fmt.Errorf("%w: %s in ward %s", ErrBedNotFound, bedID, w.Name)
	}

	if status == BedOccupied {
		if bed.Status == BedOccupied && bed.PatientID != nil && *bed.PatientID != *patientID {
			return nil, fmt.Errorf("%w: bed %s", ErrBedOccupied, bed.Number)
		}
		occupied, err := s.findPatientBed(ctx, *patientID)
		if err != nil {
			return nil, err
		}
		if occupied != nil && occupied.ID != bedID {
			return nil, fmt.Errorf("%w: bed %s", ErrPatientHasBed, occupied.Number)
		}
		bed.Status = BedOccupied
		bed.PatientID = patientID
	} else {
		bed.Status = status
		bed.PatientID = nil
	}

	if err := s.repo.Replace(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// FreeBedCount returns the number of available beds in one ward.
func (s *Service) FreeBedCount(ctx context.Context, wardID uuid.UUID) (int, error) {
	w, err := s.repo.GetByID(ctx, wardID)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWardNotFound, wardID)
	}
	return w.FreeBeds(), nil
}

// FacilityOccupancy aggregates bed state across every ward.
func (s *Service) FacilityOccupancy(ctx context.Context) (*Occupancy, error) {
	wards, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	occ := &Occupancy{}
	for _, w := range wards {
		for i := range w.Beds {
			occ.TotalBeds++
			switch w.Beds[i].Status {
			case BedAvailable:
				occ.Available++
			case BedOccupied:
				occ.Occupied++
			case BedMaintenance:
				occ.Maintenance++
			case BedReserved:
				occ.Reserved++
			}
		}
	}
	return occ, nil
}

// ICUWards returns the ICU subset of the ward collection.
func (s *Service) ICUWards(ctx context.Context) ([]*Ward, error) {
	wards, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var icu []*Ward
	for _, w := range wards {
		if w.Type == TypeICU {
			icu = append(icu, w)
		}
	}
	return icu, nil
}

// BedForPatient returns the ward and bed currently occupied by the patient,
// or nils when the patient holds no bed.
func (s *Service) BedForPatient(ctx context.Context, patientID uuid.UUID) (*Ward, *Bed, error) {
	wards, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range wards {
		for i := range w.Beds {
			b := &w.Beds[i]
			if b.Status == BedOccupied && b.PatientID != nil && *b.PatientID == patientID {
				return w, b, nil
			}
		}
	}
	return nil, nil, nil
}

func (s *Service) findPatientBed(ctx context.Context, patientID uuid.UUID) (*Bed, error) {
	_, bed, err := s.BedForPatient(ctx, patientID)
	return bed, err
}
