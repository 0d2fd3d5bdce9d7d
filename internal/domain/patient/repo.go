package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for patients.
//
// List returns patients in most-recent-first registration order; new
// registrations are inserted at the front.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUHID(ctx context.Context, uhid string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Patient, error)
	NextUHIDSeq(ctx context.Context) (uint64, error)
}
