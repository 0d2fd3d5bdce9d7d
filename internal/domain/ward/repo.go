package ward

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, w *Ward) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)
	List(ctx context.Context) ([]*Ward, error)
	// Replace swaps the stored ward whose id matches w for w, leaving every
	// other ward untouched.
	Replace(ctx context.Context, w *Ward) error
}
