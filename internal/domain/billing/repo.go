package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the invoice ledger. The ledger
// is append-at-front: List returns newest invoices first.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context) ([]*Invoice, error)
	NextInvoiceSeq(ctx context.Context) (uint64, error)
}
