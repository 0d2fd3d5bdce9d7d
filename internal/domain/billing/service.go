package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvoiceNotFound = fmt.Errorf("invoice not found")

// Service owns the invoice ledger. Creation is append-only; after-the-fact
// corrections may touch amount, status and mode but never the billed items
// or the scheme they were billed under.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add numbers the invoice and appends it to the head of the ledger.
func (s *Service) Add(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if inv.PatientName == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	if !validStatuses[inv.Status] {
		return nil, fmt.Errorf("invalid invoice status %q", inv.Status)
	}
	if inv.Amount < 0 {
		return nil, fmt.Errorf("invoice amount must not be negative")
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Number == "" {
		n, err := s.repo.NextInvoiceSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("issue invoice number: %w", err)
		}
		inv.Number = fmt.Sprintf("INV-%06d", n)
	}
	now := time.Now().UTC()
	if inv.Date.IsZero() {
		inv.Date = now
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// CorrectionInput carries the only fields a manual edit may change.
type CorrectionInput struct {
	Amount *float64      `json:"amount"`
	Status InvoiceStatus `json:"status"`
	Mode   string        `json:"mode"`
}

// Correct applies a manual after-the-fact edit. Items, scheme and breakdown
// are preserved from the stored invoice; the breakdown is not recomputed.
func (s *Service) Correct(ctx context.Context, id uuid.UUID, in CorrectionInput) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, fmt.Errorf("invoice amount must not be negative")
		}
		inv.Amount = *in.Amount
	}
	if in.Status != "" {
		if !validStatuses[in.Status] {
			return nil, fmt.Errorf("invalid invoice status %q", in.Status)
		}
		inv.Status = in.Status
	}
	if in.Mode != "" {
		inv.Mode = in.Mode
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	return inv, nil
}

// List returns invoices newest first, optionally narrowed to one patient's
// UHID or one status.
func (s *Service) List(ctx context.Context, uhid string, status InvoiceStatus) ([]*Invoice, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if uhid == "" && status == "" {
		return all, nil
	}
	out := make([]*Invoice, 0, len(all))
	for _, inv := range all {
		if uhid != "" && inv.UHID != uhid {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
