package pharmacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/domain/billing"
)

var (
	ErrItemNotFound      = fmt.Errorf("stock item not found")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrExpiredBatch      = fmt.Errorf("batch is expired")
)

// Service manages the pharmacy inventory and bills dispenses through the
// invoice ledger.
type Service struct {
	repo   Repository
	ledger *billing.Service
}

func NewService(repo Repository, ledger *billing.Service) *Service {
	return &Service{repo: repo, ledger: ledger}
}

func (s *Service) AddStock(ctx context.Context, item *StockItem) (*StockItem, error) {
	if item.Name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if item.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	if item.UnitPrice < 0 {
		return nil, fmt.Errorf("unit price must not be negative")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create stock item: %w", err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context) ([]*StockItem, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*StockItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

func (s *Service) RemoveStock(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return s.repo.Delete(ctx, id)
}

type DispenseLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type DispenseInput struct {
	PatientName string         `json:"patient_name"`
	UHID        string         `json:"uhid"`
	Scheme      string         `json:"scheme"`
	Lines       []DispenseLine `json:"lines"`
}

// Dispense checks every requested line against current stock first; only
// when the whole request can be satisfied are quantities decremented and the
// invoice appended. A shortfall leaves the inventory untouched.
func (s *Service) Dispense(ctx context.Context, in DispenseInput) (*billing.Invoice, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("nothing to dispense")
	}
	if in.Scheme == "" {
		in.Scheme = billing.SchemeGeneral
	}

	now := time.Now().UTC()
	items := make([]*StockItem, len(in.Lines))
	lineItems := make([]billing.LineItem, len(in.Lines))
	for i, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		item, err := s.repo.GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, line.ItemID)
		}
		if item.Expired(now) {
			return nil, fmt.Errorf("%w: %s batch %s", ErrExpiredBatch, item.Name, item.Batch)
		}
		if item.Quantity < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d, requested %d",
				ErrInsufficientStock, item.Name, item.Quantity, line.Quantity)
		}
		items[i] = item
		lineItems[i] = billing.LineItem{
			Description: fmt.Sprintf("%s x%d", item.Name, line.Quantity),
			Amount:      float64(line.Quantity) * item.UnitPrice,
		}
	}

	for i, line := range in.Lines {
		items[i].Quantity -= line.Quantity
		items[i].UpdatedAt = now
		if err := s.repo.Update(ctx, items[i]); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	inv, err := s.ledger.Add(ctx,
		billing.NewInvoice(in.PatientName, in.UHID, in.Scheme, lineItems, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("bill dispense: %w", err)
	}
	return inv, nil
}
