package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, item *StockItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*StockItem, error)
	Update(ctx context.Context, item *StockItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*StockItem, error)
}
