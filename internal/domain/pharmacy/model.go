package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// StockItem is one batch of a drug in the pharmacy inventory.
type StockItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Batch     string    `json:"batch"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit"`
	UnitPrice float64   `json:"unit_price"`
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the batch is past its expiry date.
func (s *StockItem) Expired(now time.Time) bool {
	return !s.Expiry.IsZero() && s.Expiry.Before(now)
}
