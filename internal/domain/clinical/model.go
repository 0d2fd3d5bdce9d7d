package clinical

import (
	"time"

	"github.com/google/uuid"
)

type LabOrderStatus string

const (
	LabOrdered   LabOrderStatus = "ordered"
	LabCompleted LabOrderStatus = "completed"
	LabCancelled LabOrderStatus = "cancelled"
)

var validLabStatuses = map[LabOrderStatus]bool{
	LabOrdered:   true,
	LabCompleted: true,
	LabCancelled: true,
}

type LabOrder struct {
	ID        uuid.UUID      `json:"id"`
	UHID      string         `json:"uhid"`
	Test      string         `json:"test"`
	Status    LabOrderStatus `json:"status"`
	Result    string         `json:"result,omitempty"`
	OrderedBy string         `json:"ordered_by"`
	OrderedAt time.Time      `json:"ordered_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Round is one ward-round note against a patient.
type Round struct {
	ID        uuid.UUID `json:"id"`
	UHID      string    `json:"uhid"`
	Physician string    `json:"physician"`
	Notes     string    `json:"notes"`
	At        time.Time `json:"at"`
}

// OTBooking reserves one operating theatre for a window. Two bookings for
// the same theatre may not overlap.
type OTBooking struct {
	ID        uuid.UUID `json:"id"`
	UHID      string    `json:"uhid"`
	Procedure string    `json:"procedure"`
	Theatre   string    `json:"theatre"`
	Surgeon   string    `json:"surgeon"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *OTBooking) overlaps(other *OTBooking) bool {
	return b.Theatre == other.Theatre && b.Start.Before(other.End) && other.Start.Before(b.End)
}
