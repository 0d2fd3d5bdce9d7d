package ward

import (
	"time"

	"github.com/google/uuid"
)

// WardType groups beds by admission capacity class.
type WardType string

const (
	TypeGeneral  WardType = "general"
	TypeICU      WardType = "icu"
	TypeCasualty WardType = "casualty"
	TypePrivate  WardType = "private"
)

// BedStatus is the occupancy state of a single bed.
type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedMaintenance BedStatus = "maintenance"
	BedReserved    BedStatus = "reserved"
)

var validBedStatuses = map[BedStatus]bool{
	BedAvailable:   true,
	BedOccupied:    true,
	BedMaintenance: true,
	BedReserved:    true,
}

var validWardTypes = map[WardType]bool{
	TypeGeneral:  true,
	TypeICU:      true,
	TypeCasualty: true,
	TypePrivate:  true,
}

// Bed belongs to exactly one ward. PatientID is set if and only if the bed is
// occupied.
type Bed struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Number    string     `db:"number" json:"number"`
	Status    BedStatus  `db:"status" json:"status"`
	PatientID *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
}

// Ward maps to the wards collection. Wards are created at seed time; bed
// composition is fixed at runtime.
type Ward struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Hospital   string    `db:"hospital" json:"hospital"`
	Department string    `db:"department" json:"department"`
	Type       WardType  `db:"type" json:"type"`
	Beds       []Bed     `json:"beds"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FindBed returns a pointer into w.Beds, or nil when the id is unknown.
func (w *Ward) FindBed(bedID uuid.UUID) *Bed {
	for i := range w.Beds {
		if w.Beds[i].ID == bedID {
			return &w.Beds[i]
		}
	}
	return nil
}

// FindBedByNumber returns a pointer into w.Beds, or nil when no bed carries
// the display number.
func (w *Ward) FindBedByNumber(number string) *Bed {
	for i := range w.Beds {
		if w.Beds[i].Number == number {
			return &w.Beds[i]
		}
	}
	return nil
}

// FreeBeds counts beds currently available for assignment.
func (w *Ward) FreeBeds() int {
	n := 0
	for i := range w.Beds {
		if w.Beds[i].Status == BedAvailable {
			n++
		}
	}
	return n
}

// Occupancy is a derived per-facility aggregate, never stored.
type Occupancy struct {
	TotalBeds   int `json:"total_beds"`
	Available   int `json:"available"`
	Occupied    int `json:"occupied"`
	Maintenance int `json:"maintenance"`
	Reserved    int `json:"reserved"`
}
