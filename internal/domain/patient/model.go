package patient

import (
	"time"

	"github.com/google/uuid"
)

// PatientType is the admission category. Categories are mutually exclusive: a
// patient becomes IPD by mutation and loses the OPD/Casualty identity.
type PatientType string

const (
	TypeOPD      PatientType = "opd"
	TypeIPD      PatientType = "ipd"
	TypeCasualty PatientType = "casualty"
)

type PatientStatus string

const (
	StatusActive      PatientStatus = "active"
	StatusDischarged  PatientStatus = "discharged"
	StatusDeceased    PatientStatus = "deceased"
	StatusTransferred PatientStatus = "transferred"
)

var validTypes = map[PatientType]bool{
	TypeOPD:      true,
	TypeIPD:      true,
	TypeCasualty: true,
}

var validStatuses = map[PatientStatus]bool{
	StatusActive:      true,
	StatusDischarged:  true,
	StatusDeceased:    true,
	StatusTransferred: true,
}

// Patient maps to the patients collection.
//
// BedID is the authoritative link to the bed registry; Ward and BedNumber are
// denormalized display copies maintained by the admission workflows.
// LegalStatus carries the MLC flag and is informational only.
type Patient struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	UHID          string        `db:"uhid" json:"uhid"`
	Name          string        `db:"name" json:"name"`
	Age           int           `db:"age" json:"age"`
	Gender        string        `db:"gender" json:"gender"`
	Mobile        string        `db:"mobile" json:"mobile,omitempty"`
	Address       string        `db:"address" json:"address,omitempty"`
	Type          PatientType   `db:"type" json:"type"`
	Status        PatientStatus `db:"status" json:"status"`
	Ward          *string       `db:"ward_name" json:"ward,omitempty"`
	BedNumber     *string       `db:"bed_number" json:"bed_number,omitempty"`
	BedID         *uuid.UUID    `db:"bed_id" json:"bed_id,omitempty"`
	Department    *string       `db:"department" json:"department,omitempty"`
	AdmissionDate *time.Time    `db:"admission_date" json:"admission_date,omitempty"`
	AdmissionType *string       `db:"admission_type" json:"admission_type,omitempty"`
	LegalStatus   *string       `db:"legal_status" json:"legal_status,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// IsAdmitted reports whether the patient currently holds an in-patient bed.
func (p *Patient) IsAdmitted() bool {
	return p.Type == TypeIPD && p.Status == StatusActive && p.BedID != nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type   PatientType
	Status PatientStatus
	// Query matches case-insensitively against name, UHID and mobile.
	Query string
}
