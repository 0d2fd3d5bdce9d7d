package billing

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	StatusPaid    InvoiceStatus = "paid"
	StatusPending InvoiceStatus = "pending"
	StatusWaived  InvoiceStatus = "waived"
)

var validStatuses = map[InvoiceStatus]bool{
	StatusPaid:    true,
	StatusPending: true,
	StatusWaived:  true,
}

// SchemeGeneral is the cash billing category. Every other scheme value is a
// waiver category that zeroes the payable amount.
const SchemeGeneral = "General"

// DefaultPaymentMode is used when a cash invoice does not name a channel.
const DefaultPaymentMode = "cash"

type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Invoice snapshots the patient by name and UHID at creation time. Later
// edits to the patient record do not flow back into the ledger.
type Invoice struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	Number      string             `db:"number" json:"number"`
	PatientName string             `db:"patient_name" json:"patient_name"`
	UHID        string             `db:"uhid" json:"uhid"`
	Date        time.Time          `db:"date" json:"date"`
	Amount      float64            `db:"amount" json:"amount"`
	Status      InvoiceStatus      `db:"status" json:"status"`
	Mode        string             `db:"mode" json:"mode"`
	Scheme      string             `db:"scheme" json:"scheme"`
	Items       []LineItem         `db:"items" json:"items"`
	Breakdown   map[string]float64 `db:"breakdown" json:"breakdown,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// Totals is the outcome of the scheme rule for one billable action.
// Gross keeps the computed pre-waiver total for the audit breakdown.
type Totals struct {
	Gross  float64
	Amount float64
	Status InvoiceStatus
	Mode   string
}

// ComputeTotal applies the scheme rule shared by every billing surface:
// under the General scheme the payable is sum(items) + tax - discount floored
// at zero; under any other scheme the payable is forced to zero, the status
// to waived, and the mode records the scheme name as the audit trail.
func ComputeTotal(items []LineItem, tax, discount float64, scheme string) Totals {
	var sum float64
	for _, it := range items {
		sum += it.Amount
	}
	gross := sum + tax - discount
	if gross < 0 {
		gross = 0
	}
	if scheme != SchemeGeneral {
		return Totals{Gross: gross, Amount: 0, Status: StatusWaived, Mode: scheme}
	}
	return Totals{Gross: gross, Amount: gross, Status: StatusPaid, Mode: DefaultPaymentMode}
}

// NewInvoice builds an invoice for a billable action, applying the scheme
// rule and recording the sub-totals in the breakdown.
func NewInvoice(patientName, uhid, scheme string, items []LineItem, tax, discount float64) *Invoice {
	t := ComputeTotal(items, tax, discount, scheme)
	var sum float64
	for _, it := range items {
		sum += it.Amount
	}
	now := time.Now().UTC()
	return &Invoice{
		ID:          uuid.New(),
		PatientName: patientName,
		UHID:        uhid,
		Date:        now,
		Amount:      t.Amount,
		Status:      t.Status,
		Mode:        t.Mode,
		Scheme:      scheme,
		Items:       items,
		Breakdown: map[string]float64{
			"subtotal": sum,
			"tax":      tax,
			"discount": discount,
			"total":    t.Gross,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
