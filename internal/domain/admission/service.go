// Package admission orchestrates the cross-store workflows that span the bed
// registry, the patient roster and the invoice ledger: OPD registration, IPD
// and casualty admission, ICU transfer and discharge settlement.
//
// Each workflow reads and validates everything first, then applies its writes
// in a fixed order: free the old bed, occupy the new bed, update the patient,
// append the invoice.
package admission

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hmis/hmis/internal/domain/billing"
	"github.com/hmis/hmis/internal/domain/patient"
	"github.com/hmis/hmis/internal/domain/ward"
	"github.com/hmis/hmis/internal/platform/summarizer"
)

var (
	ErrAlreadyAdmitted = fmt.Errorf("patient is already admitted")
	ErrNotAdmitted     = fmt.Errorf("patient is not an active in-patient")
	ErrBedUnavailable  = fmt.Errorf("bed is not available")
)

// Rates are the fixed charges applied by the discharge settlement.
type Rates struct {
	RoomRatePerDay float64
	NursingCharge  float64
	Consumables    float64
}

type Service struct {
	patients  *patient.Service
	wards     *ward.Service
	ledger    *billing.Service
	summaries *summarizer.Client
	rates     Rates
}

func NewService(patients *patient.Service, wards *ward.Service, ledger *billing.Service,
	summaries *summarizer.Client, rates Rates) *Service {
	return &Service{
		patients:  patients,
		wards:     wards,
		ledger:    ledger,
		summaries: summaries,
		rates:     rates,
	}
}

// Result is the outcome of a workflow that touched more than one store.
type Result struct {
	Patient *patient.Patient `json:"patient"`
	Invoice *billing.Invoice `json:"invoice,omitempty"`
	Days    int              `json:"days,omitempty"`
	Summary string           `json:"summary,omitempty"`
}

type OPDInput struct {
	Name            string  `json:"name"`
	Age             int     `json:"age"`
	Gender          string  `json:"gender"`
	Mobile          string  `json:"mobile"`
	Address         string  `json:"address"`
	Department      string  `json:"department"`
	Scheme          string  `json:"scheme"`
	RegistrationFee float64 `json:"registration_fee"`
	ConsultationFee float64 `json:"consultation_fee"`
	Tax             float64 `json:"tax"`
	Discount        float64 `json:"discount"`
}

// RegisterOPD creates an out-patient and bills the visit fees under the
// selected scheme.
func (s *Service) RegisterOPD(ctx context.Context, in OPDInput) (*Result, error) {
	if in.Scheme == "" {
		in.Scheme = billing.SchemeGeneral
	}
	p := &patient.Patient{
		Name:    in.Name,
		Age:     in.Age,
		Gender:  in.Gender,
		Mobile:  in.Mobile,
		Address: in.Address,
		Type:    patient.TypeOPD,
		Status:  patient.StatusActive,
	}
	if in.Department != "" {
		p.Department = &in.Department
	}
	p, err := s.patients.Register(ctx, p)
	if err != nil {
		return nil, err
	}

	items := []billing.LineItem{
		{Description: "Registration Fee", Amount: in.RegistrationFee},
		{Description: "Consultation Fee", Amount: in.ConsultationFee},
	}
	inv, err := s.ledger.Add(ctx,
		billing.NewInvoice(p.Name, p.UHID, in.Scheme, items, in.Tax, in.Discount))
	if err != nil {
		return nil, fmt.Errorf("bill opd registration: %w", err)
	}
	return &Result{Patient: p, Invoice: inv}, nil
}

type IPDInput struct {
	// Either an existing patient by id or inline demographics for a new one.
	PatientID *uuid.UUID `json:"patient_id"`
	Name      string     `json:"name"`
	Age       int        `json:"age"`
	Gender    string     `json:"gender"`
	Mobile    string     `json:"mobile"`
	Address   string     `json:"address"`

	WardID     uuid.UUID `json:"ward_id"`
	BedID      uuid.UUID `json:"bed_id"`
	Department string    `json:"department"`
	Scheme     string    `json:"scheme"`
	Deposit    float64   `json:"deposit"`
}

// AdmitIPD admits a patient to a bed. An already admitted patient is
// rejected outright; admit-elsewhere goes through TransferToICU or an
// explicit discharge first.
func (s *Service) AdmitIPD(ctx context.Context, in IPDInput) (*Result, error) {
	if in.Scheme == "" {
		in.Scheme = billing.SchemeGeneral
	}
	if err := s.checkBedFree(ctx, in.WardID, in.BedID); err != nil {
		return nil, err
	}

	var p *patient.Patient
	var err error
	if in.PatientID != nil {
		p, err = s.patients.Get(ctx, *in.PatientID)
		if err != nil {
			return nil, err
		}
		if p.IsAdmitted() {
			return nil, fmt.Errorf("%w: %s holds bed %s", ErrAlreadyAdmitted, p.UHID, *p.BedNumber)
		}
	} else {
		p, err = s.patients.Register(ctx, &patient.Patient{
			Name:    in.Name,
			Age:     in.Age,
			Gender:  in.Gender,
			Mobile:  in.Mobile,
			Address: in.Address,
			Type:    patient.TypeIPD,
			Status:  patient.StatusActive,
		})
		if err != nil {
			return nil, err
		}
	}

	p, inv, err := s.placeInBed(ctx, p, patient.TypeIPD, in.WardID, in.BedID, in.Department, in.Scheme,
		billing.LineItem{Description: "Admission Deposit", Amount: in.Deposit})
	if err != nil {
		return nil, err
	}
	return &Result{Patient: p, Invoice: inv}, nil
}

type CasualtyInput struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
	MLC     bool   `json:"mlc"`

	WardID uuid.UUID `json:"ward_id"`
	BedID  uuid.UUID `json:"bed_id"`
	Scheme string    `json:"scheme"`
	Fee    float64   `json:"fee"`
}

// RegisterCasualty quick-registers an emergency arrival into a casualty bed.
// The MLC flag is recorded for display only.
func (s *Service) RegisterCasualty(ctx context.Context, in CasualtyInput) (*Result, error) {
	if in.Scheme == "" {
		in.Scheme = billing.SchemeGeneral
	}
	if err := s.checkBedFree(ctx, in.WardID, in.BedID); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		Name:    in.Name,
		Age:     in.Age,
		Gender:  in.Gender,
		Mobile:  in.Mobile,
		Address: in.Address,
		Type:    patient.TypeCasualty,
		Status:  patient.StatusActive,
	}
	if in.MLC {
		mlc := "MLC"
		p.LegalStatus = &mlc
	}
	p, err := s.patients.Register(ctx, p)
	if err != nil {
		return nil, err
	}

	p, inv, err := s.placeInBed(ctx, p, patient.TypeCasualty, in.WardID, in.BedID, "Casualty", in.Scheme,
		billing.LineItem{Description: "Casualty Registration", Amount: in.Fee})
	if err != nil {
		return nil, err
	}
	return &Result{Patient: p, Invoice: inv}, nil
}

type TransferInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	WardID    uuid.UUID `json:"ward_id"`
	BedID     uuid.UUID `json:"bed_id"`
	Scheme    string    `json:"scheme"`
	Deposit   float64   `json:"deposit"`
}

// TransferToICU moves an active patient into an ICU bed: the old bed is
// freed, the ICU bed occupied, the patient becomes an in-patient of the ICU,
// and an ICU deposit is billed under the selected scheme.
func (s *Service) TransferToICU(ctx context.Context, in TransferInput) (*Result, error) {
	if in.Scheme == "" {
		in.Scheme = billing.SchemeGeneral
	}
	p, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if p.Status != patient.StatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrNotAdmitted, p.Status)
	}

	target, err := s.wards.GetWard(ctx, in.WardID)
	if err != nil {
		return nil, err
	}
	if target.Type != ward.TypeICU {
		return nil, fmt.Errorf("ward %s is not an ICU ward", target.Name)
	}
	if err := s.checkBedFree(ctx, in.WardID, in.BedID); err != nil {
		return nil, err
	}

	// free the old bed before taking the new one
	oldWard, oldBed, err := s.wards.BedForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if oldBed != nil {
		if _, err := s.wards.SetBedStatus(ctx, oldWard.ID, oldBed.ID, ward.BedAvailable, nil); err != nil {
			return nil, fmt.Errorf("free bed %s: %w", oldBed.Number, err)
		}
	}

	p, inv, err := s.placeInBed(ctx, p, patient.TypeIPD, in.WardID, in.BedID, "ICU", in.Scheme,
		billing.LineItem{Description: "ICU Deposit", Amount: in.Deposit})
	if err != nil {
		return nil, err
	}
	return &Result{Patient: p, Invoice: inv}, nil
}

type DischargeInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	Mode      string    `json:"mode"`
}

// Discharge settles the stay and releases the patient: computes the room
// charges from whole elapsed days (same-day counts as one), applies the
// scheme rule against the admission type, frees the bed and marks the
// patient discharged. A drafted summary is attached when the external
// summary service is configured; its failure never blocks the discharge.
func (s *Service) Discharge(ctx context.Context, in DischargeInput) (*Result, error) {
	p, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if p.Status != patient.StatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrNotAdmitted, p.Status)
	}

	now := time.Now().UTC()
	admitted := now
	if p.AdmissionDate != nil {
		admitted = *p.AdmissionDate
	}
	days := stayDays(admitted, now)

	items := []billing.LineItem{
		{Description: fmt.Sprintf("Room Charges (%d days)", days), Amount: float64(days) * s.rates.RoomRatePerDay},
		{Description: "Nursing Charges", Amount: s.rates.NursingCharge},
		{Description: "Consumables", Amount: s.rates.Consumables},
	}
	scheme := billing.SchemeGeneral
	if p.AdmissionType != nil && *p.AdmissionType != "" {
		scheme = *p.AdmissionType
	}

	oldWard, oldBed, err := s.wards.BedForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if oldBed != nil {
		if _, err := s.wards.SetBedStatus(ctx, oldWard.ID, oldBed.ID, ward.BedAvailable, nil); err != nil {
			return nil, fmt.Errorf("free bed %s: %w", oldBed.Number, err)
		}
	}

	p.Status = patient.StatusDischarged
	p.Ward = nil
	p.BedNumber = nil
	p.BedID = nil
	p, err = s.patients.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	inv := billing.NewInvoice(p.Name, p.UHID, scheme, items, 0, 0)
	if in.Mode != "" && inv.Status != billing.StatusWaived {
		inv.Mode = in.Mode
	}
	inv, err = s.ledger.Add(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("bill discharge: %w", err)
	}

	res := &Result{Patient: p, Invoice: inv, Days: days}
	if s.summaries.Enabled() {
		summary, err := s.summaries.DischargeSummary(ctx, summarizer.Request{
			PatientName:   p.Name,
			UHID:          p.UHID,
			AdmissionDate: admitted,
			DischargeDate: now,
			StayDays:      days,
		})
		if err != nil {
			log.Warn().Err(err).Str("uhid", p.UHID).Msg("discharge summary draft failed")
		} else {
			res.Summary = summary
		}
	}
	return res, nil
}

// stayDays bills every started day, so a same-day discharge counts as one.
func stayDays(admitted, now time.Time) int {
	elapsed := now.Sub(admitted)
	if elapsed <= 0 {
		return 1
	}
	days := int(math.Ceil(elapsed.Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

func (s *Service) checkBedFree(ctx context.Context, wardID, bedID uuid.UUID) error {
	w, err := s.wards.GetWard(ctx, wardID)
	if err != nil {
		return err
	}
	b := w.FindBed(bedID)
	if b == nil {
		return fmt.Errorf("%w: bed %s in ward %s", ward.ErrBedNotFound, bedID, w.Name)
	}
	if b.Status != ward.BedAvailable {
		return fmt.Errorf("%w: bed %s is %s", ErrBedUnavailable, b.Number, b.Status)
	}
	return nil
}

// placeInBed occupies the bed, then rewrites the patient as an active
// occupant of that bed, then appends the admission invoice.
func (s *Service) placeInBed(ctx context.Context, p *patient.Patient, ptype patient.PatientType,
	wardID, bedID uuid.UUID, department, scheme string, item billing.LineItem) (*patient.Patient, *billing.Invoice, error) {

	w, err := s.wards.SetBedStatus(ctx, wardID, bedID, ward.BedOccupied, &p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("occupy bed: %w", err)
	}
	bed := w.FindBed(bedID)

	now := time.Now().UTC()
	p.Type = ptype
	p.Status = patient.StatusActive
	p.Ward = &w.Name
	p.BedNumber = &bed.Number
	p.BedID = &bed.ID
	if department != "" {
		p.Department = &department
	}
	p.AdmissionDate = &now
	p.AdmissionType = &scheme
	p, err = s.patients.Update(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	inv, err := s.ledger.Add(ctx,
		billing.NewInvoice(p.Name, p.UHID, scheme, []billing.LineItem{item}, 0, 0))
	if err != nil {
		return nil, nil, fmt.Errorf("bill admission: %w", err)
	}
	return p, inv, nil
}
