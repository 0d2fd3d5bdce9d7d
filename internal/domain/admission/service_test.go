package admission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"


	"github.com/hmis/hmis/internal/domain/billing"
	"github.com/hmis/hmis/internal/domain/patient"
	"github.com/hmis/hmis/internal/domain/ward"
	"github.com/hmis/hmis/internal/platform/kvstore"
	"github.com/hmis/hmis/internal/platform/summarizer"
)

type fixture struct {
	svc      *Service
	patients *patient.Service
	wards    *ward.Service
	ledger   *billing.Service

	general  *ward.Ward
	casualty *ward.Ward
	icu      *ward.Ward
}

func newFixture(t *testing.T, summaries *summarizer.Client) *fixture {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	wardRepo, err := ward.NewKVRepo(store)
	if err != nil {
		t.Fatalf("ward repo: %v", err)
	}
	patientRepo, err := patient.NewKVRepo(store)
	if err != nil {
		t.Fatalf("patient repo: %v", err)
	}
	billingRepo, err := billing.NewKVRepo(store)
	if err != nil {
		t.Fatalf("billing repo: %v", err)
	}

	f := &fixture{
		patients: patient.NewService(patientRepo, "HMIS", "GH01"),
		wards:    ward.NewService(wardRepo),
		ledger:   billing.NewService(billingRepo),
	}
	f.svc = NewService(f.patients, f.wards, f.ledger, summaries,
		Rates{RoomRatePerDay: 2000, NursingCharge: 500, Consumables: 300})

	f.general = f.seedWard(t, "General A", ward.TypeGeneral, "G-1", "G-2")
	f.casualty = f.seedWard(t, "Casualty", ward.TypeCasualty, "TR-1")
	f.icu = f.seedWard(t, "ICU Ward", ward.TypeICU, "B-ICU-1", "B-ICU-2")
	return f
}

func (f *fixture) seedWard(t *testing.T, name string, typ ward.WardType, bedNumbers ...string) *ward.Ward {
	t.Helper()
	w := &ward.Ward{Name: name, Hospital: "General Hospital", Department: name, Type: typ}
	for _, n := range bedNumbers {
		w.Beds = append(w.Beds, ward.Bed{Number: n})
	}
	if err := f.wards.CreateWard(context.Background(), w); err != nil {
		t.Fatalf("seed ward %s: %v", name, err)
	}
	return w
}

func (f *fixture) bed(t *testing.T, w *ward.Ward, number string) *ward.Bed {
	t.Helper()
	fresh, err := f.wards.GetWard(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("get ward: %v", err)
	}
	b := fresh.FindBedByNumber(number)
	if b == nil {
		t.Fatalf("bed %s not found in %s", number, w.Name)
	}
	return b
}

func TestRegisterOPD(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.svc.RegisterOPD(context.Background(), OPDInput{
		Name:            "Ramesh Kumar",
		Age:             45,
		Gender:          "male",
		Scheme:          billing.SchemeGeneral,
		RegistrationFee: 10,
		ConsultationFee: 50,
	})
	if err != nil {
		t.Fatalf("RegisterOPD: %v", err)
	}
	if res.Patient.Type != patient.TypeOPD || res.Patient.Status != patient.StatusActive {
		t.Errorf("patient = %s/%s, want opd/active", res.Patient.Type, res.Patient.Status)
	}
	if res.Patient.UHID == "" {
		t.Error("expected issued uhid")
	}
	if res.Invoice.Amount != 60 {
		t.Errorf("amount = %v, want 60", res.Invoice.Amount)
	}
	if res.Invoice.Status != billing.StatusPaid {
		t.Errorf("status = %s, want paid", res.Invoice.Status)
	}
}

func TestAdmitIPD_NewPatient(t *testing.T) {
	f := newFixture(t, nil)
	bed := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(context.Background(), IPDInput{
		Name:       "Vikram Shah",
		Age:        51,
		Gender:     "male",
		WardID:     f.general.ID,
		BedID:      bed.ID,
		Department: "Medicine",
		Deposit:    5000,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	p := res.Patient
	if p.Type != patient.TypeIPD || !p.IsAdmitted() {
		t.Errorf("patient not admitted: %+v", p)
	}
	if p.Ward == nil || *p.Ward != "General A" || p.BedNumber == nil || *p.BedNumber != "G-1" {
		t.Errorf("denormalized bed fields wrong: %+v", p)
	}
	if p.BedID == nil || *p.BedID != bed.ID {
		t.Errorf("bed id = %v, want %s", p.BedID, bed.ID)
	}
	got := f.bed(t, f.general, "G-1")
	if got.Status != ward.BedOccupied || got.PatientID == nil || *got.PatientID != p.ID {
		t.Errorf("bed state = %+v", got)
	}
	if res.Invoice.Amount != 5000 {
		t.Errorf("deposit invoice = %v, want 5000", res.Invoice.Amount)
	}
}

func TestAdmitIPD_RejectsAlreadyAdmitted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed1 := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed1.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}

	bed2 := f.bed(t, f.general, "G-2")
	_, err = f.svc.AdmitIPD(ctx, IPDInput{
		PatientID: &res.Patient.ID, WardID: f.general.ID, BedID: bed2.ID,
	})
	if !errors.Is(err, ErrAlreadyAdmitted) {
		t.Errorf("err = %v, want ErrAlreadyAdmitted", err)
	}
	if got := f.bed(t, f.general, "G-2"); got.Status != ward.BedAvailable {
		t.Errorf("G-2 status = %s, want available", got.Status)
	}
}

func TestAdmitIPD_RejectsTakenBed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")

	if _, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	}); err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}

	_, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Meena Iyer", Age: 28, WardID: f.general.ID, BedID: bed.ID,
	})
	if !errors.Is(err, ErrBedUnavailable) {
		t.Errorf("err = %v, want ErrBedUnavailable", err)
	}
}

func TestRegisterCasualty(t *testing.T) {
	f := newFixture(t, nil)
	bed := f.bed(t, f.casualty, "TR-1")

	res, err := f.svc.RegisterCasualty(context.Background(), CasualtyInput{
		Name: "Unknown Male", Age: 30, MLC: true,
		WardID: f.casualty.ID, BedID: bed.ID, Fee: 200,
	})
	if err != nil {
		t.Fatalf("RegisterCasualty: %v", err)
	}
	p := res.Patient
	if p.Type != patient.TypeCasualty {
		t.Errorf("type = %s, want casualty", p.Type)
	}
	if p.LegalStatus == nil || *p.LegalStatus != "MLC" {
		t.Errorf("legal status = %v, want MLC", p.LegalStatus)
	}
	if got := f.bed(t, f.casualty, "TR-1"); got.Status != ward.BedOccupied {
		t.Errorf("TR-1 status = %s", got.Status)
	}
}

func TestTransferToICU(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	trBed := f.bed(t, f.casualty, "TR-1")

	res, err := f.svc.RegisterCasualty(ctx, CasualtyInput{
		Name: "Sunil Patil", Age: 40, WardID: f.casualty.ID, BedID: trBed.ID, Fee: 200,
	})
	if err != nil {
		t.Fatalf("RegisterCasualty: %v", err)
	}

	icuBed := f.bed(t, f.icu, "B-ICU-1")
	moved, err := f.svc.TransferToICU(ctx, TransferInput{
		PatientID: res.Patient.ID,
		WardID:    f.icu.ID,
		BedID:     icuBed.ID,
		Deposit:   10000,
	})
	if err != nil {
		t.Fatalf("TransferToICU: %v", err)
	}

	if got := f.bed(t, f.casualty, "TR-1"); got.Status != ward.BedAvailable || got.PatientID != nil {
		t.Errorf("TR-1 not freed: %+v", got)
	}
	if got := f.bed(t, f.icu, "B-ICU-1"); got.Status != ward.BedOccupied || got.PatientID == nil || *got.PatientID != res.Patient.ID {
		t.Errorf("B-ICU-1 not occupied: %+v", got)
	}
	p := moved.Patient
	if p.Type != patient.TypeIPD {
		t.Errorf("type = %s, want ipd", p.Type)
	}
	if p.Ward == nil || *p.Ward != "ICU Ward" || p.BedNumber == nil || *p.BedNumber != "B-ICU-1" {
		t.Errorf("bed fields = %v/%v", p.Ward, p.BedNumber)
	}
	if moved.Invoice == nil || moved.Invoice.Items[0].Description != "ICU Deposit" {
		t.Errorf("invoice = %+v", moved.Invoice)
	}
}

func TestTransferToICU_RejectsNonICUWard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res, err := f.svc.RegisterOPD(ctx, OPDInput{Name: "A", Age: 20})
	if err != nil {
		t.Fatalf("RegisterOPD: %v", err)
	}
	bed := f.bed(t, f.general, "G-1")
	if _, err := f.svc.TransferToICU(ctx, TransferInput{
		PatientID: res.Patient.ID, WardID: f.general.ID, BedID: bed.ID,
	}); err == nil {
		t.Error("expected rejection for non-ICU ward")
	}
}

func TestDischarge_GeneralScheme(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}

	// backdate the admission so the stay spans three billable days
	p := res.Patient
	admitted := time.Now().UTC().Add(-71 * time.Hour)
	p.AdmissionDate = &admitted
	if _, err := f.patients.Update(ctx, p); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	out, err := f.svc.Discharge(ctx, DischargeInput{PatientID: p.ID, Mode: "card"})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if out.Days != 3 {
		t.Errorf("days = %d, want 3", out.Days)
	}
	want := 3*2000.0 + 500 + 300
	if out.Invoice.Amount != want {
		t.Errorf("amount = %v, want %v", out.Invoice.Amount, want)
	}
	if out.Invoice.Mode != "card" {
		t.Errorf("mode = %q, want card", out.Invoice.Mode)
	}
	if out.Patient.Status != patient.StatusDischarged {
		t.Errorf("status = %s, want discharged", out.Patient.Status)
	}
	if out.Patient.BedID != nil || out.Patient.Ward != nil {
		t.Errorf("bed fields not cleared: %+v", out.Patient)
	}
	if got := f.bed(t, f.general, "G-1"); got.Status != ward.BedAvailable || got.PatientID != nil {
		t.Errorf("bed not freed: %+v", got)
	}
}

func TestDischarge_SameDayCountsOneDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	out, err := f.svc.Discharge(ctx, DischargeInput{PatientID: res.Patient.ID})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if out.Days != 1 {
		t.Errorf("same-day days = %d, want 1", out.Days)
	}
	if out.Invoice.Amount != 2000+500+300 {
		t.Errorf("amount = %v, want 2800", out.Invoice.Amount)
	}
}

func TestDischarge_WaivedScheme(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Meena Iyer", Age: 28,
		WardID: f.general.ID, BedID: bed.ID,
		Scheme: "Ayushman Bharat",
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	if res.Invoice.Amount != 0 || res.Invoice.Status != billing.StatusWaived {
		t.Fatalf("admission invoice = %v/%s, want waived zero", res.Invoice.Amount, res.Invoice.Status)
	}

	p := res.Patient
	admitted := time.Now().UTC().Add(-71 * time.Hour)
	p.AdmissionDate = &admitted
	if _, err := f.patients.Update(ctx, p); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	out, err := f.svc.Discharge(ctx, DischargeInput{PatientID: p.ID})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if out.Invoice.Amount != 0 {
		t.Errorf("amount = %v, want 0", out.Invoice.Amount)
	}
	if out.Invoice.Status != billing.StatusWaived {
		t.Errorf("status = %s, want waived", out.Invoice.Status)
	}
	if out.Invoice.Breakdown["total"] != 3*2000.0+500+300 {
		t.Errorf("breakdown total = %v, want computed gross", out.Invoice.Breakdown["total"])
	}
	if out.Patient.Status != patient.StatusDischarged {
		t.Errorf("status = %s, want discharged", out.Patient.Status)
	}
	if got := f.bed(t, f.general, "G-1"); got.Status != ward.BedAvailable {
		t.Errorf("bed not freed: %+v", got)
	}
}

func TestDischarge_RejectsInactivePatient(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")

	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	if _, err := f.svc.Discharge(ctx, DischargeInput{PatientID: res.Patient.ID}); err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	_, err = f.svc.Discharge(ctx, DischargeInput{PatientID: res.Patient.ID})
	if !errors.Is(err, ErrNotAdmitted) {
		t.Errorf("err = %v, want ErrNotAdmitted", err)
	}
}

func TestDischarge_AttachesSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req summarizer.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"summary": "Stable at discharge."})
	}))
	defer srv.Close()

	f := newFixture(t, summarizer.New(srv.URL, ""))
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")
	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	out, err := f.svc.Discharge(ctx, DischargeInput{PatientID: res.Patient.ID})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if out.Summary != "Stable at discharge." {
		t.Errorf("summary = %q", out.Summary)
	}
}

func TestDischarge_SummaryFailureDoesNotBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newFixture(t, summarizer.New(srv.URL, ""))
	ctx := context.Background()
	bed := f.bed(t, f.general, "G-1")
	res, err := f.svc.AdmitIPD(ctx, IPDInput{
		Name: "Vikram Shah", Age: 51, WardID: f.general.ID, BedID: bed.ID,
	})
	if err != nil {
		t.Fatalf("AdmitIPD: %v", err)
	}
	out, err := f.svc.Discharge(ctx, DischargeInput{PatientID: res.Patient.ID})
	if err != nil {
		t.Fatalf("Discharge should not fail on summary error: %v", err)
	}
	if out.Summary != "" {
		t.Errorf("summary = %q, want empty", out.Summary)
	}
	if out.Patient.Status != patient.StatusDischarged {
		t.Errorf("status = %s, want discharged", out.Patient.Status)
	}
}

func TestStayDays(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name     string
		admitted time.Time
		want     int
	}{
		{"same moment", now, 1},
		{"six hours", now.Add(-6 * time.Hour), 1},
		{"just over one day", now.Add(-25 * time.Hour), 2},
		{"three days", now.Add(-72 * time.Hour), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stayDays(tc.admitted, now); got != tc.want {
				t.Errorf("stayDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestWorkflowError_Mapping(t *testing.T) {
	if he := workflowError(patient.ErrNotFound); he.Code != http.StatusNotFound {
		t.Errorf("not found mapped to %d", he.Code)
	}
	if he := workflowError(ErrAlreadyAdmitted); he.Code != http.StatusConflict {
		t.Errorf("already admitted mapped to %d", he.Code)
	}
	if he := workflowError(errors.New("boom")); he.Code != http.StatusBadRequest {
		t.Errorf("generic error mapped to %d", he.Code)
	}
}
