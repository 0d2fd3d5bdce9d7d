package pharmacy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/domain/billing"
	"github.com/hmis/hmis/internal/platform/kvstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	repo, err := NewKVRepo(store)
	if err != nil {
		t.Fatalf("pharmacy repo: %v", err)
	}
	billingRepo, err := billing.NewKVRepo(store)
	if err != nil {
		t.Fatalf("billing repo: %v", err)
	}
	return NewService(repo, billing.NewService(billingRepo))
}

func seedItem(t *testing.T, svc *Service, name string, qty int, price float64) *StockItem {
	t.Helper()
	item, err := svc.AddStock(context.Background(), &StockItem{
		Name:      name,
		Batch:     "B-1",
		Quantity:  qty,
		Unit:      "tab",
		UnitPrice: price,
		Expiry:    time.Now().AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return item
}

func TestAddStock_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AddStock(ctx, &StockItem{Quantity: 5}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := svc.AddStock(ctx, &StockItem{Name: "Paracetamol", Quantity: -1}); err == nil {
		t.Error("expected error for negative quantity")
	}
}

func TestDispense_DecrementsAndBills(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	para := seedItem(t, svc, "Paracetamol 500mg", 100, 2)
	amox := seedItem(t, svc, "Amoxicillin 250mg", 50, 8)

	inv, err := svc.Dispense(ctx, DispenseInput{
		PatientName: "Asha Rao",
		UHID:        "HMIS-GH01-000001",
		Lines: []DispenseLine{
			{ItemID: para.ID, Quantity: 10},
			{ItemID: amox.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if inv.Amount != 10*2+5*8 {
		t.Errorf("amount = %v, want 60", inv.Amount)
	}
	if inv.Status != billing.StatusPaid {
		t.Errorf("status = %s, want paid", inv.Status)
	}

	got, _ := svc.Get(ctx, para.ID)
	if got.Quantity != 90 {
		t.Errorf("paracetamol qty = %d, want 90", got.Quantity)
	}
	got, _ = svc.Get(ctx, amox.ID)
	if got.Quantity != 45 {
		t.Errorf("amoxicillin qty = %d, want 45", got.Quantity)
	}
}

func TestDispense_WaiverSchemeZeroesInvoice(t *testing.T) {
	svc := newTestService(t)
	item := seedItem(t, svc, "Paracetamol 500mg", 100, 2)

	inv, err := svc.Dispense(context.Background(), DispenseInput{
		PatientName: "Meena Iyer",
		Scheme:      "Ayushman Bharat",
		Lines:       []DispenseLine{{ItemID: item.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if inv.Amount != 0 || inv.Status != billing.StatusWaived {
		t.Errorf("invoice = %v/%s, want waived zero", inv.Amount, inv.Status)
	}
}

func TestDispense_ShortfallLeavesStockUntouched(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	para := seedItem(t, svc, "Paracetamol 500mg", 100, 2)
	amox := seedItem(t, svc, "Amoxicillin 250mg", 3, 8)

	_, err := svc.Dispense(ctx, DispenseInput{
		PatientName: "Asha Rao",
		Lines: []DispenseLine{
			{ItemID: para.ID, Quantity: 10},
			{ItemID: amox.ID, Quantity: 5},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	got, _ := svc.Get(ctx, para.ID)
	if got.Quantity != 100 {
		t.Errorf("paracetamol qty = %d, want untouched 100", got.Quantity)
	}
}

func TestDispense_RejectsExpiredBatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item, err := svc.AddStock(ctx, &StockItem{
		Name:      "Old Syrup",
		Quantity:  10,
		UnitPrice: 5,
		Expiry:    time.Now().AddDate(0, -1, 0),
	})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	_, err = svc.Dispense(ctx, DispenseInput{
		PatientName: "Asha Rao",
		Lines:       []DispenseLine{{ItemID: item.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrExpiredBatch) {
		t.Errorf("err = %v, want ErrExpiredBatch", err)
	}
}

func TestDispense_UnknownItem(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Dispense(context.Background(), DispenseInput{
		PatientName: "Asha Rao",
		Lines:       []DispenseLine{{ItemID: uuid.New(), Quantity: 1}},
	})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}
