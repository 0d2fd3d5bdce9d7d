package billing

import (
	"context"
	"testing"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

func newMemRepo(t *testing.T) (Repository, *kvstore.Store) {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	repo, err := NewKVRepo(store)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo, store
}

func TestKVRepo_AppendAtFront(t *testing.T) {
	repo, _ := newMemRepo(t)
	ctx := context.Background()
	for _, name := range []string{"First", "Second"} {
		inv := NewInvoice(name, "U-1", SchemeGeneral, []LineItem{{"Fee", 10}}, 0, 0)
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].PatientName != "Second" {
		t.Errorf("expected newest first, got %s", all[0].PatientName)
	}
}

func TestKVRepo_SurvivesReload(t *testing.T) {
	repo, store := newMemRepo(t)
	ctx := context.Background()
	inv := NewInvoice("Asha Rao", "U-1", SchemeGeneral,
		[]LineItem{{"Registration Fee", 10}, {"Consultation Fee", 50}}, 0, 0)
	inv.Number = "INV-000001"
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reloaded, err := NewKVRepo(store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID after reload: %v", err)
	}
	if got.Amount != 60 || len(got.Items) != 2 || got.Breakdown["subtotal"] != 60 {
		t.Errorf("reloaded invoice lost fields: %+v", got)
	}
}

func TestKVRepo_GetReturnsCopy(t *testing.T) {
	repo, _ := newMemRepo(t)
	ctx := context.Background()
	inv := NewInvoice("Asha Rao", "U-1", SchemeGeneral, []LineItem{{"Fee", 10}}, 0, 0)
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, _ := repo.GetByID(ctx, inv.ID)
	got.Items[0].Amount = 999
	got.Breakdown["subtotal"] = 999

	again, _ := repo.GetByID(ctx, inv.ID)
	if again.Items[0].Amount != 10 || again.Breakdown["subtotal"] != 10 {
		t.Errorf("stored invoice was mutated through a returned copy: %+v", again)
	}
}

func TestKVRepo_UpdateUnknown(t *testing.T) {
	repo, _ := newMemRepo(t)
	inv := NewInvoice("Ghost", "U-9", SchemeGeneral, nil, 0, 0)
	if err := repo.Update(context.Background(), inv); err == nil {
		t.Error("expected error updating unknown invoice")
	}
}

func TestExportXLSX_ProducesWorkbook(t *testing.T) {
	invoices := []*Invoice{
		NewInvoice("Asha Rao", "U-1", SchemeGeneral, []LineItem{{"Consultation Fee", 50}}, 0, 0),
		NewInvoice("Meena Iyer", "U-2", "CGHS", []LineItem{{"Admission Deposit", 3000}}, 0, 0),
	}
	invoices[0].Number = "INV-000001"
	invoices[1].Number = "INV-000002"

	data, err := ExportXLSX(invoices)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty workbook")
	}
	// xlsx files are zip archives
	if data[0] != 'P' || data[1] != 'K' {
		t.Errorf("unexpected magic bytes % x", data[:2])
	}
}
