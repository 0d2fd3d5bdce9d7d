package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hmis/hmis/internal/platform/kvstore"
)

func newTestService(t *testing.T) (*Service, *kvstore.Store) {
	t.Helper()
	store, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestLabOrderLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.OrderLab(ctx, "HMIS-GH01-000001", "CBC", "Dr. Rao")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	if order.Status != LabOrdered {
		t.Errorf("status = %s, want ordered", order.Status)
	}

	done, err := svc.SetLabStatus(ctx, order.ID, LabCompleted, "WBC 7.2")
	if err != nil {
		t.Fatalf("SetLabStatus: %v", err)
	}
	if done.Status != LabCompleted || done.Result != "WBC 7.2" {
		t.Errorf("order = %+v", done)
	}

	if _, err := svc.SetLabStatus(ctx, uuid.New(), LabCompleted, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.SetLabStatus(ctx, order.ID, "misplaced", ""); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLabOrders_FilterAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.OrderLab(ctx, "U-1", "CBC", "Dr. Rao"); err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	if _, err := svc.OrderLab(ctx, "U-2", "LFT", "Dr. Rao"); err != nil {
		t.Fatalf("OrderLab: %v", err)
	}

	all := svc.LabOrders(ctx, "")
	if len(all) != 2 || all[0].Test != "LFT" {
		t.Errorf("expected newest first, got %+v", all[0])
	}
	if got := svc.LabOrders(ctx, "U-1"); len(got) != 1 || got[0].Test != "CBC" {
		t.Errorf("uhid filter = %+v", got)
	}
}

func TestRounds(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AddRound(ctx, "U-1", "Dr. Rao", "Afebrile, continue plan."); err != nil {
		t.Fatalf("AddRound: %v", err)
	}
	if _, err := svc.AddRound(ctx, "U-1", "", ""); err == nil {
		t.Error("expected error for empty notes")
	}

	reloaded, err := NewService(store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rounds := reloaded.Rounds(ctx, "U-1")
	if len(rounds) != 1 || rounds[0].Notes != "Afebrile, continue plan." {
		t.Errorf("rounds after reload = %+v", rounds)
	}
}

func TestBookTheatre_RejectsOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.BookTheatre(ctx, &OTBooking{
		UHID: "U-1", Procedure: "Appendectomy", Theatre: "OT-1",
		Start: base, End: base.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("BookTheatre: %v", err)
	}

	_, err := svc.BookTheatre(ctx, &OTBooking{
		UHID: "U-2", Procedure: "Hernia Repair", Theatre: "OT-1",
		Start: base.Add(time.Hour), End: base.Add(3 * time.Hour),
	})
	if !errors.Is(err, ErrTheatreConflict) {
		t.Errorf("err = %v, want ErrTheatreConflict", err)
	}

	// same window in another theatre is fine
	if _, err := svc.BookTheatre(ctx, &OTBooking{
		UHID: "U-2", Procedure: "Hernia Repair", Theatre: "OT-2",
		Start: base.Add(time.Hour), End: base.Add(3 * time.Hour),
	}); err != nil {
		t.Errorf("different theatre rejected: %v", err)
	}

	// back-to-back in the same theatre is fine
	if _, err := svc.BookTheatre(ctx, &OTBooking{
		UHID: "U-3", Procedure: "Debridement", Theatre: "OT-1",
		Start: base.Add(2 * time.Hour), End: base.Add(4 * time.Hour),
	}); err != nil {
		t.Errorf("back-to-back booking rejected: %v", err)
	}
}

func TestBookTheatre_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Now().UTC()

	if _, err := svc.BookTheatre(ctx, &OTBooking{
		Procedure: "X", Start: base, End: base.Add(time.Hour),
	}); err == nil {
		t.Error("expected error for missing theatre")
	}
	if _, err := svc.BookTheatre(ctx, &OTBooking{
		Theatre: "OT-1", Procedure: "X", Start: base, End: base,
	}); err == nil {
		t.Error("expected error for empty window")
	}
}
