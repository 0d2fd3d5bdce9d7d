package kvstore

import (
	"testing"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func TestGetJSON_Missing(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	var out []record
	found, err := s.GetJSON("patients", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found for unwritten key")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := OpenInMemory()
	defer s.Close()

	in := []record{
		{ID: "a", Name: "Ramesh Kumar", Qty: 3},
		{ID: "b", Name: "Sita Devi", Qty: 0},
	}
	if err := s.PutJSON("patients", in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out []record
	found, err := s.GetJSON("patients", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestPutJSON_Replaces(t *testing.T) {
	s, _ := OpenInMemory()
	defer s.Close()

	s.PutJSON("wards", []record{{ID: "w1"}})
	s.PutJSON("wards", []record{{ID: "w2"}, {ID: "w3"}})

	var out []record
	s.GetJSON("wards", &out)
	if len(out) != 2 || out[0].ID != "w2" {
		t.Errorf("expected replaced blob, got %+v", out)
	}
}

func TestDelete(t *testing.T) {
	s, _ := OpenInMemory()
	defer s.Close()

	s.PutJSON("currentUser", record{ID: "u1"})
	if err := s.Delete("currentUser"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out record
	found, _ := s.GetJSON("currentUser", &out)
	if found {
		t.Error("expected key gone after delete")
	}

	// Deleting again is not an error.
	if err := s.Delete("currentUser"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNextSeq(t *testing.T) {
	s, _ := OpenInMemory()
	defer s.Close()

	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextSeq("uhid")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	// Independent counters.
	got, _ := s.NextSeq("invoice")
	if got != 1 {
		t.Errorf("expected fresh counter to start at 1, got %d", got)
	}
}
