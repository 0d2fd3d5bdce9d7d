package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDischargeSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/discharge-summary" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.UHID != "HMIS-GH01-000001" || req.StayDays != 3 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"summary": "Uneventful three day stay."})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	got, err := c.DischargeSummary(context.Background(), Request{
		PatientName:   "Asha Rao",
		UHID:          "HMIS-GH01-000001",
		AdmissionDate: time.Now().Add(-72 * time.Hour),
		DischargeDate: time.Now(),
		StayDays:      3,
	})
	if err != nil {
		t.Fatalf("DischargeSummary: %v", err)
	}
	if got != "Uneventful three day stay." {
		t.Errorf("summary = %q", got)
	}
}

func TestDischargeSummary_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, err := c.DischargeSummary(context.Background(), Request{}); err == nil {
		t.Error("expected error on 502")
	}
}

func TestDisabledClient(t *testing.T) {
	c := New("", "")
	if c.Enabled() {
		t.Error("client without URL should be disabled")
	}
	if _, err := c.DischargeSummary(context.Background(), Request{}); err == nil {
		t.Error("expected error from disabled client")
	}
}
