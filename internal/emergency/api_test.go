package emergency

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Asim-Shah-2004/medicine-app/internal/medicine"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// stubLister serves a fixed medicine list.
type stubLister struct {
	list []medicine.Medicine
	err  error
}

func (s stubLister) List(_ context.Context, _ types.ID) ([]medicine.Medicine, error) {
	return s.list, s.err
}

func testHandler(medicines MedicineLister) *Handler {
	return &Handler{
		medicines: medicines,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMedicationNames(t *testing.T) {
	h := testHandler(stubLister{list: []medicine.Medicine{
		{Name: "Aspirin", Dosage: "100mg"},
		{Name: "Insulin"},
	}})

	names := h.medicationNames(context.Background(), types.NewID())
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	if names[0] != "Aspirin 100mg" {
		t.Errorf("names[0] = %q, want dosage appended", names[0])
	}
	if names[1] != "Insulin" {
		t.Errorf("names[1] = %q, want bare name without dosage", names[1])
	}
}

func TestMedicationNamesDegradeOnError(t *testing.T) {
	h := testHandler(stubLister{err: fmt.Errorf("connection refused")})

	if names := h.medicationNames(context.Background(), types.NewID()); names != nil {
		t.Errorf("got %v, want nil when the list cannot be loaded", names)
	}
}

func snapshotRequest(raw string) *http.Request {
	target := "/"
	if raw != "" {
		target += "?current_user=" + url.QueryEscape(raw)
	}
	return httptest.NewRequest(http.MethodPost, target, nil)
}

func TestResolveSnapshotFillsMedications(t *testing.T) {
	h := testHandler(stubLister{list: []medicine.Medicine{
		{Name: "Aspirin", Dosage: "100mg"},
	}})

	// A client snapshot without a medication list gets the stored one.
	snapshot, err := h.resolveSnapshot(
		snapshotRequest(`{"name":"Asha Verma","health_profile":{"blood_group":"O+"}}`),
		types.NewID(),
	)
	if err != nil {
		t.Fatalf("resolveSnapshot: %v", err)
	}
	if snapshot.Name != "Asha Verma" {
		t.Errorf("name = %q, want the client value", snapshot.Name)
	}
	if len(snapshot.Medications) != 1 || snapshot.Medications[0] != "Aspirin 100mg" {
		t.Errorf("medications = %v, want the stored list", snapshot.Medications)
	}
}

func TestResolveSnapshotKeepsClientMedications(t *testing.T) {
	h := testHandler(stubLister{list: []medicine.Medicine{
		{Name: "Aspirin", Dosage: "100mg"},
	}})

	snapshot, err := h.resolveSnapshot(
		snapshotRequest(`{"name":"Asha Verma","medications":["Ibuprofen 200mg"]}`),
		types.NewID(),
	)
	if err != nil {
		t.Fatalf("resolveSnapshot: %v", err)
	}
	if len(snapshot.Medications) != 1 || snapshot.Medications[0] != "Ibuprofen 200mg" {
		t.Errorf("medications = %v, want the client list untouched", snapshot.Medications)
	}
}

func TestResolveSnapshotRejectsMalformedJSON(t *testing.T) {
	h := testHandler(stubLister{})

	if _, err := h.resolveSnapshot(snapshotRequest(`{not json`), types.NewID()); err == nil {
		t.Error("expected a bad request error")
	}
}
