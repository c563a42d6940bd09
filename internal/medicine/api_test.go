package medicine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

func scheduleRequest(t *testing.T, h *Handler, userID types.ID, target string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()

	h.GetSchedule(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestGetScheduleDateParams(t *testing.T) {
	userID := types.NewID()
	store := newMemStore(userID)
	svc := testService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, userID, &Medicine{
		Name: "Aspirin", Dosage: "100mg", Time: "08:00", Frequency: FrequencyDaily,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h := NewHandler(svc)

	body := scheduleRequest(t, h, userID, "/schedule?start_date=2025-03-10&end_date=2025-03-11")

	if body["start_date"] != "2025-03-10" || body["end_date"] != "2025-03-11" {
		t.Errorf("window = %v..%v, want 2025-03-10..2025-03-11", body["start_date"], body["end_date"])
	}

	schedule, ok := body["schedule"].(map[string]any)
	if !ok {
		t.Fatalf("schedule is %T, want an object keyed by date", body["schedule"])
	}
	if len(schedule) != 2 {
		t.Errorf("schedule has %d date keys, want 2", len(schedule))
	}
	if _, ok := schedule["2025-03-10"]; !ok {
		t.Error("schedule missing the requested start date")
	}

	// start_date alone expands to a seven day window.
	body = scheduleRequest(t, h, userID, "/schedule?start_date=2025-03-10")
	if body["end_date"] != "2025-03-16" {
		t.Errorf("end_date = %v, want 2025-03-16", body["end_date"])
	}
}

func TestGetScheduleRejectsMalformedDate(t *testing.T) {
	userID := types.NewID()
	svc := testService(newMemStore(userID))
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/schedule?start_date="+time.Now().Format("02-01-2006"), nil)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()

	h.GetSchedule(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
