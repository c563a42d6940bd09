package medicine

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Handler provides HTTP handlers for the medicine module
type Handler struct {
	service *Service
}

// NewHandler creates a new medicine handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the medicine routes. All routes assume the auth
// middleware has already populated the user ID in context.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMedicines)
	r.Post("/", h.CreateMedicine)
	r.Get("/today", h.DueToday)
	r.Get("/schedule", h.GetSchedule)
	r.Get("/progress", h.GetProgress)

	r.Route("/{medicineID}", func(r chi.Router) {
		r.Put("/", h.UpdateMedicine)
		r.Delete("/", h.DeleteMedicine)
		r.Post("/status", h.MarkStatus)
	})

	return r
}

// ListMedicines lists all medicines for the authenticated user
func (h *Handler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.List(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"medicines": medicines})
}

// CreateMedicine adds a medicine to the user's schedule
func (h *Handler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var m Medicine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), auth.GetUserID(r.Context()), &m)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateMedicine applies a partial update to a medicine
func (h *Handler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID, err := types.ParseID(chi.URLParam(r, "medicineID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid medicine ID"))
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	updated, err := h.service.Update(r.Context(), auth.GetUserID(r.Context()), medicineID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteMedicine removes a medicine and its history
func (h *Handler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID, err := types.ParseID(chi.URLParam(r, "medicineID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid medicine ID"))
		return
	}

	if err := h.service.Delete(r.Context(), auth.GetUserID(r.Context()), medicineID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DueToday lists the medicines due on the current date
func (h *Handler) DueToday(w http.ResponseWriter, r *http.Request) {
	today := types.Today()
	due, err := h.service.DueToday(r.Context(), auth.GetUserID(r.Context()), today)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":      today,
		"medicines": due,
	})
}

// GetSchedule expands the user's schedule over a date window. Without
// query parameters the window is the current Monday-based week;
// start_date alone implies start_date plus six days.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	var start, end types.Date

	if s := r.URL.Query().Get("start_date"); s != "" {
		parsed, err := types.ParseDate(s)
		if err != nil {
			writeError(w, errors.BadRequest("start_date must be YYYY-MM-DD"))
			return
		}
		start = parsed
	} else {
		start = types.Today().StartOfWeek()
	}

	if e := r.URL.Query().Get("end_date"); e != "" {
		parsed, err := types.ParseDate(e)
		if err != nil {
			writeError(w, errors.BadRequest("end_date must be YYYY-MM-DD"))
			return
		}
		end = parsed
	} else {
		end = start.AddDays(6)
	}

	schedule, err := h.service.Schedule(r.Context(), auth.GetUserID(r.Context()), start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"schedule":   schedule,
		"start_date": start,
		"end_date":   end,
	})
}

// GetProgress reports today's completion ratio
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.DailyProgress(r.Context(), auth.GetUserID(r.Context()), types.Today())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// MarkStatus records whether a medicine was taken today
func (h *Handler) MarkStatus(w http.ResponseWriter, r *http.Request) {
	medicineID, err := types.ParseID(chi.URLParam(r, "medicineID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid medicine ID"))
		return
	}

	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		writeError(w, errors.BadRequest("completed is required"))
		return
	}

	err = h.service.MarkStatus(r.Context(), auth.GetUserID(r.Context()), medicineID, *req.Completed, types.Today())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "status recorded",
		"completed": *req.Completed,
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
