package user

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Asim-Shah-2004/medicine-app/internal/medicine"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Handler provides HTTP handlers for profile and onboarding
type Handler struct {
	repo      *Repository
	medicines *medicine.Service
}

// NewHandler creates a new user handler
func NewHandler(repo *Repository, medicines *medicine.Service) *Handler {
	return &Handler{repo: repo, medicines: medicines}
}

// ProfileRoutes registers the profile routes
func (h *Handler) ProfileRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	return r
}

// OnboardingRoutes registers the onboarding routes
func (h *Handler) OnboardingRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.OnboardingStatus)
	r.Post("/profile/basic", h.OnboardingBasic)
	r.Post("/profile/health", h.OnboardingHealth)
	r.Post("/medications", h.OnboardingMedications)
	r.Post("/complete", h.OnboardingComplete)
	return r
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// UpdateProfileRequest is a partial profile update. Absent fields keep
// their stored values; the password hash and created_at cannot be reached
// through this payload at all.
type UpdateProfileRequest struct {
	Email             *string             `json:"email"`
	Username          *string             `json:"username"`
	FirstName         *string             `json:"first_name"`
	LastName          *string             `json:"last_name"`
	DateOfBirth       *string             `json:"date_of_birth"`
	Gender            *string             `json:"gender"`
	PhoneNumber       *string             `json:"phone_number"`
	HealthProfile     *HealthProfile      `json:"health_profile"`
	EmergencyContacts *[]EmergencyContact `json:"emergency_contacts"`
}

// UpdateProfile applies a partial update to the profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Email != nil {
		if !validEmail(*req.Email) {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"email": "invalid email address",
			}))
			return
		}
		u.Email = *req.Email
	}
	if req.Username != nil {
		if *req.Username == "" {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"username": "username cannot be empty",
			}))
			return
		}
		u.Username = *req.Username
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		dob, err := types.ParseDate(*req.DateOfBirth)
		if err != nil {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"date_of_birth": "must be YYYY-MM-DD",
			}))
			return
		}
		u.DateOfBirth = &dob
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.HealthProfile != nil {
		u.HealthProfile = *req.HealthProfile
	}
	if req.EmergencyContacts != nil {
		u.EmergencyContacts = *req.EmergencyContacts
	}

	if err := h.repo.UpdateProfile(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// OnboardingStatus reports how far the user has progressed through setup
func (h *Handler) OnboardingStatus(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"onboarding_step":     u.OnboardingStep,
		"onboarding_complete": u.OnboardingComplete,
	})
}

// OnboardingBasic records the basic profile step
func (h *Handler) OnboardingBasic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		DateOfBirth string `json:"date_of_birth"`
		Gender      string `json:"gender"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if req.DateOfBirth == "" {
		details["date_of_birth"] = "date_of_birth is required"
	}
	if req.Gender == "" {
		details["gender"] = "gender is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	dob, err := types.ParseDate(req.DateOfBirth)
	if err != nil {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"date_of_birth": "must be YYYY-MM-DD",
		}))
		return
	}

	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.DateOfBirth = &dob
	u.Gender = req.Gender
	u.PhoneNumber = req.PhoneNumber
	if u.OnboardingStep < 2 {
		u.OnboardingStep = 2
	}

	if err := h.repo.UpdateProfile(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "basic profile saved",
		"onboarding_step": u.OnboardingStep,
	})
}

// OnboardingHealth records the health profile step
func (h *Handler) OnboardingHealth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BloodGroup string    `json:"blood_group"`
		Conditions *[]string `json:"conditions"`
		Allergies  *[]string `json:"allergies"`
		HeightCm   *float64  `json:"height_cm"`
		WeightKg   *float64  `json:"weight_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	// Empty lists are meaningful answers ("none"); absent lists are not.
	details := map[string]string{}
	if req.Conditions == nil {
		details["conditions"] = "conditions list is required"
	}
	if req.Allergies == nil {
		details["allergies"] = "allergies list is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	u.HealthProfile = HealthProfile{
		BloodGroup: req.BloodGroup,
		Conditions: *req.Conditions,
		Allergies:  *req.Allergies,
		HeightCm:   req.HeightCm,
		WeightKg:   req.WeightKg,
	}
	if u.OnboardingStep < 3 {
		u.OnboardingStep = 3
	}

	if err := h.repo.UpdateProfile(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "health profile saved",
		"onboarding_step": u.OnboardingStep,
	})
}

// OnboardingMedications bulk-adds the user's initial medicines
func (h *Handler) OnboardingMedications(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Medications []medicine.Medicine `json:"medications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	userID := auth.GetUserID(r.Context())
	created := make([]*medicine.Medicine, 0, len(req.Medications))
	for i := range req.Medications {
		m, err := h.medicines.Create(r.Context(), userID, &req.Medications[i])
		if err != nil {
			writeError(w, err)
			return
		}
		created = append(created, m)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "medications saved",
		"medicines": created,
	})
}

// OnboardingComplete marks onboarding as finished
func (h *Handler) OnboardingComplete(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetByID(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	u.OnboardingComplete = true

	if err := h.repo.UpdateProfile(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "onboarding complete",
		"onboarding_complete": true,
	})
}

// validEmail is a cheap syntax check, not RFC validation.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
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
