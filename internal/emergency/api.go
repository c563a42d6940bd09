package emergency

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Asim-Shah-2004/medicine-app/internal/medicine"
	"github.com/Asim-Shah-2004/medicine-app/internal/notification"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/auth"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/metrics"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

// maxAudioBytes bounds the uploaded voice clip.
const maxAudioBytes = 10 << 20

// transcriptionFallback is used when the caller asked for transcription
// but the transcriber failed. The alert still goes out with a generic
// message rather than failing the request.
const transcriptionFallback = "Emergency assistance needed. Voice message could not be transcribed."

// Transcriber converts an uploaded audio clip to text. Transcription is
// an external collaborator; failures degrade, they never fail a dispatch.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// MedicineLister supplies the current medication list rendered into the
// alert's health information.
type MedicineLister interface {
	List(ctx context.Context, userID types.ID) ([]medicine.Medicine, error)
}

// Handler provides the emergency help endpoint
type Handler struct {
	recorder    *Recorder
	dispatcher  *Dispatcher
	users       *user.Repository
	medicines   MedicineLister
	transcriber Transcriber
	logger      *slog.Logger
}

// NewHandler creates a new emergency handler. The transcriber may be nil
// when no transcription backend is configured.
func NewHandler(recorder *Recorder, dispatcher *Dispatcher, users *user.Repository, medicines MedicineLister, transcriber Transcriber, logger *slog.Logger) *Handler {
	return &Handler{
		recorder:    recorder,
		dispatcher:  dispatcher,
		users:       users,
		medicines:   medicines,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Routes registers the emergency routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Help)
	r.Get("/history", h.History)
	return r
}

// Help handles an emergency alert: persist the event, then fan out
// notifications. Once the event is recorded the response is a success no
// matter what delivery does; the caller pressed the help button and needs
// an acknowledgement, not an errand list.
func (h *Handler) Help(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, errors.BadRequest("invalid multipart form"))
		return
	}

	audio, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"audio": "audio file is required",
		}))
		return
	}
	defer audio.Close()

	var coords *Coordinates
	if raw := r.FormValue("coordinates"); raw != "" {
		coords = &Coordinates{}
		if err := json.Unmarshal([]byte(raw), coords); err != nil {
			writeError(w, errors.BadRequest("coordinates must be JSON with latitude and longitude"))
			return
		}
	}

	userID := auth.GetUserID(r.Context())
	snapshot, err := h.resolveSnapshot(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	transcription := ""
	if r.FormValue("transcribe") == "true" {
		transcription = h.transcribe(r.Context(), audio, header.Filename)
	}

	req := &Request{
		UserID:        userID,
		UserName:      snapshot.Name,
		Transcription: transcription,
		HealthInfo:    snapshot.HealthProfile,
	}
	if coords != nil {
		req.Latitude = &coords.Latitude
		req.Longitude = &coords.Longitude
	}

	if err := h.recorder.Record(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordEmergencyRequest()

	alert := &notification.EmergencyAlert{
		UserName:      snapshot.Name,
		Transcription: transcription,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		BloodGroup:    snapshot.HealthProfile.BloodGroup,
		Conditions:    snapshot.HealthProfile.Conditions,
		Allergies:     snapshot.HealthProfile.Allergies,
		Medications:   snapshot.Medications,
		SentAt:        req.CreatedAt,
	}

	results := h.dispatcher.Notify(r.Context(), snapshot.EmergencyContacts, alert)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "emergency request recorded",
		"data": map[string]any{
			"request_id":         req.ID,
			"transcription":      transcription,
			"notifications_sent": results,
		},
	})
}

// History lists the authenticated user's past emergency requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	requests, err := h.recorder.ListByUser(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// resolveSnapshot prefers the client-supplied user snapshot and falls
// back to the stored profile when the request carries none. A snapshot
// without a medication list gets one from the stored medicines.
func (h *Handler) resolveSnapshot(r *http.Request, userID types.ID) (*Snapshot, error) {
	if raw := r.FormValue("current_user"); raw != "" {
		snapshot := &Snapshot{}
		if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
			return nil, errors.BadRequest("current_user must be valid JSON")
		}
		if snapshot.Medications == nil {
			snapshot.Medications = h.medicationNames(r.Context(), userID)
		}
		return snapshot, nil
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Name:              u.DisplayName(),
		HealthProfile:     u.HealthProfile,
		EmergencyContacts: u.EmergencyContacts,
		Medications:       h.medicationNames(r.Context(), userID),
	}, nil
}

// medicationNames lists the user's medicines as "name dosage" strings.
// Best effort: an alert with no medication list still goes out.
func (h *Handler) medicationNames(ctx context.Context, userID types.ID) []string {
	if h.medicines == nil {
		return nil
	}

	list, err := h.medicines.List(ctx, userID)
	if err != nil {
		h.logger.Warn("failed to load medications for alert", "user_id", userID, "error", err)
		return nil
	}

	names := make([]string, 0, len(list))
	for _, m := range list {
		name := m.Name
		if m.Dosage != "" {
			name += " " + m.Dosage
		}
		names = append(names, name)
	}
	return names
}

func (h *Handler) transcribe(ctx context.Context, audio io.Reader, filename string) string {
	if h.transcriber == nil {
		return transcriptionFallback
	}

	text, err := h.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		h.logger.Warn("transcription failed", "error", err)
		return transcriptionFallback
	}
	return text
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
