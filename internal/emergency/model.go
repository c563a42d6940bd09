package emergency

import (
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

// Request is one recorded alert event. It is written once, before any
// notification is attempted, and never mutated afterwards.
type Request struct {
	ID            types.ID           `json:"id"`
	UserID        types.ID           `json:"user_id"`
	UserName      string             `json:"user_name"`
	Transcription string             `json:"transcription,omitempty"`
	Latitude      *float64           `json:"latitude,omitempty"`
	Longitude     *float64           `json:"longitude,omitempty"`
	HealthInfo    user.HealthProfile `json:"health_info"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

// StatusPending is the only request status in use. Requests are an
// append-only log; nothing transitions them.
const StatusPending = "pending"

// Coordinates is the location payload attached to a help request.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Snapshot is the client-supplied view of the alerting user. Clients send
// it with the help request so dispatch can proceed even when the request
// races a profile edit; the stored profile is the fallback when absent.
type Snapshot struct {
	Name              string                  `json:"name"`
	HealthProfile     user.HealthProfile      `json:"health_profile"`
	EmergencyContacts []user.EmergencyContact `json:"emergency_contacts"`
	Medications       []string                `json:"medications,omitempty"`
}

// ContactResult reports the delivery outcome for one contact.
type ContactResult struct {
	Name      string `json:"name"`
	EmailSent bool   `json:"email_sent"`
	SMSSent   *bool  `json:"sms_sent,omitempty"`
}
