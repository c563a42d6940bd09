package user

import (
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// User is one account with its embedded profile documents. Medicines are
// embedded in the same row but owned by the medicine module.
type User struct {
	ID                 types.ID           `json:"id"`
	Email              string             `json:"email"`
	Username           string             `json:"username"`
	PasswordHash       string             `json:"-"`
	FirstName          string             `json:"first_name,omitempty"`
	LastName           string             `json:"last_name,omitempty"`
	DateOfBirth        *types.Date        `json:"date_of_birth,omitempty"`
	Gender             string             `json:"gender,omitempty"`
	PhoneNumber        string             `json:"phone_number,omitempty"`
	HealthProfile      HealthProfile      `json:"health_profile"`
	EmergencyContacts  []EmergencyContact `json:"emergency_contacts"`
	OnboardingStep     int                `json:"onboarding_step"`
	OnboardingComplete bool               `json:"onboarding_complete"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// DisplayName returns the user's name for notifications, falling back to
// the username when no name was set.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// HealthProfile holds the medical details shared with emergency contacts.
type HealthProfile struct {
	BloodGroup string   `json:"blood_group,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Allergies  []string `json:"allergies,omitempty"`
	HeightCm   *float64 `json:"height_cm,omitempty"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
}

// EmergencyContact is a person to notify when the user signals distress.
type EmergencyContact struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}
