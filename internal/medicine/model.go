package medicine

import (
	"strings"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// FrequencyKind is the closed set of recurrence rules a medicine can have.
type FrequencyKind string

const (
	FrequencyDaily         FrequencyKind = "daily"
	FrequencyWeekly        FrequencyKind = "weekly"
	FrequencyMonthly       FrequencyKind = "monthly"
	FrequencySpecificDates FrequencyKind = "specific_dates"
)

// Medicine is one scheduled medication, embedded in its owning user's
// document. The flat frequency fields mirror the wire format; Recurrence()
// gives the tagged view used by schedule evaluation.
type Medicine struct {
	ID          types.ID       `json:"id"`
	Name        string         `json:"name"`
	Dosage      string         `json:"dosage"`
	Time        string         `json:"time"` // zero-padded HH:MM
	Frequency   FrequencyKind  `json:"frequency"`
	Days        []string       `json:"days,omitempty"`          // weekly: weekday names
	DaysOfMonth []int          `json:"days_of_month,omitempty"` // monthly: 1-31
	Dates       []string       `json:"dates,omitempty"`         // specific_dates: YYYY-MM-DD
	Notes       string         `json:"notes,omitempty"`
	History     []HistoryEntry `json:"history"`
	LastStatus  *bool          `json:"last_status,omitempty"`
	LastTaken   *time.Time     `json:"last_taken,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HistoryEntry is one recorded adherence event for a medicine.
type HistoryEntry struct {
	Date      types.Date `json:"date"`
	Time      string     `json:"time"` // HH:MM when the entry was recorded
	Completed bool       `json:"completed"`
}

// Recurrence is the tagged-variant view of a medicine's schedule.
type Recurrence struct {
	Kind      FrequencyKind
	Weekdays  []string
	MonthDays []int
	Dates     []string
}

// Recurrence returns the medicine's recurrence descriptor.
func (m *Medicine) Recurrence() Recurrence {
	return Recurrence{
		Kind:      m.Frequency,
		Weekdays:  m.Days,
		MonthDays: m.DaysOfMonth,
		Dates:     m.Dates,
	}
}

var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Validate checks the medicine's user-supplied fields, in particular that
// the frequency payload matches the discriminator. Mixed payloads (a weekly
// medicine carrying dates) are rejected at the boundary so the evaluator
// never has to care.
func (m *Medicine) Validate() error {
	details := map[string]string{}

	if m.Name == "" {
		details["name"] = "name is required"
	}
	if m.Dosage == "" {
		details["dosage"] = "dosage is required"
	}
	if !validTimeOfDay(m.Time) {
		details["time"] = "time must be HH:MM in 24-hour format"
	}

	switch m.Frequency {
	case FrequencyDaily:
		if len(m.Days) > 0 || len(m.DaysOfMonth) > 0 || len(m.Dates) > 0 {
			details["frequency"] = "daily medicines carry no day list"
		}
	case FrequencyWeekly:
		if len(m.Days) == 0 {
			details["days"] = "weekly medicines require at least one weekday"
		}
		for _, day := range m.Days {
			if !weekdayNames[strings.ToLower(day)] {
				details["days"] = "unknown weekday: " + day
			}
		}
		if len(m.DaysOfMonth) > 0 || len(m.Dates) > 0 {
			details["frequency"] = "weekly medicines carry only a weekday list"
		}
	case FrequencyMonthly:
		if len(m.DaysOfMonth) == 0 {
			details["days_of_month"] = "monthly medicines require at least one day of month"
		}
		for _, day := range m.DaysOfMonth {
			if day < 1 || day > 31 {
				details["days_of_month"] = "days of month must be 1-31"
			}
		}
		if len(m.Days) > 0 || len(m.Dates) > 0 {
			details["frequency"] = "monthly medicines carry only a day-of-month list"
		}
	case FrequencySpecificDates:
		if len(m.Dates) == 0 {
			details["dates"] = "specific_dates medicines require at least one date"
		}
		for _, d := range m.Dates {
			if _, err := types.ParseDate(d); err != nil {
				details["dates"] = "dates must be YYYY-MM-DD"
			}
		}
		if len(m.Days) > 0 || len(m.DaysOfMonth) > 0 {
			details["frequency"] = "specific_dates medicines carry only a date list"
		}
	default:
		details["frequency"] = "frequency must be one of daily, weekly, monthly, specific_dates"
	}

	if len(details) > 0 {
		return errors.Validation("invalid medicine", details)
	}
	return nil
}

func validTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}
