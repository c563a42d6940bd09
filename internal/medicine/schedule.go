package medicine

import (
	"strings"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Schedule evaluation is pure: no I/O, no clock reads. Callers pass the
// target date explicitly, which keeps the functions trivially testable and
// makes the "server's local calendar day" policy a caller concern.

// DueOn reports whether the recurrence rule fires on the given date.
// Unrecognized kinds evaluate to false: the evaluator fails closed rather
// than erroring deep inside schedule generation.
func (r Recurrence) DueOn(d types.Date) bool {
	switch r.Kind {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		weekday := d.Weekday().String()
		for _, day := range r.Weekdays {
			if strings.EqualFold(day, weekday) {
				return true
			}
		}
		return false
	case FrequencyMonthly:
		for _, day := range r.MonthDays {
			if day == d.Day() {
				return true
			}
		}
		return false
	case FrequencySpecificDates:
		target := d.String()
		for _, date := range r.Dates {
			if date == target {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CompletedOn reports whether the medicine has a completed adherence entry
// for the given date. Multiple entries per date are tolerated; one
// completed entry is sufficient.
func (m *Medicine) CompletedOn(d types.Date) bool {
	for _, entry := range m.History {
		if entry.Completed && entry.Date.Equal(d) {
			return true
		}
	}
	return false
}
