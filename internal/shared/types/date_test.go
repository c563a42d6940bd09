package types

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2025-03-15", false},
		{"2024-02-29", false},
		{"2025-02-29", true},
		{"2025-13-01", true},
		{"15-03-2025", true},
		{"2025-3-5", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.input, d)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if d.String() != tt.input {
				t.Errorf("round trip: got %q, want %q", d.String(), tt.input)
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"monday maps to itself", "2025-03-10", "2025-03-10"},
		{"tuesday", "2025-03-11", "2025-03-10"},
		{"sunday belongs to previous monday", "2025-03-16", "2025-03-10"},
		{"saturday", "2025-03-15", "2025-03-10"},
		{"week spanning month boundary", "2025-04-02", "2025-03-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.date)
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}
			got := d.StartOfWeek()
			if got.String() != tt.want {
				t.Errorf("StartOfWeek(%s) = %s, want %s", tt.date, got, tt.want)
			}
			if got.Weekday() != time.Monday {
				t.Errorf("StartOfWeek(%s) is a %s, want Monday", tt.date, got.Weekday())
			}
		})
	}
}

func TestAddDaysAcrossMonthEnd(t *testing.T) {
	d, _ := ParseDate("2025-01-30")
	got := d.AddDays(3)
	if got.String() != "2025-02-02" {
		t.Errorf("AddDays(3) = %s, want 2025-02-02", got)
	}

	back := got.AddDays(-3)
	if !back.Equal(d) {
		t.Errorf("AddDays(-3) = %s, want %s", back, d)
	}
}

func TestDateOfStripsTime(t *testing.T) {
	ts := time.Date(2025, time.June, 7, 23, 59, 58, 0, time.UTC)
	d := DateOf(ts)
	if d.String() != "2025-06-07" {
		t.Errorf("DateOf = %s, want 2025-06-07", d)
	}

	other := NewDate(2025, time.June, 7)
	if !d.Equal(other) {
		t.Error("dates naming the same day should be equal")
	}
}
