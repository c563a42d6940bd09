package notification

import (
	"strings"
	"testing"
	"time"
)

func baseAlert() *EmergencyAlert {
	return &EmergencyAlert{
		UserName:      "Asha Verma",
		Transcription: "I fell near the stairs",
		SentAt:        time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestRenderEmergencyEmail(t *testing.T) {
	lat, lng := 19.076, 72.8777
	alert := baseAlert()
	alert.Latitude = &lat
	alert.Longitude = &lng
	alert.BloodGroup = "O+"
	alert.Conditions = []string{"diabetes", "hypertension"}

	msg, err := RenderEmergencyEmail(alert, "Ravi", "ravi@example.com")
	if err != nil {
		t.Fatalf("RenderEmergencyEmail: %v", err)
	}

	if msg.ToAddress != "ravi@example.com" {
		t.Errorf("ToAddress = %q", msg.ToAddress)
	}
	if !strings.Contains(msg.Subject, "Asha Verma") {
		t.Errorf("subject should carry the user name, got %q", msg.Subject)
	}

	for _, body := range []string{msg.PlainBody, msg.HTMLBody} {
		if !strings.Contains(body, "EMERGENCY") {
			t.Error("body missing EMERGENCY header")
		}
		if !strings.Contains(body, "I fell near the stairs") {
			t.Error("body missing transcription")
		}
		if !strings.Contains(body, "https://maps.google.com/?q=19.076000,72.877700") {
			t.Error("body missing maps link")
		}
		if !strings.Contains(body, "O+") {
			t.Error("body missing blood group")
		}
		if !strings.Contains(body, "diabetes, hypertension") {
			t.Error("body missing conditions list")
		}
	}
}

func TestRenderEmergencyEmailOmitsAbsentSections(t *testing.T) {
	alert := baseAlert()
	alert.Transcription = ""

	msg, err := RenderEmergencyEmail(alert, "Ravi", "ravi@example.com")
	if err != nil {
		t.Fatalf("RenderEmergencyEmail: %v", err)
	}

	if strings.Contains(msg.PlainBody, "maps.google.com") {
		t.Error("no coordinates were given, body should carry no maps link")
	}
	if strings.Contains(msg.PlainBody, "Blood group") {
		t.Error("empty blood group should be omitted")
	}
	if strings.Contains(msg.PlainBody, "Allergies") {
		t.Error("empty allergies should be omitted")
	}
	if strings.Contains(msg.PlainBody, `""`) {
		t.Error("empty transcription should not render empty quotes")
	}
	if msg.PlainBody == "" {
		t.Error("plain-text fallback must always be generated")
	}
}

func TestRenderEmergencySMS(t *testing.T) {
	lat, lng := 19.076, 72.8777
	alert := baseAlert()
	alert.Latitude = &lat
	alert.Longitude = &lng

	msg, err := RenderEmergencySMS(alert, "+919876543210")
	if err != nil {
		t.Fatalf("RenderEmergencySMS: %v", err)
	}

	if msg.ToNumber != "+919876543210" {
		t.Errorf("ToNumber = %q", msg.ToNumber)
	}
	if !strings.Contains(msg.Body, "Asha Verma") {
		t.Error("sms missing user name")
	}
	if !strings.Contains(msg.Body, "maps.google.com") {
		t.Error("sms missing maps link")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"09876543210", "+919876543210"},
		{"098765 43210", "+919876543210"},
		{"(098) 765-432.10", "+919876543210"},
		{"9876543210", "+919876543210"},
		{"+14155550100", "+14155550100"},
		{"+91 98765 43210", "+919876543210"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizePhone(tt.input, "+91"); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
