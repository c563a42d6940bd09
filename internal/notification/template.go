package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// EmergencyAlert is the data rendered into contact notifications.
type EmergencyAlert struct {
	UserName      string
	ContactName   string
	Transcription string
	Latitude      *float64
	Longitude     *float64
	BloodGroup    string
	Conditions    []string
	Allergies     []string
	Medications   []string
	SentAt        time.Time
}

// HasLocation reports whether both coordinates are present.
func (a *EmergencyAlert) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// MapsLink returns a Google Maps link for the coordinates, or the empty
// string when no location was shared.
func (a *EmergencyAlert) MapsLink() string {
	if !a.HasLocation() {
		return ""
	}
	return fmt.Sprintf("https://maps.google.com/?q=%f,%f", *a.Latitude, *a.Longitude)
}

const emergencySubject = "EMERGENCY: %s needs help"

const emergencyPlain = `EMERGENCY ALERT

{{.UserName}} has triggered an emergency alert and listed you as an emergency contact.

{{if .Transcription}}Their message:
"{{.Transcription}}"

{{end}}{{if .HasLocation}}Last known location: {{.MapsLink}}

{{end}}{{if .BloodGroup}}Blood group: {{.BloodGroup}}
{{end}}{{if .Conditions}}Medical conditions: {{range $i, $c := .Conditions}}{{if $i}}, {{end}}{{$c}}{{end}}
{{end}}{{if .Allergies}}Allergies: {{range $i, $a := .Allergies}}{{if $i}}, {{end}}{{$a}}{{end}}
{{end}}{{if .Medications}}Current medications: {{range $i, $m := .Medications}}{{if $i}}, {{end}}{{$m}}{{end}}
{{end}}
Sent at {{.SentAt.Format "2006-01-02 15:04:05 MST"}}.
Please try to reach them immediately.
`

const emergencyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="background-color: #d32f2f; color: #fff; padding: 16px; text-align: center;">
    <h1 style="margin: 0;">EMERGENCY ALERT</h1>
  </div>
  <div style="padding: 16px;">
    <p><strong>{{.UserName}}</strong> has triggered an emergency alert and listed you as an emergency contact.</p>
    {{if .Transcription}}<blockquote style="border-left: 4px solid #d32f2f; padding-left: 12px; font-style: italic;">{{.Transcription}}</blockquote>{{end}}
    {{if .HasLocation}}<p><a href="{{.MapsLink}}" style="color: #d32f2f;">View last known location</a></p>{{end}}
    {{if or .BloodGroup .Conditions .Allergies .Medications}}
    <h3>Health information</h3>
    <ul>
      {{if .BloodGroup}}<li><strong>Blood group:</strong> {{.BloodGroup}}</li>{{end}}
      {{if .Conditions}}<li><strong>Conditions:</strong> {{range $i, $c := .Conditions}}{{if $i}}, {{end}}{{$c}}{{end}}</li>{{end}}
      {{if .Allergies}}<li><strong>Allergies:</strong> {{range $i, $a := .Allergies}}{{if $i}}, {{end}}{{$a}}{{end}}</li>{{end}}
      {{if .Medications}}<li><strong>Medications:</strong> {{range $i, $m := .Medications}}{{if $i}}, {{end}}{{$m}}{{end}}</li>{{end}}
    </ul>
    {{end}}
    <p style="color: #666; font-size: 12px;">Sent at {{.SentAt.Format "2006-01-02 15:04:05 MST"}}. Please try to reach them immediately.</p>
  </div>
</body>
</html>
`

const emergencySMS = `EMERGENCY: {{.UserName}} needs help.{{if .Transcription}} "{{.Transcription}}"{{end}}{{if .HasLocation}} Location: {{.MapsLink}}{{end}} Please try to reach them immediately.`

var (
	plainTemplate = texttemplate.Must(texttemplate.New("plain").Parse(emergencyPlain))
	htmlTemplate  = htmltemplate.Must(htmltemplate.New("html").Parse(emergencyHTML))
	smsTemplate   = texttemplate.Must(texttemplate.New("sms").Parse(emergencySMS))
)

// RenderEmergencyEmail renders the alert into a sendable email for one
// contact.
func RenderEmergencyEmail(alert *EmergencyAlert, toName, toAddress string) (*EmailMessage, error) {
	data := *alert
	data.ContactName = toName

	plain := &bytes.Buffer{}
	if err := plainTemplate.Execute(plain, &data); err != nil {
		return nil, fmt.Errorf("failed to render plain email body: %w", err)
	}

	html := &bytes.Buffer{}
	if err := htmlTemplate.Execute(html, &data); err != nil {
		return nil, fmt.Errorf("failed to render html email body: %w", err)
	}

	return &EmailMessage{
		ToName:    toName,
		ToAddress: toAddress,
		Subject:   fmt.Sprintf(emergencySubject, alert.UserName),
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	}, nil
}

// RenderEmergencySMS renders the alert into a short text message.
func RenderEmergencySMS(alert *EmergencyAlert, toNumber string) (*SMSMessage, error) {
	body := &bytes.Buffer{}
	if err := smsTemplate.Execute(body, alert); err != nil {
		return nil, fmt.Errorf("failed to render sms body: %w", err)
	}
	return &SMSMessage{ToNumber: toNumber, Body: body.String()}, nil
}
