package emergency

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/notification"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

// scriptedEmailProvider fails or succeeds per recipient address and
// records every delivered message.
type scriptedEmailProvider struct {
	failFor  map[string]*notification.SendError
	attempts map[string]int
	sent     []*notification.EmailMessage
}

func newScriptedEmailProvider() *scriptedEmailProvider {
	return &scriptedEmailProvider{
		failFor:  map[string]*notification.SendError{},
		attempts: map[string]int{},
	}
}

func (p *scriptedEmailProvider) SendEmail(_ context.Context, msg *notification.EmailMessage) error {
	p.attempts[msg.ToAddress]++
	if err, ok := p.failFor[msg.ToAddress]; ok {
		return err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		FromName:      "Alerts",
		FromAddress:   "alerts@example.com",
		SendTimeout:   time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func testDispatcher(email notification.EmailProvider, sms notification.SMSProvider, smsCfg config.SMSConfig) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(email, sms, testMailConfig(), smsCfg, logger)
}

func testAlert() *notification.EmergencyAlert {
	return &notification.EmergencyAlert{
		UserName:      "Asha Verma",
		Transcription: "I fell and cannot get up",
		SentAt:        time.Now(),
	}
}

func TestNotifyIsolatesFailures(t *testing.T) {
	email := newScriptedEmailProvider()
	email.failFor["two@example.com"] = &notification.SendError{
		Category: notification.CategoryRecipient,
		Err:      fmt.Errorf("mailbox does not exist"),
	}

	contacts := []user.EmergencyContact{
		{Name: "One", Email: "one@example.com"},
		{Name: "Two", Email: "two@example.com"},
		{Name: "Three", Email: "three@example.com"},
	}

	d := testDispatcher(email, nil, config.SMSConfig{})
	results := d.Notify(context.Background(), contacts, testAlert())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].EmailSent || results[1].EmailSent || !results[2].EmailSent {
		t.Errorf("results = %+v, want sent/failed/sent", results)
	}

	// Recipient rejection is not retried.
	if email.attempts["two@example.com"] != 1 {
		t.Errorf("recipient failure retried %d times, want 1 attempt", email.attempts["two@example.com"])
	}
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	email := notification.NewMockEmailProvider()
	email.FailWith(&notification.SendError{
		Category: notification.CategoryTransient,
		Err:      fmt.Errorf("connection reset"),
	}, 2)

	contacts := []user.EmergencyContact{{Name: "One", Email: "one@example.com"}}

	d := testDispatcher(email, nil, config.SMSConfig{})
	results := d.Notify(context.Background(), contacts, testAlert())

	if !results[0].EmailSent {
		t.Error("third attempt should have succeeded after two transient failures")
	}
	if len(email.Sent()) != 1 {
		t.Errorf("expected exactly 1 delivered message, got %d", len(email.Sent()))
	}
}

func TestNotifyExhaustsTransientRetries(t *testing.T) {
	email := notification.NewMockEmailProvider()
	email.FailWith(&notification.SendError{
		Category: notification.CategoryTransient,
		Err:      fmt.Errorf("connection reset"),
	}, -1)

	contacts := []user.EmergencyContact{{Name: "One", Email: "one@example.com"}}

	d := testDispatcher(email, nil, config.SMSConfig{})
	results := d.Notify(context.Background(), contacts, testAlert())

	if results[0].EmailSent {
		t.Error("delivery should have failed after exhausting retries")
	}
}

func TestNotifyAuthFailureShortCircuitsChannel(t *testing.T) {
	email := newScriptedEmailProvider()
	authErr := &notification.SendError{
		Category: notification.CategoryAuth,
		Err:      fmt.Errorf("api key revoked"),
	}
	email.failFor["one@example.com"] = authErr
	email.failFor["two@example.com"] = authErr

	contacts := []user.EmergencyContact{
		{Name: "One", Email: "one@example.com"},
		{Name: "Two", Email: "two@example.com"},
	}

	d := testDispatcher(email, nil, config.SMSConfig{})
	results := d.Notify(context.Background(), contacts, testAlert())

	if results[0].EmailSent || results[1].EmailSent {
		t.Error("no email should be reported sent after a credential rejection")
	}
	if email.attempts["one@example.com"] != 1 {
		t.Errorf("credential failure retried %d times, want 1", email.attempts["one@example.com"])
	}
	if email.attempts["two@example.com"] != 0 {
		t.Errorf("second contact attempted %d times after channel shutdown, want 0", email.attempts["two@example.com"])
	}
}

func TestNotifySMSChannel(t *testing.T) {
	email := newScriptedEmailProvider()
	sms := notification.NewMockSMSProvider()

	contacts := []user.EmergencyContact{
		{Name: "One", Email: "one@example.com", Phone: "098765 43210"},
		{Name: "NoPhone", Email: "two@example.com"},
	}

	d := testDispatcher(email, sms, config.SMSConfig{
		Enabled:            true,
		DefaultCountryCode: "+91",
		SendTimeout:        time.Second,
	})
	results := d.Notify(context.Background(), contacts, testAlert())

	if results[0].SMSSent == nil || !*results[0].SMSSent {
		t.Error("contact with a phone number should get an SMS result")
	}
	if results[1].SMSSent != nil {
		t.Error("contact without a phone number should have no SMS result")
	}

	sent := sms.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 SMS, got %d", len(sent))
	}
	if sent[0].ToNumber != "+919876543210" {
		t.Errorf("normalized number = %q, want +919876543210", sent[0].ToNumber)
	}
}

// blockingSMSProvider only returns once its context is cancelled.
type blockingSMSProvider struct{}

func (blockingSMSProvider) SendSMS(ctx context.Context, _ *notification.SMSMessage) error {
	<-ctx.Done()
	return &notification.SendError{Category: notification.CategoryTransient, Err: ctx.Err()}
}

func TestNotifySMSTimeoutIsIndependentOfMail(t *testing.T) {
	email := newScriptedEmailProvider()
	contacts := []user.EmergencyContact{{Name: "One", Email: "one@example.com", Phone: "+919876543210"}}

	// Mail allows a full second per attempt; the SMS deadline must come
	// from the SMS config, so a stalled gateway is cut off far sooner.
	d := testDispatcher(email, blockingSMSProvider{}, config.SMSConfig{
		Enabled:            true,
		DefaultCountryCode: "+91",
		SendTimeout:        10 * time.Millisecond,
	})

	begin := time.Now()
	results := d.Notify(context.Background(), contacts, testAlert())

	if results[0].SMSSent == nil || *results[0].SMSSent {
		t.Error("stalled SMS send should be reported failed")
	}
	if elapsed := time.Since(begin); elapsed > 500*time.Millisecond {
		t.Errorf("SMS send blocked for %v, want the SMS timeout to cut it off", elapsed)
	}
}

func TestNotifyRendersMedications(t *testing.T) {
	email := newScriptedEmailProvider()
	contacts := []user.EmergencyContact{{Name: "One", Email: "one@example.com"}}

	alert := testAlert()
	alert.Medications = []string{"Aspirin 100mg", "Metformin 500mg"}

	d := testDispatcher(email, nil, config.SMSConfig{})
	results := d.Notify(context.Background(), contacts, alert)

	if !results[0].EmailSent {
		t.Fatal("delivery should have succeeded")
	}
	if len(email.sent) != 1 {
		t.Fatalf("expected 1 delivered message, got %d", len(email.sent))
	}

	body := email.sent[0].PlainBody
	if !strings.Contains(body, "Current medications") {
		t.Error("email body missing the medications section")
	}
	for _, med := range alert.Medications {
		if !strings.Contains(body, med) {
			t.Errorf("email body missing medication %q", med)
		}
	}
	if !strings.Contains(email.sent[0].HTMLBody, "Metformin 500mg") {
		t.Error("html body missing the medication list")
	}
}

func TestNotifyNoContacts(t *testing.T) {
	d := testDispatcher(newScriptedEmailProvider(), nil, config.SMSConfig{})
	results := d.Notify(context.Background(), nil, testAlert())
	if len(results) != 0 {
		t.Errorf("expected no results for no contacts, got %d", len(results))
	}
}
