package emergency

import (
	"context"
	"log/slog"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/notification"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/metrics"
	"github.com/Asim-Shah-2004/medicine-app/internal/user"
)

// Dispatcher fans an alert out to every contact, per channel. Failures
// are isolated per contact and per channel; the only dispatch-wide
// short-circuit is a provider credential rejection, which no amount of
// retrying or moving to the next contact can fix.
type Dispatcher struct {
	email   notification.EmailProvider
	sms     notification.SMSProvider
	mailCfg config.MailConfig
	smsCfg  config.SMSConfig
	logger  *slog.Logger
}

// NewDispatcher creates a notification dispatcher. The SMS provider may
// be nil, which disables the phone channel entirely.
func NewDispatcher(
	email notification.EmailProvider,
	sms notification.SMSProvider,
	mailCfg config.MailConfig,
	smsCfg config.SMSConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		email:   email,
		sms:     sms,
		mailCfg: mailCfg,
		smsCfg:  smsCfg,
		logger:  logger,
	}
}

// Notify attempts delivery to every contact and returns one result per
// contact, in input order. It never returns an error: delivery outcomes
// are data, not failures, and the caller has already persisted the event.
func (d *Dispatcher) Notify(ctx context.Context, contacts []user.EmergencyContact, alert *notification.EmergencyAlert) []ContactResult {
	results := make([]ContactResult, 0, len(contacts))
	emailChannelDown := false

	for _, contact := range contacts {
		result := ContactResult{Name: contact.Name}

		if contact.Email != "" && !emailChannelDown {
			sent, authFailed := d.sendEmail(ctx, &contact, alert)
			result.EmailSent = sent
			if authFailed {
				emailChannelDown = true
			}
			metrics.RecordEmergencyNotification("email", sent)
		}

		if contact.Phone != "" && d.sms != nil && d.smsCfg.Enabled {
			sent := d.sendSMS(ctx, &contact, alert)
			result.SMSSent = &sent
			metrics.RecordEmergencyNotification("sms", sent)
		}

		results = append(results, result)
	}

	if len(contacts) > 0 && noneReached(results) {
		d.logger.Error("emergency alert reached no contacts",
			"user_name", alert.UserName,
			"contacts", len(contacts),
		)
		metrics.RecordEmergencyDispatchUnreached()
	}

	return results
}

// sendEmail delivers to one contact with bounded retry. Transient
// failures are retried with a doubling delay; recipient and payload
// rejections are not, and a credential rejection additionally reports the
// channel dead for the rest of the dispatch.
func (d *Dispatcher) sendEmail(ctx context.Context, contact *user.EmergencyContact, alert *notification.EmergencyAlert) (sent, authFailed bool) {
	msg, err := notification.RenderEmergencyEmail(alert, contact.Name, contact.Email)
	if err != nil {
		d.logger.Error("failed to render emergency email", "contact", contact.Name, "error", err)
		return false, false
	}

	delay := d.mailCfg.RetryDelay
	for attempt := 1; attempt <= d.mailCfg.RetryAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.mailCfg.SendTimeout)
		err := d.email.SendEmail(sendCtx, msg)
		cancel()

		if err == nil {
			return true, false
		}

		sendErr, classified := err.(*notification.SendError)
		if classified && sendErr.Category == notification.CategoryAuth {
			d.logger.Error("email channel credentials rejected", "error", err)
			return false, true
		}
		if !classified || !sendErr.Retryable() || attempt == d.mailCfg.RetryAttempts {
			d.logger.Warn("emergency email failed",
				"contact", contact.Name,
				"attempt", attempt,
				"error", err,
			)
			return false, false
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, false
		}
		delay *= 2
	}

	return false, false
}

func (d *Dispatcher) sendSMS(ctx context.Context, contact *user.EmergencyContact, alert *notification.EmergencyAlert) bool {
	number := notification.NormalizePhone(contact.Phone, d.smsCfg.DefaultCountryCode)
	if number == "" {
		return false
	}

	msg, err := notification.RenderEmergencySMS(alert, number)
	if err != nil {
		d.logger.Error("failed to render emergency sms", "contact", contact.Name, "error", err)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.smsCfg.SendTimeout)
	defer cancel()

	if err := d.sms.SendSMS(sendCtx, msg); err != nil {
		d.logger.Warn("emergency sms failed", "contact", contact.Name, "error", err)
		return false
	}
	return true
}

func noneReached(results []ContactResult) bool {
	for _, r := range results {
		if r.EmailSent || (r.SMSSent != nil && *r.SMSSent) {
			return false
		}
	}
	return true
}
