package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
)

// SendGridProvider delivers email through the SendGrid v3 API.
type SendGridProvider struct {
	client      *sendgrid.Client
	fromName    string
	fromAddress string
}

// NewSendGridProvider creates a SendGrid email provider
func NewSendGridProvider(cfg config.MailConfig) *SendGridProvider {
	return &SendGridProvider{
		client:      sendgrid.NewSendClient(cfg.SendGridKey),
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
	}
}

// SendEmail delivers one message. Failures come back as *SendError with
// the category derived from the SendGrid response code: 401/403 is an auth
// failure, other 4xx blame the recipient or payload, 5xx and transport
// errors are transient.
func (p *SendGridProvider) SendEmail(ctx context.Context, msg *EmailMessage) error {
	message := mail.NewV3Mail()
	message.From = mail.NewEmail(p.fromName, p.fromAddress)
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	personalization.To = append(personalization.To, mail.NewEmail(msg.ToName, msg.ToAddress))
	message.Personalizations = append(message.Personalizations, personalization)

	if msg.PlainBody != "" {
		message.Content = append(message.Content, mail.NewContent("text/plain", msg.PlainBody))
	}
	if msg.HTMLBody != "" {
		message.Content = append(message.Content, mail.NewContent("text/html", msg.HTMLBody))
	}

	resp, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return &SendError{Category: CategoryTransient, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &SendError{
			Category: CategoryAuth,
			Err:      fmt.Errorf("sendgrid rejected credentials: %d %s", resp.StatusCode, resp.Body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &SendError{
			Category: CategoryRecipient,
			Err:      fmt.Errorf("sendgrid rejected message: %d %s", resp.StatusCode, resp.Body),
		}
	default:
		return &SendError{
			Category: CategoryTransient,
			Err:      fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body),
		}
	}
}
