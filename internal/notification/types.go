package notification

import (
	"context"
	"fmt"
)

// FailureCategory classifies a delivery failure by what the caller should
// do about it.
type FailureCategory string

const (
	// CategoryAuth means the provider rejected our credentials. Further
	// attempts on the same channel are pointless until config changes.
	CategoryAuth FailureCategory = "auth"
	// CategoryRecipient means this recipient's address was rejected.
	// Other recipients are unaffected.
	CategoryRecipient FailureCategory = "recipient"
	// CategoryData means the provider rejected the message payload.
	CategoryData FailureCategory = "data"
	// CategoryTransient covers timeouts, transport errors and provider
	// 5xx responses. Worth retrying.
	CategoryTransient FailureCategory = "transient"
)

// SendError is a classified delivery failure.
type SendError struct {
	Category FailureCategory
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Category, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *SendError) Retryable() bool {
	return e.Category == CategoryTransient
}

// EmailMessage is one rendered email ready for delivery.
type EmailMessage struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// SMSMessage is one text message ready for delivery. The recipient number
// is already normalized to international format.
type SMSMessage struct {
	ToNumber string
	Body     string
}

// EmailProvider delivers email. Implementations return *SendError so
// callers can tell terminal failures from retryable ones.
type EmailProvider interface {
	SendEmail(ctx context.Context, msg *EmailMessage) error
}

// SMSProvider delivers text messages.
type SMSProvider interface {
	SendSMS(ctx context.Context, msg *SMSMessage) error
}
