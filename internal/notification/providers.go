package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConsoleSMSProvider prints text messages to stdout. Used in development
// and when no real SMS gateway is configured; the dispatch path still
// exercises normalization and templating.
type ConsoleSMSProvider struct{}

// NewConsoleSMSProvider creates a console SMS provider
func NewConsoleSMSProvider() *ConsoleSMSProvider {
	return &ConsoleSMSProvider{}
}

// SendSMS prints the message to stdout
func (p *ConsoleSMSProvider) SendSMS(ctx context.Context, msg *SMSMessage) error {
	fmt.Printf("[SMS] To: %s\n%s\n\n", msg.ToNumber, msg.Body)
	return nil
}

// MockEmailProvider records sent email for tests.
type MockEmailProvider struct {
	mu        sync.Mutex
	sent      []*EmailMessage
	failWith  *SendError
	failTimes int
	sendDelay time.Duration
}

// NewMockEmailProvider creates a new mock email provider
func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

// SendEmail records the message, or fails with the configured error.
func (p *MockEmailProvider) SendEmail(ctx context.Context, msg *EmailMessage) error {
	if p.sendDelay > 0 {
		select {
		case <-time.After(p.sendDelay):
		case <-ctx.Done():
			return &SendError{Category: CategoryTransient, Err: ctx.Err()}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failWith != nil && (p.failTimes < 0 || p.failTimes > 0) {
		if p.failTimes > 0 {
			p.failTimes--
		}
		return p.failWith
	}

	p.sent = append(p.sent, msg)
	return nil
}

// FailWith makes the next n sends fail with the given error. Pass a
// negative n to fail every send.
func (p *MockEmailProvider) FailWith(err *SendError, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
	p.failTimes = n
}

// SetSendDelay sets artificial delay for SendEmail
func (p *MockEmailProvider) SetSendDelay(delay time.Duration) {
	p.sendDelay = delay
}

// Sent returns the recorded messages
func (p *MockEmailProvider) Sent() []*EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*EmailMessage(nil), p.sent...)
}

// MockSMSProvider records sent text messages for tests.
type MockSMSProvider struct {
	mu       sync.Mutex
	sent     []*SMSMessage
	failWith *SendError
}

// NewMockSMSProvider creates a new mock SMS provider
func NewMockSMSProvider() *MockSMSProvider {
	return &MockSMSProvider{}
}

// SendSMS records the message, or fails with the configured error.
func (p *MockSMSProvider) SendSMS(ctx context.Context, msg *SMSMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failWith != nil {
		return p.failWith
	}
	if msg.ToNumber == "" {
		return &SendError{Category: CategoryRecipient, Err: fmt.Errorf("no phone number provided")}
	}

	p.sent = append(p.sent, msg)
	return nil
}

// FailWith makes every send fail with the given error
func (p *MockSMSProvider) FailWith(err *SendError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// Sent returns the recorded messages
func (p *MockSMSProvider) Sent() []*SMSMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*SMSMessage(nil), p.sent...)
}
