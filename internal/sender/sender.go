// Package sender delivers outbound messages through the WhatsApp Cloud API,
// Gmail and SES. Provider failures never panic or return Go errors from the
// send methods; they come back as a Result with Success false and the
// provider's message, so bulk loops can record them per recipient.
package sender

import (
	"context"
	"time"

	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// Result is the normalized outcome of one send.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func failed(msg string) Result { return Result{Error: msg} }

// TemplateMessage is a pre-approved WhatsApp template addressed to one phone.
type TemplateMessage struct {
	To           string
	TemplateName string
	Language     string
	Variables    []string
}

// TemplateSender sends WhatsApp template messages.
type TemplateSender interface {
	SendTemplate(ctx context.Context, msg TemplateMessage) Result
}

// Email is one rendered email.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, e Email) Result
}

// BulkResult pairs a recipient with its send outcome.
type BulkResult struct {
	To string `json:"to"`
	Result
}

// SendBulk sends emails one at a time, pausing delay between sends. A
// cancelled context marks the remaining emails as failed.
func SendBulk(ctx context.Context, s EmailSender, emails []Email, delay time.Duration) []BulkResult {
	results := make([]BulkResult, 0, len(emails))
	for i, e := range emails {
		if i > 0 {
			if err := Pause(ctx, delay); err != nil {
				for _, rest := range emails[i:] {
					results = append(results, BulkResult{To: rest.To, Result: failed(err.Error())})
				}
				break
			}
		}
		res := s.SendEmail(ctx, e)
		if !res.Success {
			logger.Warn("bulk email send failed", "email", e.To, "error", res.Error)
		}
		results = append(results, BulkResult{To: e.To, Result: res})
	}
	return results
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
