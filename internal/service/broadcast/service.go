// Package broadcast sends one-off and bulk emails from the email console.
// Subject and body are Liquid templates rendered per recipient with the
// recipient's name, email and any extra fields.
package broadcast

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/sender"
)

// Recipient is one addressee of a broadcast.
type Recipient struct {
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Request is a bulk email broadcast.
type Request struct {
	Subject    string      `json:"subject"`
	HTML       string      `json:"html"`
	Recipients []Recipient `json:"recipients"`
}

// Report summarizes a broadcast.
type Report struct {
	Total   int                 `json:"total"`
	Sent    int                 `json:"sent"`
	Failed  int                 `json:"failed"`
	Results []sender.BulkResult `json:"results"`
}

// Service renders and sends broadcasts.
type Service struct {
	sender        sender.EmailSender
	engine        *liquid.Engine
	delay         time.Duration
	maxRecipients int
	log           *logger.Logger
}

// NewService creates a broadcast service.
func NewService(s sender.EmailSender, delay time.Duration, maxRecipients int) *Service {
	if maxRecipients <= 0 {
		maxRecipients = 500
	}
	return &Service{
		sender:        s,
		engine:        newEngine(),
		delay:         delay,
		maxRecipients: maxRecipients,
		log:           logger.With("broadcast"),
	}
}

// Send renders and sends the broadcast to every recipient, one at a time.
// Individual failures are reported per recipient and do not stop the loop.
func (s *Service) Send(ctx context.Context, req Request) (*Report, error) {
	if s.sender == nil {
		return nil, apperr.Validation("email sending is not configured")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, apperr.Validation("subject is required")
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, apperr.Validation("html is required")
	}
	if len(req.Recipients) == 0 {
		return nil, apperr.Validation("at least one recipient is required")
	}
	if len(req.Recipients) > s.maxRecipients {
		return nil, apperr.Validation("too many recipients: %d (max %d)", len(req.Recipients), s.maxRecipients)
	}
	for i, r := range req.Recipients {
		addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
		if err != nil {
			return nil, apperr.Validation("recipient %d: invalid email %q", i+1, r.Email)
		}
		req.Recipients[i].Email = addr.Address
	}

	tpl, err := compile(s.engine, req.Subject, req.HTML)
	if err != nil {
		return nil, apperr.Validation("invalid template: %v", err)
	}

	emails := make([]sender.Email, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		subject, html, err := tpl.render(bindings(r))
		if err != nil {
			return nil, apperr.Validation("rendering for %s: %v", r.Email, err)
		}
		emails = append(emails, sender.Email{To: r.Email, ToName: r.Name, Subject: subject, HTML: html})
	}

	results := sender.SendBulk(ctx, s.sender, emails, s.delay)
	rep := &Report{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			rep.Sent++
		} else {
			rep.Failed++
		}
	}
	s.log.Info("broadcast finished", "total", rep.Total, "sent", rep.Sent, "failed", rep.Failed)
	return rep, nil
}

// SendOne sends a single rendered email. A provider rejection is returned
// as an upstream error.
func (s *Service) SendOne(ctx context.Context, subject, html string, to Recipient) (*sender.Result, error) {
	rep, err := s.Send(ctx, Request{Subject: subject, HTML: html, Recipients: []Recipient{to}})
	if err != nil {
		return nil, err
	}
	res := rep.Results[0].Result
	if !res.Success {
		return nil, apperr.Upstream("email", errors.New(res.Error))
	}
	return &res, nil
}

func bindings(r Recipient) map[string]any {
	b := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		b[k] = v
	}
	b["name"] = r.Name
	b["email"] = r.Email
	return b
}
