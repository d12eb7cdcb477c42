package sender

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// DryRun accepts every message without contacting a provider and keeps a
// copy for inspection. It satisfies both TemplateSender and EmailSender.
type DryRun struct {
	mu        sync.Mutex
	templates []TemplateMessage
	emails    []Email
}

// NewDryRun creates a dry-run sender.
func NewDryRun() *DryRun { return &DryRun{} }

func (d *DryRun) SendTemplate(_ context.Context, msg TemplateMessage) Result {
	d.mu.Lock()
	d.templates = append(d.templates, msg)
	d.mu.Unlock()
	logger.Info("dry run: template not sent", "phone", msg.To, "template", msg.TemplateName)
	return Result{Success: true, MessageID: "dryrun-" + uuid.NewString()}
}

func (d *DryRun) SendEmail(_ context.Context, e Email) Result {
	d.mu.Lock()
	d.emails = append(d.emails, e)
	d.mu.Unlock()
	logger.Info("dry run: email not sent", "email", e.To, "subject", e.Subject)
	return Result{Success: true, MessageID: "dryrun-" + uuid.NewString()}
}

// Templates returns the template messages accepted so far.
func (d *DryRun) Templates() []TemplateMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]TemplateMessage(nil), d.templates...)
}

// Emails returns the emails accepted so far.
func (d *DryRun) Emails() []Email {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Email(nil), d.emails...)
}
