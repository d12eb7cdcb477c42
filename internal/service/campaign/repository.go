package campaign

import (
	"context"
	"time"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/distlock"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new campaign. The ID must not already exist.
	Create(ctx context.Context, c *domain.Campaign) error

	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns up to limit campaigns, newest first.
	List(ctx context.Context, limit int) ([]domain.Campaign, error)

	// UpdateStatus applies u only while the stored status still equals from.
	// Returns ErrStatusConflict when it does not, ErrNotFound when the
	// campaign is gone.
	UpdateStatus(ctx context.Context, id string, from domain.CampaignStatus, u StatusUpdate) error

	// IncrementCounters atomically adds to the sent and failed counters.
	IncrementCounters(ctx context.Context, id string, sent, failed int) error
}

// StatusUpdate describes a status change. Nil pointers leave fields as they are.
type StatusUpdate struct {
	To              domain.CampaignStatus
	At              time.Time
	StartedAt       *time.Time
	PausedAt        *time.Time
	CompletedAt     *time.Time
	PauseReason     *string
	TotalRecipients *int
}

// Apply mirrors the update onto an in-memory campaign.
func (u StatusUpdate) Apply(c *domain.Campaign) {
	c.Status = u.To
	c.UpdatedAt = u.At
	if u.StartedAt != nil {
		c.StartedAt = u.StartedAt
	}
	if u.PausedAt != nil {
		c.PausedAt = u.PausedAt
	}
	if u.CompletedAt != nil {
		c.CompletedAt = u.CompletedAt
	}
	if u.PauseReason != nil {
		c.PauseReason = *u.PauseReason
	}
	if u.TotalRecipients != nil {
		c.TotalRecipients = *u.TotalRecipients
	}
}

// RecipientRepository stores per-campaign recipients.
type RecipientRepository interface {
	// PutBatch writes recipients, overwriting existing rows with the same
	// phone. Batches larger than the store's limit are split.
	PutBatch(ctx context.Context, recipients []domain.Recipient) error

	// ListPending returns up to limit recipients still waiting to be sent.
	ListPending(ctx context.Context, campaignID string, limit int) ([]domain.Recipient, error)

	// MarkResult persists the outcome of a send attempt.
	MarkResult(ctx context.Context, r domain.Recipient) error
}

// TemplateChecker re-validates a template at send time.
type TemplateChecker interface {
	CheckSendable(ctx context.Context, name string, variables []string) (*domain.Template, error)
}

// AuditSink archives an import report. Failures are logged, never returned
// to the caller.
type AuditSink interface {
	SaveImportReport(ctx context.Context, report ImportReport) error
}

// Locker hands out a lock for a key that expires after ttl unless extended;
// dispatch holds one per campaign.
type Locker func(key string, ttl time.Duration) distlock.DistLock
