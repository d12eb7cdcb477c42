package campaign

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/distlock"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/sender"
)

// DefaultBatchSize is the DynamoDB BatchWriteItem limit.
const DefaultBatchSize = 25

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repositories are.
type Service struct {
	repo       Repository
	recipients RecipientRepository
	templates  TemplateChecker
	sender     sender.TemplateSender
	audit      AuditSink
	lock       Locker

	batchSize     int
	maxLineBytes  int
	sendDelay     time.Duration
	dispatchLimit int
	lockLease     time.Duration
	now           func() time.Time
	log           *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithTemplates sets the send-time template check used by dispatch.
func WithTemplates(t TemplateChecker) Option { return func(s *Service) { s.templates = t } }

// WithSender sets the WhatsApp sender used by dispatch.
func WithSender(ts sender.TemplateSender) Option { return func(s *Service) { s.sender = ts } }

// WithAuditSink archives import reports.
func WithAuditSink(a AuditSink) Option { return func(s *Service) { s.audit = a } }

// WithLocker replaces the per-campaign dispatch lock.
func WithLocker(l Locker) Option { return func(s *Service) { s.lock = l } }

// WithDispatchLease sets how long a dispatch lock lives between renewals.
// Dispatch renews it once half the lease has passed.
func WithDispatchLease(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockLease = d
		}
	}
}

// WithSendDelay sets the pause between dispatched messages.
func WithSendDelay(d time.Duration) Option { return func(s *Service) { s.sendDelay = d } }

// WithDispatchLimit caps recipients per dispatch call.
func WithDispatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dispatchLimit = n
		}
	}
}

// WithMaxLineBytes bounds a single CSV line during import.
func WithMaxLineBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}

// WithClock overrides the time source; used by tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a campaign service backed by the given repositories.
func NewService(repo Repository, recipients RecipientRepository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		recipients:    recipients,
		lock:          func(key string, _ time.Duration) distlock.DistLock { return distlock.NewLocalLock(key) },
		batchSize:     DefaultBatchSize,
		maxLineBytes:  1024,
		sendDelay:     500 * time.Millisecond,
		dispatchLimit: 50,
		lockLease:     2 * time.Minute,
		now:           time.Now,
		log:           logger.With("campaign"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name              string              `json:"name"`
	TemplateName      string              `json:"templateName"`
	TemplateVariables []string            `json:"templateVariables"`
	Channel           domain.Channel      `json:"channel"`
	AudienceType      domain.AudienceType `json:"audienceType"`
}

// Create validates and persists a new campaign in DRAFT status.
func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (*domain.Campaign, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.TemplateName = strings.TrimSpace(in.TemplateName)
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.TemplateName == "" {
		return nil, apperr.Validation("templateName is required")
	}
	if in.Channel == "" {
		in.Channel = domain.ChannelWhatsApp
	}
	if !in.Channel.Valid() {
		return nil, apperr.Validation("invalid channel %q", in.Channel)
	}
	if in.AudienceType == "" {
		in.AudienceType = domain.AudienceCSV
	}
	if !in.AudienceType.Valid() {
		return nil, apperr.Validation("invalid audienceType %q", in.AudienceType)
	}

	now := s.now().UTC()
	c := &domain.Campaign{
		ID:                uuid.New().String(),
		Name:              in.Name,
		TemplateName:      in.TemplateName,
		TemplateVariables: in.TemplateVariables,
		Channel:           in.Channel,
		AudienceType:      in.AudienceType,
		Status:            domain.CampaignDraft,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Internal("create campaign", err)
	}
	s.log.Info("campaign created", "campaign_id", c.ID, "template", c.TemplateName, "created_by", createdBy)
	return c, nil
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("campaign %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal("get campaign", err)
	}
	return c, nil
}

// List returns up to limit campaigns, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Campaign, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperr.Internal("list campaigns", err)
	}
	return out, nil
}

// Control applies an operator action (start, pause, resume). The stored
// status must still match what was read, so two concurrent controls cannot
// both win.
func (s *Service) Control(ctx context.Context, id string, action domain.CampaignAction, reason string) (*domain.Campaign, error) {
	if !slices.Contains(domain.ControlActions(), action) {
		return nil, apperr.Validation("invalid action %q (expected start, pause or resume)", action)
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tr := domain.ValidateTransition(c.Status, action)
	if !tr.Valid {
		return nil, apperr.Validation("%s", tr.Error)
	}

	now := s.now().UTC()
	u := StatusUpdate{To: tr.To, At: now}
	switch action {
	case domain.ActionStart, domain.ActionResume:
		cleared := ""
		u.PauseReason = &cleared
		if c.StartedAt == nil {
			u.StartedAt = &now
		}
	case domain.ActionPause:
		reason = strings.TrimSpace(reason)
		u.PauseReason = &reason
		u.PausedAt = &now
	}

	if err := s.updateStatus(ctx, id, c.Status, u); err != nil {
		return nil, err
	}
	u.Apply(c)
	s.log.Info("campaign status changed",
		"campaign_id", id, "action", action, "from", tr.From, "to", tr.To)
	return c, nil
}

func (s *Service) updateStatus(ctx context.Context, id string, from domain.CampaignStatus, u StatusUpdate) error {
	err := s.repo.UpdateStatus(ctx, id, from, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("campaign %s not found", id)
	case errors.Is(err, ErrStatusConflict):
		return apperr.Conflict("campaign %s is no longer %s; reload and retry", id, from)
	default:
		return apperr.Internal("update campaign status", err)
	}
}
