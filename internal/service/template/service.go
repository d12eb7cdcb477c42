package template

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/sender"
)

// Provider template names are lowercase with underscores.
var namePattern = regexp.MustCompile(`^[a-z0-9_]{1,512}$`)

// Service implements template registry logic.
type Service struct {
	repo      Repository
	approvals ApprovalSource
	sender    sender.TemplateSender
	now       func() time.Time
	log       *logger.Logger
}

// NewService creates a template service. approvals and ts may be nil when
// WhatsApp is not configured; sync and send then report a validation error.
func NewService(repo Repository, approvals ApprovalSource, ts sender.TemplateSender) *Service {
	return &Service{repo: repo, approvals: approvals, sender: ts, now: time.Now, log: logger.With("template")}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInput holds the fields for registering a template.
type CreateInput struct {
	Name      string                  `json:"name"`
	Category  domain.TemplateCategory `json:"category"`
	Language  string                  `json:"language"`
	Body      string                  `json:"body"`
	Variables []string                `json:"variables"`
	Status    domain.TemplateStatus   `json:"status"`
}

// UpdateInput holds mutable fields. Nil fields are left unchanged.
type UpdateInput struct {
	Category       *domain.TemplateCategory `json:"category"`
	Language       *string                  `json:"language"`
	Body           *string                  `json:"body"`
	Variables      []string                 `json:"variables"`
	Status         *domain.TemplateStatus   `json:"status"`
	ApprovalStatus *domain.ApprovalStatus   `json:"approvalStatus"`
	RejectedReason *string                  `json:"rejectedReason"`
}

// Create registers a template in draft, not yet submitted for review.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Template, error) {
	in.Name = strings.TrimSpace(in.Name)
	if !namePattern.MatchString(in.Name) {
		return nil, apperr.Validation("name must be lowercase letters, digits and underscores")
	}
	if in.Category == "" {
		in.Category = domain.CategoryMarketing
	}
	if !in.Category.Valid() {
		return nil, apperr.Validation("invalid category %q", in.Category)
	}
	if in.Language == "" {
		in.Language = "en_US"
	}
	if in.Status == "" {
		in.Status = domain.TemplateDraft
	}
	if !in.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", in.Status)
	}

	if _, err := s.repo.GetByName(ctx, in.Name); err == nil {
		return nil, apperr.Conflict("template %q already exists", in.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Internal("lookup template", err)
	}

	now := s.now().UTC()
	t := &domain.Template{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Category:       in.Category,
		Language:       in.Language,
		Body:           in.Body,
		Variables:      nonNil(in.Variables),
		Status:         in.Status,
		ApprovalStatus: domain.ApprovalNotSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrExists) {
			return nil, apperr.Conflict("template %q already exists", in.Name)
		}
		return nil, apperr.Internal("create template", err)
	}
	s.log.Info("template registered", "template_id", t.ID, "name", t.Name)
	return t, nil
}

// Get returns a template by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("template %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal("get template", err)
	}
	return t, nil
}

// List returns all templates ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.Template, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list templates", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update applies in to the template.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Template, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, apperr.Validation("invalid category %q", *in.Category)
		}
		t.Category = *in.Category
	}
	if in.Language != nil && *in.Language != "" {
		t.Language = *in.Language
	}
	if in.Body != nil {
		t.Body = *in.Body
	}
	if in.Variables != nil {
		t.Variables = in.Variables
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("invalid status %q", *in.Status)
		}
		t.Status = *in.Status
	}
	if in.ApprovalStatus != nil {
		if !in.ApprovalStatus.Valid() {
			return nil, apperr.Validation("invalid approvalStatus %q", *in.ApprovalStatus)
		}
		t.ApprovalStatus = *in.ApprovalStatus
		if t.ApprovalStatus != domain.ApprovalRejected {
			t.RejectedReason = ""
		}
	}
	if in.RejectedReason != nil {
		t.RejectedReason = *in.RejectedReason
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("template %s not found", id)
	}
	if err != nil {
		return apperr.Internal("delete template", err)
	}
	s.log.Info("template deleted", "template_id", id)
	return nil
}

// CheckSendable loads the template by name and verifies it is active,
// approved and given the right number of variables. Eligibility is read
// fresh on every call and never cached.
func (s *Service) CheckSendable(ctx context.Context, name string, variables []string) (*domain.Template, error) {
	t, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("template %q not found", name)
	}
	if err != nil {
		return nil, apperr.Internal("get template", err)
	}
	if err := t.SendEligibility(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if err := t.CheckVariables(variables); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return t, nil
}

// SyncApproval refreshes the template's approval status from the provider.
func (s *Service) SyncApproval(ctx context.Context, id string) (*domain.Template, error) {
	if s.approvals == nil {
		return nil, apperr.Validation("whatsapp business account is not configured")
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a, err := s.approvals.FetchApproval(ctx, t.Name, t.Language)
	if err != nil {
		return nil, apperr.Upstream("whatsapp", err)
	}
	if a.Status != t.ApprovalStatus {
		s.log.Info("template approval changed", "name", t.Name, "from", t.ApprovalStatus, "to", a.Status)
	}
	t.ApprovalStatus = a.Status
	t.RejectedReason = a.RejectedReason
	t.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SendInput is a one-off template send.
type SendInput struct {
	TemplateName string   `json:"templateName"`
	To           string   `json:"to"`
	Variables    []string `json:"variables"`
}

// Send sends a single template message after the eligibility check.
func (s *Service) Send(ctx context.Context, in SendInput) (*sender.Result, error) {
	if s.sender == nil {
		return nil, apperr.Validation("whatsapp sending is not configured")
	}
	to := strings.TrimSpace(in.To)
	if !domain.ValidPhone(to) {
		return nil, apperr.Validation("to must be 10-15 digits")
	}
	t, err := s.CheckSendable(ctx, in.TemplateName, in.Variables)
	if err != nil {
		return nil, err
	}
	res := s.sender.SendTemplate(ctx, sender.TemplateMessage{
		To: to, TemplateName: t.Name, Language: t.Language, Variables: in.Variables,
	})
	if !res.Success {
		return nil, apperr.Upstream("whatsapp", errors.New(res.Error))
	}
	return &res, nil
}

func (s *Service) save(ctx context.Context, t *domain.Template) error {
	err := s.repo.Update(ctx, t)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("template %s not found", t.ID)
	}
	if err != nil {
		return apperr.Internal("update template", err)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
