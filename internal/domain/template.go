package domain

import (
	"fmt"
	"time"
)

// TemplateStatus is the internally controlled lifecycle of a template.
type TemplateStatus string

const (
	TemplateDraft    TemplateStatus = "draft"
	TemplateActive   TemplateStatus = "active"
	TemplateArchived TemplateStatus = "archived"
)

// Valid reports whether s is a known lifecycle status.
func (s TemplateStatus) Valid() bool {
	return s == TemplateDraft || s == TemplateActive || s == TemplateArchived
}

// ApprovalStatus mirrors the provider's moderation decision.
type ApprovalStatus string

const (
	ApprovalNotSubmitted ApprovalStatus = "NOT_SUBMITTED"
	ApprovalPending      ApprovalStatus = "PENDING"
	ApprovalApproved     ApprovalStatus = "APPROVED"
	ApprovalRejected     ApprovalStatus = "REJECTED"
	ApprovalPaused       ApprovalStatus = "PAUSED"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalNotSubmitted, ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalPaused:
		return true
	}
	return false
}

// TemplateCategory follows the provider's template categories.
type TemplateCategory string

const (
	CategoryMarketing      TemplateCategory = "MARKETING"
	CategoryUtility        TemplateCategory = "UTILITY"
	CategoryAuthentication TemplateCategory = "AUTHENTICATION"
)

// Valid reports whether c is a known category.
func (c TemplateCategory) Valid() bool {
	return c == CategoryMarketing || c == CategoryUtility || c == CategoryAuthentication
}

// Template is a pre-approved message skeleton with ordered variable placeholders.
type Template struct {
	ID             string           `json:"templateId" dynamodbav:"templateId"`
	Name           string           `json:"name" dynamodbav:"name"`
	Category       TemplateCategory `json:"category" dynamodbav:"category"`
	Language       string           `json:"language" dynamodbav:"language"`
	Body           string           `json:"body,omitempty" dynamodbav:"body,omitempty"`
	Variables      []string         `json:"variables" dynamodbav:"variables"`
	Status         TemplateStatus   `json:"status" dynamodbav:"status"`
	ApprovalStatus ApprovalStatus   `json:"approvalStatus" dynamodbav:"approvalStatus"`
	RejectedReason string           `json:"rejectedReason,omitempty" dynamodbav:"rejectedReason,omitempty"`
	CreatedAt      time.Time        `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt" dynamodbav:"updatedAt"`
}

// SendEligibility returns nil when the template may be used for sending,
// otherwise an error distinguishing "not active" from "not approved".
func (t *Template) SendEligibility() error {
	if t.Status != TemplateActive {
		return fmt.Errorf("template %q is not active (status: %s)", t.Name, t.Status)
	}
	if t.ApprovalStatus != ApprovalApproved {
		return fmt.Errorf("template %q is not approved (approval status: %s)", t.Name, t.ApprovalStatus)
	}
	return nil
}

// CheckVariables verifies the number of supplied values matches the placeholders.
func (t *Template) CheckVariables(values []string) error {
	if len(values) != len(t.Variables) {
		return fmt.Errorf("template %q expects %d variables, got %d", t.Name, len(t.Variables), len(values))
	}
	return nil
}
