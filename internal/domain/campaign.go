package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CampaignStatus enumerates the full lifecycle of a broadcast campaign.
// POPULATING and READY are the import phases between DRAFT and RUNNING.
type CampaignStatus string

const (
	CampaignDraft      CampaignStatus = "DRAFT"
	CampaignPopulating CampaignStatus = "POPULATING"
	CampaignReady      CampaignStatus = "READY"
	CampaignRunning    CampaignStatus = "RUNNING"
	CampaignPaused     CampaignStatus = "PAUSED"
	CampaignCompleted  CampaignStatus = "COMPLETED"
)

// IsTerminal returns true if no further transitions are possible.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignCompleted
}

// Channel is the outbound medium of a campaign.
type Channel string

const (
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelEmail    Channel = "EMAIL"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelWhatsApp || c == ChannelEmail
}

// AudienceType names where a campaign's recipients come from.
type AudienceType string

const (
	AudienceFirebase AudienceType = "FIREBASE"
	AudienceMongoDB  AudienceType = "MONGODB"
	AudienceCSV      AudienceType = "CSV"
	AudienceMixed    AudienceType = "MIXED"
)

// Valid reports whether a is a known audience type.
func (a AudienceType) Valid() bool {
	switch a {
	case AudienceFirebase, AudienceMongoDB, AudienceCSV, AudienceMixed:
		return true
	}
	return false
}

// Campaign is a named broadcast job targeting a set of recipients via one channel.
type Campaign struct {
	ID                string         `json:"campaignId" dynamodbav:"campaignId"`
	Name              string         `json:"name" dynamodbav:"name"`
	TemplateName      string         `json:"templateName" dynamodbav:"templateName"`
	TemplateVariables []string       `json:"templateVariables,omitempty" dynamodbav:"templateVariables,omitempty"`
	Channel           Channel        `json:"channel" dynamodbav:"channel"`
	AudienceType      AudienceType   `json:"audienceType" dynamodbav:"audienceType"`
	Status            CampaignStatus `json:"status" dynamodbav:"status"`

	TotalRecipients int `json:"totalRecipients" dynamodbav:"totalRecipients"`
	SentCount       int `json:"sentCount" dynamodbav:"sentCount"`
	FailedCount     int `json:"failedCount" dynamodbav:"failedCount"`

	PauseReason string     `json:"pauseReason,omitempty" dynamodbav:"pauseReason,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" dynamodbav:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty" dynamodbav:"startedAt,omitempty"`
	PausedAt    *time.Time `json:"pausedAt,omitempty" dynamodbav:"pausedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" dynamodbav:"completedAt,omitempty"`
}

// Pending returns recipients neither sent nor failed. Never negative.
func (c *Campaign) Pending() int {
	p := c.TotalRecipients - c.SentCount - c.FailedCount
	if p < 0 {
		return 0
	}
	return p
}

// Progress returns round(100*(sent+failed)/total), 0 for an empty campaign.
func (c *Campaign) Progress() int {
	if c.TotalRecipients <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.SentCount+c.FailedCount) / float64(c.TotalRecipients)))
}

// CampaignAction is an operator (or system) request against a campaign.
type CampaignAction string

const (
	ActionStart    CampaignAction = "start"
	ActionPause    CampaignAction = "pause"
	ActionResume   CampaignAction = "resume"
	ActionPopulate CampaignAction = "populate"
	ActionComplete CampaignAction = "complete"
)

// transitionRule lists the states an action may be applied from and its target.
type transitionRule struct {
	from []CampaignStatus
	to   CampaignStatus
}

var transitions = map[CampaignAction]transitionRule{
	ActionStart:    {from: []CampaignStatus{CampaignDraft, CampaignReady, CampaignPaused}, to: CampaignRunning},
	ActionResume:   {from: []CampaignStatus{CampaignPaused}, to: CampaignRunning},
	ActionPause:    {from: []CampaignStatus{CampaignRunning}, to: CampaignPaused},
	ActionPopulate: {from: []CampaignStatus{CampaignDraft}, to: CampaignPopulating},
	ActionComplete: {from: []CampaignStatus{CampaignRunning}, to: CampaignCompleted},
}

// Transition is the outcome of validating an action against a status.
type Transition struct {
	Valid    bool
	From     CampaignStatus
	To       CampaignStatus
	Required []CampaignStatus
	Error    string
}

// ValidateTransition checks action against the lifecycle table. Rejections
// carry a stable message naming the actual and required states, e.g.
// "cannot pause campaign in status DRAFT (requires RUNNING)".
func ValidateTransition(status CampaignStatus, action CampaignAction) Transition {
	rule, ok := transitions[action]
	if !ok {
		return Transition{From: status, Error: fmt.Sprintf("unknown campaign action %q", action)}
	}
	for _, s := range rule.from {
		if s == status {
			return Transition{Valid: true, From: status, To: rule.to, Required: rule.from}
		}
	}
	required := make([]string, len(rule.from))
	for i, s := range rule.from {
		required[i] = string(s)
	}
	return Transition{
		From:     status,
		To:       rule.to,
		Required: rule.from,
		Error: fmt.Sprintf("cannot %s campaign in status %s (requires %s)",
			action, status, strings.Join(required, " or ")),
	}
}

// ControlActions are the actions accepted from the control endpoint.
func ControlActions() []CampaignAction {
	return []CampaignAction{ActionStart, ActionPause, ActionResume}
}
