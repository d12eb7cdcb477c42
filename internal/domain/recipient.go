package domain

import (
	"regexp"
	"time"
)

// RecipientStatus tracks delivery of one campaign message.
type RecipientStatus string

const (
	RecipientPending RecipientStatus = "PENDING"
	RecipientSent    RecipientStatus = "SENT"
	RecipientFailed  RecipientStatus = "FAILED"
)

// Recipient is one phone number enrolled in a campaign. (CampaignID, Phone)
// is the composite key, so a number appears at most once per campaign.
type Recipient struct {
	CampaignID string          `json:"campaignId" dynamodbav:"campaignId"`
	Phone      string          `json:"phone" dynamodbav:"phone"`
	Status     RecipientStatus `json:"status" dynamodbav:"status"`
	Attempts   int             `json:"attempts" dynamodbav:"attempts"`
	MessageID  string          `json:"messageId,omitempty" dynamodbav:"messageId,omitempty"`
	LastError  string          `json:"lastError,omitempty" dynamodbav:"lastError,omitempty"`
	CreatedAt  time.Time       `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// ValidPhone reports whether s is 10-15 ASCII digits and nothing else.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
