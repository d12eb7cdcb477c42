package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []CampaignStatus{
	CampaignDraft, CampaignPopulating, CampaignReady, CampaignRunning, CampaignPaused, CampaignCompleted,
}

func TestValidateTransitionTable(t *testing.T) {
	allowed := map[CampaignAction]map[CampaignStatus]CampaignStatus{
		ActionStart:    {CampaignDraft: CampaignRunning, CampaignReady: CampaignRunning, CampaignPaused: CampaignRunning},
		ActionResume:   {CampaignPaused: CampaignRunning},
		ActionPause:    {CampaignRunning: CampaignPaused},
		ActionPopulate: {CampaignDraft: CampaignPopulating},
		ActionComplete: {CampaignRunning: CampaignCompleted},
	}

	for action, from := range allowed {
		for _, status := range allStatuses {
			t.Run(string(action)+"_"+string(status), func(t *testing.T) {
				tr := ValidateTransition(status, action)
				want, ok := from[status]
				assert.Equal(t, ok, tr.Valid)
				if ok {
					assert.Equal(t, want, tr.To)
					assert.Empty(t, tr.Error)
					return
				}
				assert.Contains(t, tr.Error, string(status))
				for _, req := range tr.Required {
					assert.Contains(t, tr.Error, string(req))
				}
			})
		}
	}
}

func TestValidateTransitionMessages(t *testing.T) {
	tests := []struct {
		status CampaignStatus
		action CampaignAction
		want   string
	}{
		{CampaignDraft, ActionPause, "cannot pause campaign in status DRAFT (requires RUNNING)"},
		{CampaignRunning, ActionResume, "cannot resume campaign in status RUNNING (requires PAUSED)"},
		{CampaignCompleted, ActionStart, "cannot start campaign in status COMPLETED (requires DRAFT or READY or PAUSED)"},
		{CampaignRunning, CampaignAction("archive"), `unknown campaign action "archive"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tr := ValidateTransition(tt.status, tt.action)
			assert.False(t, tr.Valid)
			assert.Equal(t, tt.want, tr.Error)
		})
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	for _, action := range []CampaignAction{ActionStart, ActionPause, ActionResume, ActionPopulate, ActionComplete} {
		assert.False(t, ValidateTransition(CampaignCompleted, action).Valid, action)
	}
	assert.True(t, CampaignCompleted.IsTerminal())
	assert.False(t, CampaignPaused.IsTerminal())
}

func TestCampaignCounters(t *testing.T) {
	c := &Campaign{TotalRecipients: 3, SentCount: 1, FailedCount: 1}
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, 67, c.Progress())

	empty := &Campaign{}
	assert.Equal(t, 0, empty.Pending())
	assert.Equal(t, 0, empty.Progress())

	over := &Campaign{TotalRecipients: 1, SentCount: 2}
	assert.Equal(t, 0, over.Pending())
}

func TestEnums(t *testing.T) {
	assert.True(t, ChannelWhatsApp.Valid())
	assert.False(t, Channel("SMS").Valid())
	assert.True(t, AudienceMixed.Valid())
	assert.False(t, AudienceType("LDAP").Valid())
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"919876543210", true},
		{"9876543210", true},
		{"123456789012345", true},
		{"123456789", false},
		{"1234567890123456", false},
		{"+919876543210", false},
		{"91 98765 43210", false},
		{"abc", false},
		{"", false},
		{"٩١٩٨٧٦٥٤٣٢١٠", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPhone(tt.in))
		})
	}
}

func TestTemplateSendEligibility(t *testing.T) {
	tpl := &Template{Name: "weekend_offer", Status: TemplateActive, ApprovalStatus: ApprovalPending}
	err := tpl.SendEligibility()
	assert.EqualError(t, err, `template "weekend_offer" is not approved (approval status: PENDING)`)

	tpl.Status = TemplateDraft
	assert.EqualError(t, tpl.SendEligibility(), `template "weekend_offer" is not active (status: draft)`)

	tpl.Status = TemplateActive
	tpl.ApprovalStatus = ApprovalApproved
	assert.NoError(t, tpl.SendEligibility())
}

func TestTemplateCheckVariables(t *testing.T) {
	tpl := &Template{Name: "order_ready", Variables: []string{"vendor", "eta"}}
	assert.NoError(t, tpl.CheckVariables([]string{"Raju Chaat", "10 min"}))
	assert.EqualError(t, tpl.CheckVariables([]string{"Raju Chaat"}), `template "order_ready" expects 2 variables, got 1`)
}

func TestSessionAndRateLimitRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*time.Minute)))

	r := &RateLimitRecord{}
	assert.False(t, r.Locked(now))
	r.LockUntil = now.Add(time.Minute)
	assert.True(t, r.Locked(now))
	assert.False(t, r.Locked(now.Add(time.Minute)))

	assert.Equal(t, SessionEmail, SurfaceEmail.SessionKind())
	assert.Equal(t, SessionWhatsApp, SurfaceWhatsApp.SessionKind())
}
