package campaign_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/distlock"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/sender"
	"github.com/streetbite/vendorhub/internal/service/campaign"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign

	// onGet and beforeUpdate let tests simulate concurrent writers.
	onGet        func(c *domain.Campaign)
	beforeUpdate func(c *domain.Campaign)

	// After goneAfter further reads every campaign reads as deleted.
	goneAfter int
	gets      int
}

func newMemRepo() *memRepo {
	return &memRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.campaigns[c.ID]; exists {
		return fmt.Errorf("campaign %s exists", c.ID)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.goneAfter > 0 && m.gets > m.goneAfter {
		return nil, campaign.ErrNotFound
	}
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	if m.onGet != nil {
		m.onGet(c)
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, limit int) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, from domain.CampaignStatus, u campaign.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(c)
	}
	if c.Status != from {
		return campaign.ErrStatusConflict
	}
	u.Apply(c)
	return nil
}

func (m *memRepo) IncrementCounters(_ context.Context, id string, sent, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.SentCount += sent
	c.FailedCount += failed
	return nil
}

func (m *memRepo) status(id string) domain.CampaignStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id].Status
}

type memRecipients struct {
	mu      sync.Mutex
	rows    map[string]domain.Recipient
	order   []string
	batches []int
	failOn  int
}

func newMemRecipients() *memRecipients {
	return &memRecipients{rows: make(map[string]domain.Recipient)}
}

func (m *memRecipients) PutBatch(_ context.Context, rs []domain.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, len(rs))
	if m.failOn > 0 && len(m.batches) == m.failOn {
		return errors.New("ProvisionedThroughputExceededException")
	}
	for _, r := range rs {
		key := r.CampaignID + "/" + r.Phone
		if _, ok := m.rows[key]; !ok {
			m.order = append(m.order, key)
		}
		m.rows[key] = r
	}
	return nil
}

func (m *memRecipients) ListPending(_ context.Context, campaignID string, limit int) ([]domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recipient
	for _, key := range m.order {
		r := m.rows[key]
		if r.CampaignID == campaignID && r.Status == domain.RecipientPending {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memRecipients) MarkResult(_ context.Context, r domain.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.CampaignID+"/"+r.Phone] = r
	return nil
}

func (m *memRecipients) phones(campaignID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, key := range m.order {
		if r := m.rows[key]; r.CampaignID == campaignID {
			out = append(out, r.Phone)
		}
	}
	return out
}

type stubTemplates struct {
	err error
}

func (s stubTemplates) CheckSendable(_ context.Context, name string, _ []string) (*domain.Template, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Template{Name: name, Language: "en_US", Status: domain.TemplateActive, ApprovalStatus: domain.ApprovalApproved}, nil
}

type scriptedSender struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []string
}

func (s *scriptedSender) SendTemplate(_ context.Context, msg sender.TemplateMessage) sender.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg.To)
	if s.fail[msg.To] {
		return sender.Result{Error: "(#131026) Message undeliverable"}
	}
	return sender.Result{Success: true, MessageID: "wamid." + msg.To}
}

type memAudit struct {
	reports []campaign.ImportReport
}

func (m *memAudit) SaveImportReport(_ context.Context, r campaign.ImportReport) error {
	m.reports = append(m.reports, r)
	return nil
}

type fixture struct {
	repo       *memRepo
	recipients *memRecipients
	sender     *scriptedSender
	audit      *memAudit
	svc        *campaign.Service
}

func newFixture(opts ...campaign.Option) *fixture {
	f := &fixture{
		repo:       newMemRepo(),
		recipients: newMemRecipients(),
		sender:     &scriptedSender{fail: map[string]bool{}},
		audit:      &memAudit{},
	}
	base := []campaign.Option{
		campaign.WithTemplates(stubTemplates{}),
		campaign.WithSender(f.sender),
		campaign.WithAuditSink(f.audit),
		campaign.WithSendDelay(0),
	}
	f.svc = campaign.NewService(f.repo, f.recipients, append(base, opts...)...)
	return f
}

func (f *fixture) seed(t *testing.T, status domain.CampaignStatus) *domain.Campaign {
	t.Helper()
	c, err := f.svc.Create(context.Background(), "admin", campaign.CreateInput{
		Name: "Diwali offers", TemplateName: "festive_offer", TemplateVariables: []string{"20%"},
	})
	require.NoError(t, err)
	f.repo.mu.Lock()
	f.repo.campaigns[c.ID].Status = status
	f.repo.mu.Unlock()
	c.Status = status
	return c
}

func TestCreate(t *testing.T) {
	f := newFixture()
	c, err := f.svc.Create(context.Background(), "admin", campaign.CreateInput{Name: " Launch ", TemplateName: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Launch", c.Name)
	assert.Equal(t, domain.CampaignDraft, c.Status)
	assert.Equal(t, domain.ChannelWhatsApp, c.Channel)
	assert.Equal(t, domain.AudienceCSV, c.AudienceType)
	assert.Equal(t, "admin", c.CreatedBy)
	assert.NotEmpty(t, c.ID)

	_, err = f.svc.Create(context.Background(), "admin", campaign.CreateInput{TemplateName: "hello"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Create(context.Background(), "admin", campaign.CreateInput{Name: "x", TemplateName: "hello", Channel: "SMS"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestControlTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)

	got, err := f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignRunning, got.Status)
	require.NotNil(t, got.StartedAt)
	started := *got.StartedAt

	got, err = f.svc.Control(ctx, c.ID, domain.ActionPause, "  vendor asked to hold ")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, got.Status)
	assert.Equal(t, "vendor asked to hold", got.PauseReason)
	assert.NotNil(t, got.PausedAt)

	got, err = f.svc.Control(ctx, c.ID, domain.ActionResume, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignRunning, got.Status)
	assert.Empty(t, got.PauseReason)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestControlRejectsInvalidTransition(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)

	_, err := f.svc.Control(context.Background(), c.ID, domain.ActionPause, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "cannot pause campaign in status DRAFT (requires RUNNING)", err.Error())
	assert.Equal(t, domain.CampaignDraft, f.repo.status(c.ID))

	_, err = f.svc.Control(context.Background(), c.ID, domain.ActionPopulate, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.EqualError(t, err, `invalid action "populate" (expected start, pause or resume)`)

	done := f.seed(t, domain.CampaignCompleted)
	_, err = f.svc.Control(context.Background(), done.ID, domain.ActionStart, "")
	assert.EqualError(t, err, "cannot start campaign in status COMPLETED (requires DRAFT or READY or PAUSED)")
}

func TestControlLostRaceIsConflict(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignRunning)
	// Another writer pauses between our read and our write.
	f.repo.beforeUpdate = func(stored *domain.Campaign) {
		stored.Status = domain.CampaignPaused
	}

	_, err := f.svc.Control(context.Background(), c.ID, domain.ActionPause, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestPopulate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)

	csv := "919876543210\n919876543210\nabc\n\n918765432109\n"
	res, err := f.svc.Populate(ctx, c.ID, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Invalid)
	assert.Equal(t, 1, res.Empty)

	assert.Equal(t, []string{"919876543210", "918765432109"}, f.recipients.phones(c.ID))
	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignReady, got.Status)
	assert.Equal(t, 2, got.TotalRecipients)

	require.Len(t, f.audit.reports, 1)
	assert.Equal(t, []campaign.RejectedLine{{Line: 3, Value: "abc"}}, f.audit.reports[0].Rejected)
}

func TestPopulateFlushesInBatchesOf25(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)

	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "  9198765%05d \r\n", i)
	}
	res, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 60, res.Imported)
	assert.Equal(t, []int{25, 25, 10}, f.recipients.batches)
}

func TestPopulateRequiresDraft(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignRunning)

	_, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader("919876543210\n"))
	assert.EqualError(t, err, "cannot populate campaign in status RUNNING (requires DRAFT)")
	assert.Empty(t, f.recipients.batches)
}

func TestPopulateWriteFailureRevertsToDraft(t *testing.T) {
	f := newFixture()
	f.recipients.failOn = 1
	c := f.seed(t, domain.CampaignDraft)

	_, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader("919876543210\n"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, domain.CampaignDraft, f.repo.status(c.ID))
}

func TestPopulateSkipsOverlongLine(t *testing.T) {
	f := newFixture(campaign.WithMaxLineBytes(32))
	c := f.seed(t, domain.CampaignDraft)

	csv := "919876543210\n" + strings.Repeat("x", 2000) + "\n918765432109\n"
	res, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Invalid)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, []string{"919876543210", "918765432109"}, f.recipients.phones(c.ID))
	assert.Equal(t, domain.CampaignReady, f.repo.status(c.ID))

	require.Len(t, f.audit.reports, 1)
	rejected := f.audit.reports[0].Rejected
	require.Len(t, rejected, 1)
	assert.Equal(t, 2, rejected[0].Line)
	assert.LessOrEqual(t, len(rejected[0].Value), 64)
}

func TestPopulateOverlongFinalLineWithoutNewline(t *testing.T) {
	f := newFixture(campaign.WithMaxLineBytes(32))
	c := f.seed(t, domain.CampaignDraft)

	res, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader("919876543210\n"+strings.Repeat("9", 64)))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Invalid)
}

func TestPopulateLogsRejectedLines(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(nil) })

	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)
	res, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader("919876543210\nabc12345\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invalid)

	var found map[string]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "rejected recipient line" {
			found = entry
		}
	}
	require.NotNil(t, found, "log output: %s", buf.String())
	assert.Equal(t, "WARN", found["level"])
	assert.Equal(t, c.ID, found["campaign_id"])
	assert.Equal(t, "2", found["line"])
	assert.Equal(t, "****2345", found["value"])
	assert.NotContains(t, buf.String(), "abc12345")
}

func TestPopulateStripsByteOrderMark(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)

	res, err := f.svc.Populate(context.Background(), c.ID, strings.NewReader("\ufeff919876543210\r\n918765432109\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Zero(t, res.Invalid)
	assert.Equal(t, []string{"919876543210", "918765432109"}, f.recipients.phones(c.ID))
}

func TestDispatchSendsAndCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n917654321098\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)
	f.sender.fail["918765432109"] = true

	res, err := f.svc.Dispatch(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Completed)
	assert.Equal(t, domain.CampaignCompleted, res.Campaign.Status)
	assert.Equal(t, 2, res.Campaign.SentCount)
	assert.Equal(t, 1, res.Campaign.FailedCount)
	assert.Equal(t, 100, res.Campaign.Progress())

	failed := f.recipients.rows[c.ID+"/918765432109"]
	assert.Equal(t, domain.RecipientFailed, failed.Status)
	assert.Equal(t, 1, failed.Attempts)
	assert.Contains(t, failed.LastError, "131026")
}

func TestDispatchHonoursLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n917654321098\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)

	res, err := f.svc.Dispatch(ctx, c.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempted)
	assert.False(t, res.Completed)
	assert.Equal(t, domain.CampaignRunning, res.Campaign.Status)
	assert.Equal(t, 1, res.Campaign.Pending())
}

func TestDispatchStopsWhenPaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n917654321098\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)

	// The operator pauses right after the first message goes out.
	f.repo.onGet = func(stored *domain.Campaign) {
		if stored.SentCount == 1 {
			stored.Status = domain.CampaignPaused
		}
	}
	res, err := f.svc.Dispatch(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempted)
	assert.True(t, res.Stopped)
	assert.False(t, res.Completed)
	assert.Equal(t, []string{"919876543210"}, f.sender.sent)
}

func TestDispatchPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ready := f.seed(t, domain.CampaignReady)
	_, err := f.svc.Dispatch(ctx, ready.ID, 10)
	assert.EqualError(t, err, "cannot dispatch campaign in status READY (requires RUNNING)")

	blocked := newFixture(campaign.WithTemplates(stubTemplates{
		err: apperr.Validation(`template "festive_offer" is not approved (approval status: PENDING)`),
	}))
	c := blocked.seed(t, domain.CampaignRunning)
	_, err = blocked.svc.Dispatch(ctx, c.ID, 10)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, blocked.sender.sent)
}

func TestDispatchRejectsConcurrentBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignRunning)

	held := distlock.NewLocalLock("campaign-dispatch:" + c.ID)
	ok, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Dispatch(ctx, c.ID, 10)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, held.Release(ctx))
	_, err = f.svc.Dispatch(ctx, c.ID, 10)
	assert.NoError(t, err)
}

func TestDispatchCampaignDeletedMidBatchIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)

	// The initial read and the first reload succeed; the campaign is gone
	// before the second send.
	f.repo.mu.Lock()
	f.repo.gets, f.repo.goneAfter = 0, 2
	f.repo.mu.Unlock()

	_, err = f.svc.Dispatch(ctx, c.ID, 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, []string{"919876543210"}, f.sender.sent)
}

func TestDispatchRejectsCompletedCampaign(t *testing.T) {
	f := newFixture()
	c := f.seed(t, domain.CampaignCompleted)

	_, err := f.svc.Dispatch(context.Background(), c.ID, 10)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "already COMPLETED")
}

// leaseLock records lease renewals and can be told it has lost ownership.
type leaseLock struct {
	mu       sync.Mutex
	ttl      time.Duration
	extends  []time.Duration
	lost     bool
	released bool
}

func (l *leaseLock) Acquire(context.Context) (bool, error) { return true, nil }

func (l *leaseLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

func (l *leaseLock) Extend(_ context.Context, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lost {
		return errors.New("lock is no longer held")
	}
	l.extends = append(l.extends, ttl)
	return nil
}

// tickingClock advances by step on every reading.
func tickingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestDispatchRenewsLockDuringLongBatch(t *testing.T) {
	ctx := context.Background()
	lock := &leaseLock{}
	f := newFixture(
		campaign.WithDispatchLease(time.Minute),
		campaign.WithClock(tickingClock(40*time.Second)),
		campaign.WithLocker(func(_ string, ttl time.Duration) distlock.DistLock {
			lock.ttl = ttl
			return lock
		}),
	)
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n917654321098\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)

	res, err := f.svc.Dispatch(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, time.Minute, lock.ttl)
	assert.NotEmpty(t, lock.extends)
	for _, d := range lock.extends {
		assert.Equal(t, time.Minute, d)
	}
	assert.True(t, lock.released)
}

func TestDispatchStopsWhenLockIsLost(t *testing.T) {
	ctx := context.Background()
	lock := &leaseLock{lost: true}
	f := newFixture(
		campaign.WithDispatchLease(time.Minute),
		campaign.WithClock(tickingClock(40*time.Second)),
		campaign.WithLocker(func(string, time.Duration) distlock.DistLock { return lock }),
	)
	c := f.seed(t, domain.CampaignDraft)
	_, err := f.svc.Populate(ctx, c.ID, strings.NewReader("919876543210\n918765432109\n"))
	require.NoError(t, err)
	_, err = f.svc.Control(ctx, c.ID, domain.ActionStart, "")
	require.NoError(t, err)

	res, err := f.svc.Dispatch(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.False(t, res.Completed)
	assert.Zero(t, res.Attempted)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, domain.CampaignRunning, res.Campaign.Status)
}
