// Package memory keeps sessions, rate-limit counters, admins, campaigns,
// recipients and templates in process. It backs local development
// (STORAGE_BACKEND=memory) and follows the same conditional-write rules as
// the DynamoDB repositories. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/service/campaign"
	"github.com/streetbite/vendorhub/internal/service/template"
	"github.com/streetbite/vendorhub/internal/session"
)

// SessionStore implements session.Store.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]domain.Session)}
}

func (s *SessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Put(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.Token] = *sess
	return nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

// RateLimitStore implements ratelimit.Store.
type RateLimitStore struct {
	mu    sync.Mutex
	items map[string]domain.RateLimitRecord
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{items: make(map[string]domain.RateLimitRecord)}
}

func (s *RateLimitStore) Get(_ context.Context, ip string) (*domain.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[ip]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *RateLimitStore) Put(_ context.Context, rec *domain.RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.IP] = *rec
	return nil
}

func (s *RateLimitStore) Delete(_ context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, ip)
	return nil
}

// AdminStore implements credential.Store.
type AdminStore struct {
	mu    sync.Mutex
	items map[string]domain.Admin
}

func NewAdminStore() *AdminStore {
	return &AdminStore{items: make(map[string]domain.Admin)}
}

// Lookup applies the same surface and disabled checks as the DynamoDB store.
func (s *AdminStore) Lookup(_ context.Context, surface domain.AdminSurface, username string) (*domain.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[username]
	if !ok || a.Disabled || (a.Surface != "" && a.Surface != surface) {
		return nil, credential.ErrUnknownAdmin
	}
	return &a, nil
}

func (s *AdminStore) Put(_ context.Context, a *domain.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.Username] = *a
	return nil
}

// CampaignRepo implements campaign.Repository.
type CampaignRepo struct {
	mu    sync.Mutex
	items map[string]domain.Campaign
}

func NewCampaignRepo() *CampaignRepo {
	return &CampaignRepo{items: make(map[string]domain.Campaign)}
}

func (r *CampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; ok {
		return fmt.Errorf("campaign %s already exists", c.ID)
	}
	r.items[c.ID] = *c
	return nil
}

func (r *CampaignRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return &c, nil
}

func (r *CampaignRepo) List(_ context.Context, limit int) ([]domain.Campaign, error) {
	r.mu.Lock()
	out := make([]domain.Campaign, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *CampaignRepo) UpdateStatus(_ context.Context, id string, from domain.CampaignStatus, u campaign.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if c.Status != from {
		return campaign.ErrStatusConflict
	}
	u.Apply(&c)
	r.items[id] = c
	return nil
}

func (r *CampaignRepo) IncrementCounters(_ context.Context, id string, sent, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.SentCount += sent
	c.FailedCount += failed
	r.items[id] = c
	return nil
}

type recipientKey struct{ campaignID, phone string }

// RecipientRepo implements campaign.RecipientRepository.
type RecipientRepo struct {
	mu    sync.Mutex
	items map[recipientKey]domain.Recipient
}

func NewRecipientRepo() *RecipientRepo {
	return &RecipientRepo{items: make(map[recipientKey]domain.Recipient)}
}

func (r *RecipientRepo) PutBatch(_ context.Context, recipients []domain.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recipients {
		r.items[recipientKey{rec.CampaignID, rec.Phone}] = rec
	}
	return nil
}

// ListPending returns pending recipients ordered by phone, like a DynamoDB
// query on the (campaignId, phone) key.
func (r *RecipientRepo) ListPending(_ context.Context, campaignID string, limit int) ([]domain.Recipient, error) {
	r.mu.Lock()
	var out []domain.Recipient
	for k, rec := range r.items {
		if k.campaignID == campaignID && rec.Status == domain.RecipientPending {
			out = append(out, rec)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RecipientRepo) MarkResult(_ context.Context, rec domain.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[recipientKey{rec.CampaignID, rec.Phone}] = rec
	return nil
}

// Count returns the number of stored recipients for a campaign.
func (r *RecipientRepo) Count(campaignID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.items {
		if k.campaignID == campaignID {
			n++
		}
	}
	return n
}

// TemplateRepo implements template.Repository.
type TemplateRepo struct {
	mu    sync.Mutex
	items map[string]domain.Template
}

func NewTemplateRepo() *TemplateRepo {
	return &TemplateRepo{items: make(map[string]domain.Template)}
}

func (r *TemplateRepo) Create(_ context.Context, t *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; ok {
		return template.ErrExists
	}
	r.items[t.ID] = *t
	return nil
}

func (r *TemplateRepo) Get(_ context.Context, id string) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, template.ErrNotFound
	}
	return &t, nil
}

func (r *TemplateRepo) GetByName(_ context.Context, name string) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, template.ErrNotFound
}

func (r *TemplateRepo) List(_ context.Context) ([]domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Template, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	return out, nil
}

func (r *TemplateRepo) Update(_ context.Context, t *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return template.ErrNotFound
	}
	r.items[t.ID] = *t
	return nil
}

func (r *TemplateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return template.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
