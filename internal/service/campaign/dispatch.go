package campaign

import (
	"context"
	"errors"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/sender"
)

// DispatchResult reports one dispatch batch.
type DispatchResult struct {
	Attempted int              `json:"attempted"`
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Stopped   bool             `json:"stopped"`
	Completed bool             `json:"completed"`
	Campaign  *domain.Campaign `json:"campaign"`
}

// Dispatch sends the template to up to limit pending recipients of a
// RUNNING WhatsApp campaign, one at a time with the configured delay. The
// campaign status is re-read before every send so a pause takes effect
// mid-batch. When no pending recipients remain the campaign completes.
func (s *Service) Dispatch(ctx context.Context, id string, limit int) (*DispatchResult, error) {
	if s.sender == nil || s.templates == nil {
		return nil, apperr.Internal("dispatch", errors.New("whatsapp sending is not configured"))
	}
	if limit <= 0 || limit > s.dispatchLimit {
		limit = s.dispatchLimit
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, apperr.Validation("campaign %s is already %s", id, c.Status)
	}
	if c.Status != domain.CampaignRunning {
		return nil, apperr.Validation("cannot dispatch campaign in status %s (requires %s)", c.Status, domain.CampaignRunning)
	}
	if c.Channel != domain.ChannelWhatsApp {
		return nil, apperr.Validation("campaign %s uses channel %s; only %s campaigns can be dispatched", id, c.Channel, domain.ChannelWhatsApp)
	}
	tpl, err := s.templates.CheckSendable(ctx, c.TemplateName, c.TemplateVariables)
	if err != nil {
		return nil, err
	}

	lock := s.lock("campaign-dispatch:"+id, s.lockLease)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, apperr.Internal("acquire dispatch lock", err)
	}
	if !ok {
		return nil, apperr.Conflict("campaign %s is already being dispatched", id)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("failed to release dispatch lock", "campaign_id", id, "error", err)
		}
	}()

	pending, err := s.recipients.ListPending(ctx, id, limit)
	if err != nil {
		return nil, apperr.Internal("list pending recipients", err)
	}

	res := &DispatchResult{}
	renewed := s.now()
	for i, r := range pending {
		if i > 0 {
			if err := sender.Pause(ctx, s.sendDelay); err != nil {
				res.Stopped = true
				break
			}
		}
		if s.now().Sub(renewed) >= s.lockLease/2 {
			if err := lock.Extend(ctx, s.lockLease); err != nil {
				s.log.Error("dispatch lock lost, stopping batch", "campaign_id", id, "error", err)
				res.Stopped = true
				break
			}
			renewed = s.now()
		}
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status != domain.CampaignRunning {
			s.log.Info("dispatch stopped, campaign no longer running", "campaign_id", id, "status", cur.Status)
			res.Stopped = true
			break
		}

		out := s.sender.SendTemplate(ctx, sender.TemplateMessage{
			To:           r.Phone,
			TemplateName: tpl.Name,
			Language:     tpl.Language,
			Variables:    c.TemplateVariables,
		})
		r.Attempts++
		r.UpdatedAt = s.now().UTC()
		sent, failed := 0, 0
		if out.Success {
			r.Status = domain.RecipientSent
			r.MessageID = out.MessageID
			r.LastError = ""
			sent = 1
		} else {
			r.Status = domain.RecipientFailed
			r.LastError = out.Error
			failed = 1
		}
		res.Attempted++
		res.Sent += sent
		res.Failed += failed

		if err := s.recipients.MarkResult(ctx, r); err != nil {
			return nil, apperr.Internal("record send result", err)
		}
		if err := s.repo.IncrementCounters(ctx, id, sent, failed); err != nil {
			return nil, apperr.Internal("update campaign counters", err)
		}
	}

	if !res.Stopped {
		remaining, err := s.recipients.ListPending(ctx, id, 1)
		if err != nil {
			return nil, apperr.Internal("list pending recipients", err)
		}
		if len(remaining) == 0 {
			res.Completed = s.complete(ctx, id)
		}
	}

	c, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Campaign = c
	s.log.Info("dispatch batch finished",
		"campaign_id", id, "attempted", res.Attempted, "sent", res.Sent, "failed", res.Failed,
		"stopped", res.Stopped, "completed", res.Completed)
	return res, nil
}

// complete moves a RUNNING campaign to COMPLETED. Losing the race to a
// concurrent pause is not an error.
func (s *Service) complete(ctx context.Context, id string) bool {
	now := s.now().UTC()
	err := s.repo.UpdateStatus(ctx, id, domain.CampaignRunning, StatusUpdate{
		To: domain.CampaignCompleted, At: now, CompletedAt: &now,
	})
	if err != nil {
		if !errors.Is(err, ErrStatusConflict) {
			s.log.Error("failed to complete campaign", "campaign_id", id, "error", err)
		}
		return false
	}
	s.log.Info("campaign completed", "campaign_id", id)
	return true
}
