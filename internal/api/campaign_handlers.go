package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/httputil"
	"github.com/streetbite/vendorhub/internal/service/campaign"
	"github.com/streetbite/vendorhub/internal/session"
)

// campaignView adds the derived progress figures to a campaign.
type campaignView struct {
	*domain.Campaign
	Pending  int `json:"pending"`
	Progress int `json:"progress"`
}

func viewOf(c *domain.Campaign) campaignView {
	return campaignView{Campaign: c, Pending: c.Pending(), Progress: c.Progress()}
}

type controlRequest struct {
	Action domain.CampaignAction `json:"action"`
	Reason string                `json:"reason"`
}

// ListCampaigns returns the most recent campaigns.
//
//	GET /campaigns?limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.campaigns.List(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views := make([]campaignView, 0, len(list))
	for i := range list {
		views = append(views, viewOf(&list[i]))
	}
	httputil.OK(w, map[string]any{"campaigns": views, "count": len(views)})
}

// CreateCampaign creates a DRAFT campaign owned by the caller.
//
//	POST /campaigns/create
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	var createdBy string
	if s, ok := session.FromContext(r.Context()); ok {
		createdBy = s.Identity
	}
	c, err := h.campaigns.Create(r.Context(), createdBy, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.Created(w, viewOf(c))
}

// GetCampaign returns one campaign with its pending count and progress.
//
//	GET /campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, viewOf(c))
}

// ControlCampaign applies start, pause or resume.
//
//	POST /campaigns/{id}/control
func (h *Handlers) ControlCampaign(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	c, err := h.campaigns.Control(r.Context(), chi.URLParam(r, "id"), req.Action, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true, "campaign": viewOf(c)})
}

// PopulateCampaign imports recipients from the "file" part of a multipart
// upload. The part is streamed straight into the importer.
//
//	POST /campaigns/{id}/populate
func (h *Handlers) PopulateCampaign(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		httputil.BadRequest(w, "expected multipart/form-data upload")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			httputil.BadRequest(w, "file is required")
			return
		}
		if err != nil {
			httputil.BadRequest(w, "malformed multipart body: "+err.Error())
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		res, err := h.campaigns.Populate(r.Context(), chi.URLParam(r, "id"), part)
		part.Close()
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.OK(w, map[string]any{"success": true, "result": res})
		return
	}
}

// DispatchCampaign sends the next batch of pending recipients.
//
//	POST /campaigns/{id}/dispatch?limit=
func (h *Handlers) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	res, err := h.campaigns.Dispatch(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, res)
}
