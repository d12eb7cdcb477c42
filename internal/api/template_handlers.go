package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/streetbite/vendorhub/internal/pkg/httputil"
	"github.com/streetbite/vendorhub/internal/service/template"
)

// updateTemplateRequest is the collection-level PUT body, which names the
// template by id alongside the changed fields.
type updateTemplateRequest struct {
	ID string `json:"id"`
	template.UpdateInput
}

// ListTemplates returns all templates, or a single one when ?id= is given.
//
//	GET /whatsapp-admin/templates
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		h.writeTemplate(w, r, id)
		return
	}
	list, err := h.templates.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"templates": list, "count": len(list)})
}

// GetTemplate returns one template.
//
//	GET /whatsapp-admin/templates/{id}
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	h.writeTemplate(w, r, chi.URLParam(r, "id"))
}

func (h *Handlers) writeTemplate(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.templates.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, t)
}

// CreateTemplate registers a new template.
//
//	POST /whatsapp-admin/templates
func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in template.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	t, err := h.templates.Create(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.Created(w, t)
}

// UpdateTemplate applies a partial update. The id comes from the path, or
// from the body on the collection route.
//
//	PUT /whatsapp-admin/templates
//	PUT /whatsapp-admin/templates/{id}
func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		id = strings.TrimSpace(req.ID)
	}
	if id == "" {
		httputil.BadRequest(w, "template id is required")
		return
	}
	t, err := h.templates.Update(r.Context(), id, req.UpdateInput)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, t)
}

// DeleteTemplate removes a template.
//
//	DELETE /whatsapp-admin/templates?id=
//	DELETE /whatsapp-admin/templates/{id}
func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if id == "" {
		httputil.BadRequest(w, "template id is required")
		return
	}
	if err := h.templates.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"success": true})
}

// SyncTemplate refreshes the approval status from the provider.
//
//	POST /whatsapp-admin/templates/{id}/sync
func (h *Handlers) SyncTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.templates.SyncApproval(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, t)
}

// SendTemplate sends one template message to a single number.
//
//	POST /whatsapp-admin/send-template
func (h *Handlers) SendTemplate(w http.ResponseWriter, r *http.Request) {
	var in template.SendInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	res, err := h.templates.Send(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, res)
}
