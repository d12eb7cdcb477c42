package api

import (
	"net/http"

	"github.com/streetbite/vendorhub/internal/pkg/httputil"
	"github.com/streetbite/vendorhub/internal/service/broadcast"
)

type sendOneRequest struct {
	Subject string              `json:"subject"`
	HTML    string              `json:"html"`
	To      broadcast.Recipient `json:"to"`
}

// SendBroadcast renders and sends an email to every recipient in turn and
// reports the outcome per recipient.
//
//	POST /email-admin/send
func (h *Handlers) SendBroadcast(w http.ResponseWriter, r *http.Request) {
	if h.broadcasts == nil {
		httputil.BadRequest(w, "email sending is not configured")
		return
	}
	var req broadcast.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	rep, err := h.broadcasts.Send(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, rep)
}

// SendEmail sends a single email; a provider rejection answers 502.
//
//	POST /email-admin/send-one
func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	if h.broadcasts == nil {
		httputil.BadRequest(w, "email sending is not configured")
		return
	}
	var req sendOneRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.broadcasts.SendOne(r.Context(), req.Subject, req.HTML, req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, res)
}
