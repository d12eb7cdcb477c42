package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/httputil"
	"github.com/streetbite/vendorhub/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type rateLimitedResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// Login returns the login handler for an admin surface. The messaging
// console authenticates with username and password; the email console only
// asks for a password.
//
//	POST /whatsapp-admin/login
//	POST /email-admin/login
func (h *Handlers) Login(surface domain.AdminSurface) http.HandlerFunc {
	kind := surface.SessionKind()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := h.clientIP(r)

		if st := h.limiter.Check(ctx, ip); st.Blocked {
			secs := st.RemainingSeconds()
			err := apperr.RateLimited("too many failed login attempts, try again later")
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			httputil.JSON(w, apperr.HTTPStatus(err), rateLimitedResponse{
				Error:             err.Error(),
				Code:              apperr.KindOf(err).String(),
				RetryAfterSeconds: secs,
			})
			return
		}

		var req loginRequest
		if !httputil.Decode(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Password == "" || (surface == domain.SurfaceWhatsApp && req.Username == "") {
			httputil.BadRequest(w, "username and password are required")
			return
		}

		admin, err := h.credentials.Lookup(ctx, surface, req.Username)
		if errors.Is(err, credential.ErrUnknownAdmin) {
			h.rejectLogin(ctx, w, ip, surface)
			return
		}
		if err != nil {
			httputil.InternalError(w, err)
			return
		}

		ok, err := credential.Verify(req.Password, admin.PasswordHash)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !ok {
			h.rejectLogin(ctx, w, ip, surface)
			return
		}

		h.limiter.Reset(ctx, ip)
		sess, err := h.sessions.Create(ctx, admin.Username, kind)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		h.sessions.SetCookie(w, kind, sess)
		h.log.Info("admin logged in", "surface", surface, "identity", admin.Username)
		httputil.OK(w, loginResponse{Success: true, Identity: admin.Username, ExpiresAt: sess.ExpiresAt})
	}
}

func (h *Handlers) rejectLogin(ctx context.Context, w http.ResponseWriter, ip string, surface domain.AdminSurface) {
	h.limiter.RecordFailure(ctx, ip)
	h.log.Warn("failed login", "surface", surface, "ip", ip)
	if h.loginDelay > 0 {
		t := time.NewTimer(h.loginDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
}

// Logout destroys the caller's session, if any, and clears the cookie.
//
//	POST /whatsapp-admin/logout
//	POST /email-admin/logout
func (h *Handlers) Logout(kind domain.SessionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.sessions.Destroy(r.Context(), h.sessions.Token(r, kind)); err != nil {
			h.log.Warn("logout: session delete failed", "error", err)
		}
		h.sessions.ClearCookie(w, kind)
		httputil.OK(w, map[string]bool{"success": true})
	}
}

// CheckSession reports the identity behind a valid session cookie. It runs
// behind session.Require, so an invalid session never reaches it.
//
//	GET /whatsapp-admin/check
//	GET /email-admin/check
func (h *Handlers) CheckSession(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, apperr.Unauthorized("no session in context"))
		return
	}
	httputil.OK(w, map[string]any{
		"authenticated": true,
		"identity":      s.Identity,
		"kind":          s.Kind,
		"expiresAt":     s.ExpiresAt,
	})
}
