package session

import (
	"context"
	"net/http"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/httputil"
)

type ctxKey struct{}

// Require is middleware that rejects requests without a valid session of
// kind with a generic 401, and stores the session in the request context.
func (m *Manager) Require(kind domain.SessionKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := m.Validate(r, kind)
			if !res.Valid {
				m.log.Debug("session rejected", "kind", kind, "path", r.URL.Path, "reason", res.Error)
				httputil.WriteError(w, apperr.Unauthorized(res.Error))
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), res.Session)))
		})
	}
}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Require, if any.
func FromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*domain.Session)
	return s, ok
}
