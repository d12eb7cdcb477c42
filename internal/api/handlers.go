package api

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
	"github.com/streetbite/vendorhub/internal/ratelimit"
	"github.com/streetbite/vendorhub/internal/service/broadcast"
	"github.com/streetbite/vendorhub/internal/service/campaign"
	"github.com/streetbite/vendorhub/internal/service/template"
	"github.com/streetbite/vendorhub/internal/session"
)

// Deps are the collaborators the HTTP layer is built from. Broadcasts may be
// nil when no email provider is configured; the email routes then answer 400.
type Deps struct {
	Sessions         *session.Manager
	Limiter          *ratelimit.Limiter
	Credentials      credential.Store
	Campaigns        *campaign.Service
	Templates        *template.Service
	Broadcasts       *broadcast.Service
	Health           *HealthChecker
	FailedLoginDelay time.Duration
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions    *session.Manager
	limiter     *ratelimit.Limiter
	credentials credential.Store
	campaigns   *campaign.Service
	templates   *template.Service
	broadcasts  *broadcast.Service
	health      *HealthChecker
	loginDelay  time.Duration
	trusted     []netip.Prefix
	log         *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(d Deps) *Handlers {
	health := d.Health
	if health == nil {
		health = NewHealthChecker(nil, "", nil, nil, "")
	}
	return &Handlers{
		sessions:    d.Sessions,
		limiter:     d.Limiter,
		credentials: d.Credentials,
		campaigns:   d.Campaigns,
		templates:   d.Templates,
		broadcasts:  d.Broadcasts,
		health:      health,
		loginDelay:  d.FailedLoginDelay,
		log:         logger.With("api"),
	}
}

// parseTrustedProxies turns IPs and CIDRs into prefixes. Unparseable
// entries are logged and skipped.
func parseTrustedProxies(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		logger.Warn("ignoring invalid trusted proxy", "entry", e)
	}
	return out
}

func (h *Handlers) isTrustedProxy(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range h.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientIP returns the address the login rate limiter keys on. It is the
// socket peer unless that peer is a trusted proxy, in which case
// X-Forwarded-For is walked from the right past trusted hops; the first
// untrusted hop is the client. Entries left of it were written by the
// client and are ignored.
func (h *Handlers) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !h.isTrustedProxy(host) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || h.isTrustedProxy(hop) {
			continue
		}
		return hop
	}
	return host
}

// queryInt parses a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}
