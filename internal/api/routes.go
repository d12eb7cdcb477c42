package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/streetbite/vendorhub/internal/domain"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// SetupRoutes configures all routes. The messaging console and the campaign
// API sit behind a whatsapp-session; the email console behind an
// email-session. Login, logout and health need no session.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, req)
		})
	})

	// CORS - credentials are required for the session cookies, so origins
	// must be explicit.
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health.HandleHealth)
	r.Get("/health/ready", h.health.HandleReadiness)

	requireWhatsApp := h.sessions.Require(domain.SessionWhatsApp)
	requireEmail := h.sessions.Require(domain.SessionEmail)

	r.Route("/whatsapp-admin", func(r chi.Router) {
		r.Post("/login", h.Login(domain.SurfaceWhatsApp))
		r.Post("/logout", h.Logout(domain.SessionWhatsApp))

		r.Group(func(r chi.Router) {
			r.Use(requireWhatsApp)
			r.Get("/check", h.CheckSession)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", h.ListTemplates)
				r.Post("/", h.CreateTemplate)
				r.Put("/", h.UpdateTemplate)
				r.Delete("/", h.DeleteTemplate)
				r.Get("/{id}", h.GetTemplate)
				r.Put("/{id}", h.UpdateTemplate)
				r.Delete("/{id}", h.DeleteTemplate)
				r.Post("/{id}/sync", h.SyncTemplate)
			})
			r.Post("/send-template", h.SendTemplate)
		})
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Use(requireWhatsApp)
		r.Get("/", h.ListCampaigns)
		r.Post("/create", h.CreateCampaign)
		r.Get("/{id}", h.GetCampaign)
		r.Post("/{id}/control", h.ControlCampaign)
		r.Post("/{id}/populate", h.PopulateCampaign)
		r.Post("/{id}/dispatch", h.DispatchCampaign)
	})

	r.Route("/email-admin", func(r chi.Router) {
		r.Post("/login", h.Login(domain.SurfaceEmail))
		r.Post("/logout", h.Logout(domain.SessionEmail))

		r.Group(func(r chi.Router) {
			r.Use(requireEmail)
			r.Get("/check", h.CheckSession)
			r.Post("/send", h.SendBroadcast)
			r.Post("/send-one", h.SendEmail)
		})
	})

	return r
}
