package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every route. Browsers are allowed in only from
// allowedOrigins; an empty list disables CORS headers.
func NewRouter(h *Handlers, allowedOrigins ...string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	// SMTP probes can take a while; cap the whole request.
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/verify", h.Verify)
		r.Get("/candidates", h.Candidates)
		r.Post("/rank", h.Rank)
		r.Post("/leads", h.BuildLead)
	})
	return r
}
