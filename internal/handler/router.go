package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jobadwizard/backend/internal/handler/page"
	"github.com/jobadwizard/backend/internal/handler/wizard"
	"github.com/jobadwizard/backend/internal/metrics"
	"github.com/jobadwizard/backend/pkg/utils"
)

// RouterOptions carries the optional pieces of the router.
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Collector

	// GenerationState reports the generation breaker state for /healthz.
	GenerationState func() string
}

// NewRouter wires HTTP routes to the wizard handlers.
func NewRouter(wizardHandler *wizard.Handler, pageHandler *page.Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok"}
		if opts.GenerationState != nil {
			state := opts.GenerationState()
			body["generation"] = state
			// An open breaker degrades the wizard but the process stays live.
			if state != "closed" {
				body["status"] = "degraded"
			}
		}
		utils.RespondJSON(w, http.StatusOK, body)
	})

	// The page shell posts to /chat directly.
	r.Method(http.MethodGet, "/", pageHandler)
	r.Method(http.MethodHead, "/", pageHandler)
	r.Post("/chat", wizardHandler.HandleChat)

	r.Route("/api", func(api chi.Router) {
		wizardHandler.RegisterRoutes(api)
	})

	return r
}
