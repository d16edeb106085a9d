package router

import (
	"net/http"

	"bhesbhusa/internal/handler"
	"bhesbhusa/internal/metrics"
	"bhesbhusa/internal/middleware"
	"bhesbhusa/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Clothes *handler.ClothesHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
}

// Options configures the middleware chain.
type Options struct {
	APIKey        string
	AllowedOrigin string
	Limiter       ratelimit.Limiter
	Metrics       *metrics.Metrics
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> Logging -> Metrics -> CORS -> APIKeyAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS(opts.AllowedOrigin))
	r.Use(middleware.APIKeyAuth(opts.APIKey, logger))

	limited := func(next http.HandlerFunc) http.Handler { return next }
	if opts.Limiter != nil {
		limit := middleware.RateLimit(opts.Limiter, logger)
		limited = func(next http.HandlerFunc) http.Handler { return limit(next) }
	}

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Route("/api/clothes", func(r chi.Router) {
		r.Get("/", h.Clothes.GetAll)
		r.Get("/{id}", h.Clothes.GetByID)
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Get("/", h.Order.GetAll)
		r.Method(http.MethodPost, "/create", limited(h.Order.Create))
		r.Method(http.MethodPost, "/create-stripe", limited(h.Payment.CreateCheckoutSession))
		r.Post("/webhook", h.Payment.Webhook)
		r.Get("/user/{userId}", h.Order.GetByUser)
		r.Get("/{id}", h.Order.GetByID)
		r.Patch("/{id}", h.Order.Cancel)
		r.Patch("/{id}/status", h.Order.UpdateStatus)
	})

	return r
}
