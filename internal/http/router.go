package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"github.com/robertarktes/show-seat-booking/internal/rateLimit"
)

type RouterConfig struct {
	JWTSecret          string
	RateLimitPerMinute int
}

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/v1/shows/{showID}", h.GetShow)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))
		r.Use(LoggerMiddleware(logger))
		r.Use(RateLimitMiddleware(rl, cfg.RateLimitPerMinute))
		r.Use(IdempotencyMiddleware)

		r.Post("/v1/shows/{showID}/bookings", h.CreateBooking)
		r.Post("/v1/shows/{showID}/cancel", h.CancelBooking)
		r.Get("/v1/bookings", h.ListBookings)
	})

	return r
}
