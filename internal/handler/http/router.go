package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/service"
	"github.com/staybook/reviews/pkg/health"
	"github.com/staybook/reviews/pkg/middleware"
)

// RouterConfig carries the knobs the router needs beyond its handlers.
type RouterConfig struct {
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviews *service.ReviewService,
	responses *service.ResponseService,
	moderation *service.ModerationService,
	analytics *service.AnalyticsService,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("review"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	reviewHandler := NewReviewHandler(reviews, logger)
	realtorHandler := NewRealtorHandler(responses, moderation, analytics, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequestLogger(logger))

		// Public property-facing reads.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(validate))

			r.Get("/properties/{id}/reviews", reviewHandler.ListPropertyReviews)
			r.Get("/properties/{id}/reviews/summary", reviewHandler.PropertySummary)
			r.Get("/reviews/{id}", reviewHandler.GetReview)
		})

		// Authenticated review lifecycle.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))

			r.With(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)).
				Post("/reviews", reviewHandler.CreateReview)
			r.Patch("/reviews/{id}", reviewHandler.UpdateReview)
			r.Delete("/reviews/{id}", reviewHandler.DeleteReview)
			r.Get("/me/reviews", reviewHandler.ListMyReviews)
		})

		// Realtor-only surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Use(middleware.RequireRole(domain.RoleRealtor, domain.RoleAdmin))

			r.Post("/reviews/{id}/response", realtorHandler.CreateResponse)
			r.Patch("/reviews/{id}/visibility", realtorHandler.SetVisibility)
			r.Get("/realtor/reviews", realtorHandler.ListRealtorReviews)
			r.Get("/realtor/reviews/analytics", realtorHandler.GetAnalytics)
		})
	})

	return r
}
