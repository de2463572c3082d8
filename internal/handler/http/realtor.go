package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/staybook/reviews/internal/service"
	"github.com/staybook/reviews/pkg/httputil"
	"github.com/staybook/reviews/pkg/middleware"
	"github.com/staybook/reviews/pkg/pagination"
	"github.com/staybook/reviews/pkg/validator"
)

// RealtorHandler handles HTTP requests for realtor-facing review endpoints:
// responses, visibility moderation, and portfolio analytics.
type RealtorHandler struct {
	responses  *service.ResponseService
	moderation *service.ModerationService
	analytics  *service.AnalyticsService
	logger     *slog.Logger
}

// NewRealtorHandler creates a new realtor HTTP handler.
func NewRealtorHandler(
	responses *service.ResponseService,
	moderation *service.ModerationService,
	analytics *service.AnalyticsService,
	logger *slog.Logger,
) *RealtorHandler {
	return &RealtorHandler{
		responses:  responses,
		moderation: moderation,
		analytics:  analytics,
		logger:     logger,
	}
}

// --- Request DTOs ---

// CreateResponseRequest is the JSON request body for a realtor response.
type CreateResponseRequest struct {
	Comment string `json:"comment" validate:"required,max=4000"`
}

// SetVisibilityRequest is the JSON request body for moderating a review.
type SetVisibilityRequest struct {
	IsVisible *bool `json:"isVisible" validate:"required"`
}

// --- Handlers ---

// CreateResponse handles POST /api/v1/reviews/{id}/response
func (h *RealtorHandler) CreateResponse(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateResponseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	response, err := h.responses.Respond(r.Context(), chi.URLParam(r, "id"),
		req.Comment, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, response)
}

// SetVisibility handles PATCH /api/v1/reviews/{id}/visibility
func (h *RealtorHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetVisibilityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.moderation.SetVisibility(r.Context(), chi.URLParam(r, "id"),
		*req.IsVisible, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// ListRealtorReviews handles GET /api/v1/realtor/reviews
func (h *RealtorHandler) ListRealtorReviews(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, reviewSortFields...)

	var propertyID *string
	if v := r.URL.Query().Get("propertyId"); v != "" {
		propertyID = &v
	}

	var visible *bool
	switch r.URL.Query().Get("isVisible") {
	case "true":
		t := true
		visible = &t
	case "false":
		f := false
		visible = &f
	}

	reviews, total, err := h.moderation.ListRealtorReviews(r.Context(),
		middleware.UserIDFromContext(r.Context()), propertyID, visible, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.NewPaginated(reviews, total, page.Page, page.Limit))
}

// GetAnalytics handles GET /api/v1/realtor/reviews/analytics
func (h *RealtorHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.analytics.RealtorAnalytics(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, analytics)
}
