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

// reviewSortFields are the columns callers may sort review listings by.
var reviewSortFields = []string{"created_at", "rating"}

// ReviewHandler handles HTTP requests for guest-facing review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// PhotoRequest is a single photo attached to a review submission.
type PhotoRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"max=255"`
}

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	BookingID           string         `json:"bookingId" validate:"required"`
	Rating              int            `json:"rating" validate:"required,min=1,max=5"`
	Comment             string         `json:"comment" validate:"max=4000"`
	CleanlinessRating   *int           `json:"cleanlinessRating" validate:"omitempty,min=1,max=5"`
	CommunicationRating *int           `json:"communicationRating" validate:"omitempty,min=1,max=5"`
	CheckInRating       *int           `json:"checkInRating" validate:"omitempty,min=1,max=5"`
	AccuracyRating      *int           `json:"accuracyRating" validate:"omitempty,min=1,max=5"`
	LocationRating      *int           `json:"locationRating" validate:"omitempty,min=1,max=5"`
	ValueRating         *int           `json:"valueRating" validate:"omitempty,min=1,max=5"`
	Photos              []PhotoRequest `json:"photos" validate:"max=10,dive"`
}

// UpdateReviewRequest is the JSON request body for editing a review. Absent
// fields leave the stored value untouched.
type UpdateReviewRequest struct {
	Rating              *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment             *string `json:"comment" validate:"omitempty,max=4000"`
	CleanlinessRating   *int    `json:"cleanlinessRating" validate:"omitempty,min=1,max=5"`
	CommunicationRating *int    `json:"communicationRating" validate:"omitempty,min=1,max=5"`
	CheckInRating       *int    `json:"checkInRating" validate:"omitempty,min=1,max=5"`
	AccuracyRating      *int    `json:"accuracyRating" validate:"omitempty,min=1,max=5"`
	LocationRating      *int    `json:"locationRating" validate:"omitempty,min=1,max=5"`
	ValueRating         *int    `json:"valueRating" validate:"omitempty,min=1,max=5"`
}

// --- Handlers ---

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	photos := make([]service.PhotoInput, len(req.Photos))
	for i, p := range req.Photos {
		photos[i] = service.PhotoInput{URL: p.URL, Caption: p.Caption}
	}

	input := service.CreateReviewInput{
		BookingID:           req.BookingID,
		Rating:              req.Rating,
		Comment:             req.Comment,
		CleanlinessRating:   req.CleanlinessRating,
		CommunicationRating: req.CommunicationRating,
		CheckInRating:       req.CheckInRating,
		AccuracyRating:      req.AccuracyRating,
		LocationRating:      req.LocationRating,
		ValueRating:         req.ValueRating,
		Photos:              photos,
	}

	review, err := h.service.Create(r.Context(), input, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// UpdateReview handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateReviewInput{
		Rating:              req.Rating,
		Comment:             req.Comment,
		CleanlinessRating:   req.CleanlinessRating,
		CommunicationRating: req.CommunicationRating,
		CheckInRating:       req.CheckInRating,
		AccuracyRating:      req.AccuracyRating,
		LocationRating:      req.LocationRating,
		ValueRating:         req.ValueRating,
	}

	review, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.Delete(ctx, chi.URLParam(r, "id"),
		middleware.UserIDFromContext(ctx), middleware.RoleFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// ListPropertyReviews handles GET /api/v1/properties/{id}/reviews
func (h *ReviewHandler) ListPropertyReviews(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, reviewSortFields...)

	reviews, total, err := h.service.ListByProperty(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.NewPaginated(reviews, total, page.Page, page.Limit))
}

// PropertySummary handles GET /api/v1/properties/{id}/reviews/summary
func (h *ReviewHandler) PropertySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.PropertySummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}

// ListMyReviews handles GET /api/v1/me/reviews
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, reviewSortFields...)

	reviews, total, err := h.service.ListByAuthor(r.Context(), middleware.UserIDFromContext(r.Context()), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.NewPaginated(reviews, total, page.Page, page.Limit))
}
