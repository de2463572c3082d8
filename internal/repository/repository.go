package repository

import (
	"context"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/pkg/pagination"
)

// ReviewFilter defines filter criteria for listing reviews. At most one of
// PropertyID, AuthorID, or PropertyIDs is normally set; combining them
// narrows the result further.
type ReviewFilter struct {
	PropertyID  *string
	AuthorID    *string
	PropertyIDs []string // realtor portfolio scope
	Visible     *bool
	Page        pagination.Params
}

// PortfolioStats holds aggregates computed across a set of properties.
type PortfolioStats struct {
	TotalReviews   int
	AverageRating  float64
	Distribution   map[int]int
	ResponsesGiven int
}

// ReviewRepository defines the persistence operations for reviews, their
// photos, and realtor responses.
type ReviewRepository interface {
	// CreateWithPhotos inserts the review and all its photos atomically.
	// Returns apperrors.ErrAlreadyExists when the booking already has a review.
	CreateWithPhotos(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its photos and response.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the filter along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// Update persists the mutable content fields of a review.
	Update(ctx context.Context, review *domain.Review) error

	// SetVisibility flips the moderation flag on a review.
	SetVisibility(ctx context.Context, id string, visible bool) error

	// Delete removes a review; photos and the response go with it.
	Delete(ctx context.Context, id string) error

	// CreateResponse inserts the single realtor response for a review.
	// Returns apperrors.ErrAlreadyExists when the review already has one.
	CreateResponse(ctx context.Context, response *domain.ReviewResponse) error

	// PropertySummary computes visible-review aggregates for one property.
	PropertySummary(ctx context.Context, propertyID string) (*domain.RatingSummary, error)

	// PortfolioStats computes aggregates across all reviews of the given
	// properties, including how many carry a response.
	PortfolioStats(ctx context.Context, propertyIDs []string) (*PortfolioStats, error)
}
