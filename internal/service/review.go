package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/staybook/reviews/internal/client"
	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/pagination"
)

// ReviewService implements the review lifecycle: creation from a completed
// booking, author edits, and deletion with media cleanup.
type ReviewService struct {
	repo     repository.ReviewRepository
	bookings BookingLookup
	catalog  OwnerLookup
	media    MediaDeleter
	notifier Notifier
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.ReviewRepository,
	bookings BookingLookup,
	catalog OwnerLookup,
	media MediaDeleter,
	notifier Notifier,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		bookings: bookings,
		catalog:  catalog,
		media:    media,
		notifier: notifier,
		logger:   logger,
	}
}

// PhotoInput holds one photo attached to a review submission. Display order
// follows slice order.
type PhotoInput struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	BookingID           string
	Rating              int
	Comment             string
	CleanlinessRating   *int
	CommunicationRating *int
	CheckInRating       *int
	AccuracyRating      *int
	LocationRating      *int
	ValueRating         *int
	Photos              []PhotoInput
}

// Create submits a review for a completed booking. The booking must belong to
// the requester and carry no prior review; the storage-level unique constraint
// on booking_id decides ties between concurrent submissions.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput, requesterID string) (*domain.Review, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	booking, err := s.bookings.GetBooking(ctx, input.BookingID)
	if err != nil {
		return nil, fmt.Errorf("look up booking: %w", err)
	}

	if booking.GuestID != requesterID {
		return nil, apperrors.Forbidden("you can only review your own bookings")
	}

	if booking.Status != domain.BookingStatusCompleted {
		return nil, apperrors.Conflict("booking must be completed before it can be reviewed")
	}

	if err := validateRatings(&input.Rating, subRatingInputs(
		input.CleanlinessRating, input.CommunicationRating, input.CheckInRating,
		input.AccuracyRating, input.LocationRating, input.ValueRating,
	)); err != nil {
		return nil, err
	}

	for _, p := range input.Photos {
		if p.URL == "" {
			return nil, apperrors.InvalidInput("photo url is required")
		}
	}

	now := time.Now().UTC()
	reviewID := uuid.New().String()

	photos := make([]domain.ReviewPhoto, len(input.Photos))
	for i, p := range input.Photos {
		photos[i] = domain.ReviewPhoto{
			ID:       uuid.New().String(),
			ReviewID: reviewID,
			URL:      p.URL,
			Caption:  p.Caption,
			Position: i,
		}
	}

	review := &domain.Review{
		ID:                  reviewID,
		BookingID:           booking.ID,
		PropertyID:          booking.PropertyID,
		AuthorID:            requesterID,
		Rating:              input.Rating,
		CleanlinessRating:   input.CleanlinessRating,
		CommunicationRating: input.CommunicationRating,
		CheckInRating:       input.CheckInRating,
		AccuracyRating:      input.AccuracyRating,
		LocationRating:      input.LocationRating,
		ValueRating:         input.ValueRating,
		Comment:             input.Comment,
		IsVerified:          true,
		IsVisible:           true,
		Photos:              photos,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.CreateWithPhotos(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.Conflict("Review already exists for this booking")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	// The review is committed; everything past this point is best-effort.
	s.notifyReviewReceived(ctx, review)

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("booking_id", review.BookingID),
		slog.String("property_id", review.PropertyID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// notifyReviewReceived resolves the property owner and emits the
// review.received event. Failures are logged, never propagated.
func (s *ReviewService) notifyReviewReceived(ctx context.Context, review *domain.Review) {
	owner, err := s.catalog.GetPropertyOwner(ctx, review.PropertyID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve property owner for notification",
			slog.String("review_id", review.ID),
			slog.String("property_id", review.PropertyID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.notifier.PublishReviewReceived(ctx, review, owner); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.received event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetByID retrieves a review with photos and response.
func (s *ReviewService) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// UpdateReviewInput holds the partial content fields of an author edit. Nil
// means the field is left unchanged.
type UpdateReviewInput struct {
	Rating              *int
	Comment             *string
	CleanlinessRating   *int
	CommunicationRating *int
	CheckInRating       *int
	AccuracyRating      *int
	LocationRating      *int
	ValueRating         *int
}

// Update applies an author's partial edit to their review. Visibility and the
// booking linkage are never mutable through this path.
func (s *ReviewService) Update(ctx context.Context, reviewID string, input UpdateReviewInput, requesterID string) (*domain.Review, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}

	if review.AuthorID != requesterID {
		return nil, apperrors.Forbidden("only the author can edit a review")
	}

	if err := validateRatings(input.Rating, subRatingInputs(
		input.CleanlinessRating, input.CommunicationRating, input.CheckInRating,
		input.AccuracyRating, input.LocationRating, input.ValueRating,
	)); err != nil {
		return nil, err
	}

	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}
	if input.CleanlinessRating != nil {
		review.CleanlinessRating = input.CleanlinessRating
	}
	if input.CommunicationRating != nil {
		review.CommunicationRating = input.CommunicationRating
	}
	if input.CheckInRating != nil {
		review.CheckInRating = input.CheckInRating
	}
	if input.AccuracyRating != nil {
		review.AccuracyRating = input.AccuracyRating
	}
	if input.LocationRating != nil {
		review.LocationRating = input.LocationRating
	}
	if input.ValueRating != nil {
		review.ValueRating = input.ValueRating
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("author_id", review.AuthorID),
	)

	return review, nil
}

// Delete removes a review along with its photos and response. Permitted for
// the author, the owning realtor, or an admin. Media blobs are deleted
// best-effort per photo; a stuck blob never blocks row deletion.
func (s *ReviewService) Delete(ctx context.Context, reviewID, requesterID, requesterRole string) error {
	if requesterID == "" {
		return apperrors.Unauthorized("authentication required")
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review by id: %w", err)
	}

	if err := s.authorizeDelete(ctx, review, requesterID, requesterRole); err != nil {
		return err
	}

	for _, photo := range review.Photos {
		publicID := client.ExtractPublicID(photo.URL)
		if publicID == "" {
			s.logger.WarnContext(ctx, "could not derive public id for photo",
				slog.String("review_id", review.ID),
				slog.String("url", photo.URL),
			)
			continue
		}
		if err := s.media.DeleteImage(ctx, publicID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete review photo blob",
				slog.String("review_id", review.ID),
				slog.String("public_id", publicID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("requester_id", requesterID),
		slog.String("requester_role", requesterRole),
	)

	return nil
}

func (s *ReviewService) authorizeDelete(ctx context.Context, review *domain.Review, requesterID, requesterRole string) error {
	if requesterID == review.AuthorID || requesterRole == domain.RoleAdmin {
		return nil
	}

	owner, err := s.catalog.GetPropertyOwner(ctx, review.PropertyID)
	if err != nil {
		return fmt.Errorf("resolve property owner: %w", err)
	}
	if owner.RealtorID == requesterID {
		return nil
	}

	return apperrors.Forbidden("only the author, the property owner, or an admin can delete a review")
}

// ListByProperty returns the public page of visible reviews for a property.
func (s *ReviewService) ListByProperty(ctx context.Context, propertyID string, page pagination.Params) ([]domain.Review, int, error) {
	visible := true
	reviews, total, err := s.repo.List(ctx, repository.ReviewFilter{
		PropertyID: &propertyID,
		Visible:    &visible,
		Page:       page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list property reviews: %w", err)
	}
	return reviews, total, nil
}

// ListByAuthor returns all reviews written by a guest, visible or not.
func (s *ReviewService) ListByAuthor(ctx context.Context, authorID string, page pagination.Params) ([]domain.Review, int, error) {
	reviews, total, err := s.repo.List(ctx, repository.ReviewFilter{
		AuthorID: &authorID,
		Page:     page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list author reviews: %w", err)
	}
	return reviews, total, nil
}

// PropertySummary computes the public rating aggregates for a property.
func (s *ReviewService) PropertySummary(ctx context.Context, propertyID string) (*domain.RatingSummary, error) {
	summary, err := s.repo.PropertySummary(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("property summary: %w", err)
	}
	summary.AverageRating = RoundAverage(summary.AverageRating)
	return summary, nil
}

// subRatingInputs pairs each provided sub-rating with its field name for
// validation messages.
type ratedField struct {
	name  string
	value *int
}

func subRatingInputs(cleanliness, communication, checkIn, accuracy, location, value *int) []ratedField {
	return []ratedField{
		{"cleanlinessRating", cleanliness},
		{"communicationRating", communication},
		{"checkInRating", checkIn},
		{"accuracyRating", accuracy},
		{"locationRating", location},
		{"valueRating", value},
	}
}

// validateRatings checks the overall rating (when provided) and every
// provided sub-rating against the 1..5 scale.
func validateRatings(rating *int, subs []ratedField) error {
	if rating != nil && !domain.ValidRating(*rating) {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	for _, f := range subs {
		if f.value != nil && !domain.ValidRating(*f.value) {
			return apperrors.InvalidInput(fmt.Sprintf("%s must be between %d and %d", f.name, domain.MinRating, domain.MaxRating))
		}
	}
	return nil
}
