package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/pagination"
)

// ModerationService lets the owning realtor hide and unhide reviews of their
// properties without touching review content.
type ModerationService struct {
	repo     repository.ReviewRepository
	catalog  OwnerLookup
	notifier Notifier
	logger   *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(repo repository.ReviewRepository, catalog OwnerLookup, notifier Notifier, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
	}
}

// SetVisibility sets the moderation flag on a review. Reapplying the current
// value is a valid no-op. The review's author is notified on every request,
// best-effort.
func (s *ModerationService) SetVisibility(ctx context.Context, reviewID string, visible bool, requesterID string) (*domain.Review, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}

	owner, err := s.catalog.GetPropertyOwner(ctx, review.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("resolve property owner: %w", err)
	}
	if owner.RealtorID != requesterID {
		return nil, apperrors.Forbidden("only the property owner can moderate this review")
	}

	if err := s.repo.SetVisibility(ctx, reviewID, visible); err != nil {
		return nil, fmt.Errorf("set review visibility: %w", err)
	}
	review.IsVisible = visible

	// Committed; the author is told about the action even when it reapplied
	// the current value.
	if err := s.notifier.PublishModerationNotice(ctx, review, owner, visible); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderation event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review visibility changed",
		slog.String("review_id", review.ID),
		slog.Bool("is_visible", visible),
		slog.String("realtor_id", requesterID),
	)

	return review, nil
}

// ListRealtorReviews returns reviews across the realtor's portfolio for the
// moderation dashboard, hidden rows included. An optional property filter
// narrows the scope; it must name a property the realtor owns.
func (s *ModerationService) ListRealtorReviews(ctx context.Context, realtorID string, propertyID *string, visible *bool, page pagination.Params) ([]domain.Review, int, error) {
	if realtorID == "" {
		return nil, 0, apperrors.Unauthorized("authentication required")
	}

	propertyIDs, err := s.catalog.ListRealtorProperties(ctx, realtorID)
	if err != nil {
		return nil, 0, fmt.Errorf("list realtor properties: %w", err)
	}
	if len(propertyIDs) == 0 {
		return []domain.Review{}, 0, nil
	}

	filter := repository.ReviewFilter{
		PropertyIDs: propertyIDs,
		Visible:     visible,
		Page:        page,
	}

	if propertyID != nil {
		if !slices.Contains(propertyIDs, *propertyID) {
			return nil, 0, apperrors.Forbidden("property does not belong to this realtor")
		}
		filter.PropertyIDs = nil
		filter.PropertyID = propertyID
	}

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list realtor reviews: %w", err)
	}
	return reviews, total, nil
}
