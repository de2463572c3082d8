package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	apperrors "github.com/staybook/reviews/pkg/errors"
)

// ResponseService handles the single realtor response attached to a review.
type ResponseService struct {
	repo     repository.ReviewRepository
	catalog  OwnerLookup
	notifier Notifier
	logger   *slog.Logger
}

// NewResponseService creates a new response service.
func NewResponseService(repo repository.ReviewRepository, catalog OwnerLookup, notifier Notifier, logger *slog.Logger) *ResponseService {
	return &ResponseService{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
	}
}

// Respond attaches the realtor's reply to a review. Only the realtor owning
// the reviewed property may respond, and only once; the unique constraint on
// review_id backs the once-only rule.
func (s *ResponseService) Respond(ctx context.Context, reviewID, comment, requesterID string) (*domain.ReviewResponse, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperrors.InvalidInput("response comment cannot be empty")
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
		return nil, apperrors.Forbidden("only the property owner can respond to this review")
	}

	response := &domain.ReviewResponse{
		ID:        uuid.New().String(),
		ReviewID:  review.ID,
		AuthorID:  requesterID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateResponse(ctx, response); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.Conflict("A response already exists for this review")
		}
		return nil, fmt.Errorf("create review response: %w", err)
	}

	// Committed; notification is best-effort from here.
	if err := s.notifier.PublishReviewResponse(ctx, review, owner); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.response event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review response created",
		slog.String("review_id", review.ID),
		slog.String("realtor_id", requesterID),
	)

	return response, nil
}
