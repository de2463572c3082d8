package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/pagination"
)

// recentReviewCount is how many of the newest reviews ride along with the
// realtor analytics payload.
const recentReviewCount = 5

// AnalyticsService assembles review aggregates for a realtor's portfolio.
// Everything is recomputed from committed rows per request; there are no
// running counters to drift under concurrent writes.
type AnalyticsService struct {
	repo    repository.ReviewRepository
	catalog OwnerLookup
	logger  *slog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo repository.ReviewRepository, catalog OwnerLookup, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// RealtorAnalytics computes rating aggregates and response activity across
// every property the realtor owns.
func (s *AnalyticsService) RealtorAnalytics(ctx context.Context, realtorID string) (*domain.RealtorAnalytics, error) {
	if realtorID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	propertyIDs, err := s.catalog.ListRealtorProperties(ctx, realtorID)
	if err != nil {
		return nil, fmt.Errorf("list realtor properties: %w", err)
	}
	if len(propertyIDs) == 0 {
		return emptyAnalytics(), nil
	}

	stats, err := s.repo.PortfolioStats(ctx, propertyIDs)
	if err != nil {
		return nil, fmt.Errorf("portfolio stats: %w", err)
	}

	recent, _, err := s.repo.List(ctx, repository.ReviewFilter{
		PropertyIDs: propertyIDs,
		Page: pagination.Params{
			Page:      1,
			Limit:     recentReviewCount,
			SortBy:    "created_at",
			SortOrder: "desc",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list recent reviews: %w", err)
	}

	return &domain.RealtorAnalytics{
		TotalReviews:       stats.TotalReviews,
		AverageRating:      RoundAverage(stats.AverageRating),
		RatingDistribution: stats.Distribution,
		RecentReviews:      recent,
		ResponsesGiven:     stats.ResponsesGiven,
		ResponseRate:       ResponseRate(stats.ResponsesGiven, stats.TotalReviews),
	}, nil
}

func emptyAnalytics() *domain.RealtorAnalytics {
	return &domain.RealtorAnalytics{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		RecentReviews:      []domain.Review{},
	}
}

// ResponseRate is the percentage of reviews that carry a realtor response,
// rounded to the nearest integer. Zero when there are no reviews, never NaN.
func ResponseRate(responsesGiven, totalReviews int) int {
	if totalReviews == 0 {
		return 0
	}
	return int(math.Round(float64(responsesGiven) / float64(totalReviews) * 100))
}

// RoundAverage rounds an average rating to two decimal places. Zero stays
// zero for empty review sets.
func RoundAverage(avg float64) float64 {
	return math.Round(avg*100) / 100
}
