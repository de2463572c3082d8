package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	apperrors "github.com/staybook/reviews/pkg/errors"
)

func newAnalyticsService(repo *mockReviewRepository, catalog *mockOwnerLookup) *AnalyticsService {
	return NewAnalyticsService(repo, catalog, newTestLogger())
}

func TestResponseRate(t *testing.T) {
	tests := []struct {
		name      string
		responses int
		total     int
		want      int
	}{
		{"no reviews", 0, 0, 0},
		{"no responses", 0, 12, 0},
		{"all answered", 8, 8, 100},
		{"seven of ten", 7, 10, 70},
		{"two thirds rounds up", 2, 3, 67},
		{"one third rounds down", 1, 3, 33},
		{"half of one", 1, 2, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResponseRate(tt.responses, tt.total))
		})
	}
}

func TestRoundAverage(t *testing.T) {
	assert.Equal(t, 4.33, RoundAverage(4.333333))
	assert.Equal(t, 4.67, RoundAverage(4.666666))
	assert.Equal(t, 5.0, RoundAverage(5))
	assert.Equal(t, 0.0, RoundAverage(0))
}

func TestRealtorAnalytics(t *testing.T) {
	repo := new(mockReviewRepository)
	catalog := new(mockOwnerLookup)
	svc := newAnalyticsService(repo, catalog)
	ctx := context.Background()

	catalog.On("ListRealtorProperties", ctx, "realtor-001").
		Return([]string{"prop-001", "prop-002"}, nil)
	repo.On("PortfolioStats", ctx, []string{"prop-001", "prop-002"}).
		Return(&repository.PortfolioStats{
			TotalReviews:   10,
			AverageRating:  4.333333,
			Distribution:   map[int]int{1: 0, 2: 1, 3: 1, 4: 2, 5: 6},
			ResponsesGiven: 7,
		}, nil)
	repo.On("List", ctx, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return len(f.PropertyIDs) == 2 &&
			f.Visible == nil &&
			f.Page.Limit == recentReviewCount &&
			f.Page.SortBy == "created_at" &&
			f.Page.SortOrder == "desc"
	})).Return([]domain.Review{*persistedReview()}, 10, nil)

	analytics, err := svc.RealtorAnalytics(ctx, "realtor-001")
	require.NoError(t, err)

	assert.Equal(t, 10, analytics.TotalReviews)
	assert.Equal(t, 4.33, analytics.AverageRating)
	assert.Equal(t, 7, analytics.ResponsesGiven)
	assert.Equal(t, 70, analytics.ResponseRate)
	assert.Len(t, analytics.RecentReviews, 1)

	sum := 0
	for _, n := range analytics.RatingDistribution {
		sum += n
	}
	assert.Equal(t, analytics.TotalReviews, sum)
}

func TestRealtorAnalytics_EmptyPortfolio(t *testing.T) {
	repo := new(mockReviewRepository)
	catalog := new(mockOwnerLookup)
	svc := newAnalyticsService(repo, catalog)
	ctx := context.Background()

	catalog.On("ListRealtorProperties", ctx, "realtor-001").Return([]string{}, nil)

	analytics, err := svc.RealtorAnalytics(ctx, "realtor-001")
	require.NoError(t, err)

	assert.Equal(t, 0, analytics.TotalReviews)
	assert.Equal(t, 0.0, analytics.AverageRating)
	assert.Equal(t, 0, analytics.ResponseRate)
	assert.Empty(t, analytics.RecentReviews)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, analytics.RatingDistribution)
	repo.AssertNotCalled(t, "PortfolioStats", mock.Anything, mock.Anything)
}

func TestRealtorAnalytics_Unauthenticated(t *testing.T) {
	svc := newAnalyticsService(new(mockReviewRepository), new(mockOwnerLookup))

	_, err := svc.RealtorAnalytics(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRealtorAnalytics_NoResponses(t *testing.T) {
	repo := new(mockReviewRepository)
	catalog := new(mockOwnerLookup)
	svc := newAnalyticsService(repo, catalog)
	ctx := context.Background()

	catalog.On("ListRealtorProperties", ctx, "realtor-001").Return([]string{"prop-001"}, nil)
	repo.On("PortfolioStats", ctx, []string{"prop-001"}).
		Return(&repository.PortfolioStats{
			TotalReviews:  3,
			AverageRating: 5,
			Distribution:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 3},
		}, nil)
	repo.On("List", ctx, mock.Anything).Return([]domain.Review{}, 3, nil)

	analytics, err := svc.RealtorAnalytics(ctx, "realtor-001")
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.ResponseRate)
	assert.Equal(t, 5.0, analytics.AverageRating)
}
