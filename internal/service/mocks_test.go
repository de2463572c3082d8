package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
)

// --- Mock Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) CreateWithPhotos(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	args := m.Called(ctx, id, visible)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) CreateResponse(ctx context.Context, response *domain.ReviewResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *mockReviewRepository) PropertySummary(ctx context.Context, propertyID string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) PortfolioStats(ctx context.Context, propertyIDs []string) (*repository.PortfolioStats, error) {
	args := m.Called(ctx, propertyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PortfolioStats), args.Error(1)
}

// --- Mock Collaborators ---

type mockBookingLookup struct {
	mock.Mock
}

func (m *mockBookingLookup) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type mockOwnerLookup struct {
	mock.Mock
}

func (m *mockOwnerLookup) GetPropertyOwner(ctx context.Context, propertyID string) (*domain.PropertyOwner, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PropertyOwner), args.Error(1)
}

func (m *mockOwnerLookup) ListRealtorProperties(ctx context.Context, realtorID string) ([]string, error) {
	args := m.Called(ctx, realtorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockMediaDeleter struct {
	mock.Mock
}

func (m *mockMediaDeleter) DeleteImage(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishReviewReceived(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error {
	args := m.Called(ctx, review, owner)
	return args.Error(0)
}

func (m *mockNotifier) PublishReviewResponse(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error {
	args := m.Called(ctx, review, owner)
	return args.Error(0)
}

func (m *mockNotifier) PublishModerationNotice(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner, visible bool) error {
	args := m.Called(ctx, review, owner, visible)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleOwner() *domain.PropertyOwner {
	return &domain.PropertyOwner{
		PropertyID:    "prop-001",
		PropertyTitle: "Seaside Flat",
		RealtorID:     "realtor-001",
		BusinessName:  "Coastal Homes",
	}
}

func completedBooking() *domain.Booking {
	return &domain.Booking{
		ID:         "bk-001",
		GuestID:    "guest-001",
		PropertyID: "prop-001",
		Status:     domain.BookingStatusCompleted,
	}
}

func assertNoPersistCalls(t *testing.T, repo *mockReviewRepository) {
	t.Helper()
	repo.AssertNotCalled(t, "CreateWithPhotos", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SetVisibility", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateResponse", mock.Anything, mock.Anything)
}
