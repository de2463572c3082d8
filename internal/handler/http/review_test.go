package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	"github.com/staybook/reviews/internal/service"
	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/middleware"
)

// --- Mock collaborators ---

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

// --- Test helpers ---

type handlerDeps struct {
	repo     *mockReviewRepository
	bookings *mockBookingLookup
	catalog  *mockOwnerLookup
	media    *mockMediaDeleter
	notifier *mockNotifier
}

func newDeps() *handlerDeps {
	return &handlerDeps{
		repo:     new(mockReviewRepository),
		bookings: new(mockBookingLookup),
		catalog:  new(mockOwnerLookup),
		media:    new(mockMediaDeleter),
		notifier: new(mockNotifier),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testReviewHandler(d *handlerDeps) *ReviewHandler {
	svc := service.NewReviewService(d.repo, d.bookings, d.catalog, d.media, d.notifier, testLogger())
	return NewReviewHandler(svc, testLogger())
}

// newRequest builds a request routed through chi so URL params resolve, with
// the caller's identity already injected the way the auth middleware would.
func doRequest(t *testing.T, handler http.HandlerFunc, method, target, routePattern string, body any, userID, role string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), userID, role))
	}

	r := chi.NewRouter()
	r.MethodFunc(method, routePattern, handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Fields     map[string]string `json:"fields"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func intPtr(v int) *int { return &v }

func sampleStoredReview() *domain.Review {
	return &domain.Review{
		ID:         "rev-001",
		BookingID:  "bk-001",
		PropertyID: "prop-001",
		AuthorID:   "guest-001",
		Rating:     5,
		Comment:    "Great stay",
		IsVerified: true,
		IsVisible:  true,
		Photos:     []domain.ReviewPhoto{},
	}
}

// --- Tests ---

func TestCreateReview(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.bookings.On("GetBooking", mock.Anything, "bk-001").Return(&domain.Booking{
		ID:         "bk-001",
		GuestID:    "guest-001",
		PropertyID: "prop-001",
		Status:     domain.BookingStatusCompleted,
	}, nil)
	d.repo.On("CreateWithPhotos", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	d.catalog.On("GetPropertyOwner", mock.Anything, "prop-001").Return(&domain.PropertyOwner{
		PropertyID: "prop-001",
		RealtorID:  "realtor-001",
	}, nil)
	d.notifier.On("PublishReviewReceived", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body := CreateReviewRequest{
		BookingID:         "bk-001",
		Rating:            5,
		Comment:           "Great stay",
		CleanlinessRating: intPtr(4),
		Photos: []PhotoRequest{
			{URL: "https://cdn.example.com/upload/v1/reviews/a.jpg", Caption: "view"},
		},
	}
	rec := doRequest(t, h.CreateReview, http.MethodPost, "/api/v1/reviews", "/api/v1/reviews", body, "guest-001", domain.RoleGuest)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var review domain.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, "bk-001", review.BookingID)
	assert.Equal(t, "guest-001", review.AuthorID)
	assert.True(t, review.IsVisible)
	assert.True(t, review.IsVerified)
	require.Len(t, review.Photos, 1)
	assert.Equal(t, 0, review.Photos[0].Position)
}

func TestCreateReviewInvalidBody(t *testing.T) {
	h := testReviewHandler(newDeps())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString("{not json"))
	req = req.WithContext(middleware.WithIdentity(req.Context(), "guest-001", domain.RoleGuest))
	rec := httptest.NewRecorder()
	h.CreateReview(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "decode request body")
}

func TestCreateReviewValidation(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	body := CreateReviewRequest{BookingID: "bk-001", Rating: 6}
	rec := doRequest(t, h.CreateReview, http.MethodPost, "/api/v1/reviews", "/api/v1/reviews", body, "guest-001", domain.RoleGuest)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Fields, "rating")
	d.repo.AssertNotCalled(t, "CreateWithPhotos", mock.Anything, mock.Anything)
}

func TestCreateReviewDuplicate(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.bookings.On("GetBooking", mock.Anything, "bk-001").Return(&domain.Booking{
		ID:         "bk-001",
		GuestID:    "guest-001",
		PropertyID: "prop-001",
		Status:     domain.BookingStatusCompleted,
	}, nil)
	d.repo.On("CreateWithPhotos", mock.Anything, mock.Anything).Return(apperrors.ErrAlreadyExists)

	body := CreateReviewRequest{BookingID: "bk-001", Rating: 5}
	rec := doRequest(t, h.CreateReview, http.MethodPost, "/api/v1/reviews", "/api/v1/reviews", body, "guest-001", domain.RoleGuest)

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Review already exists for this booking", env.Message)
	assert.Equal(t, http.StatusConflict, env.StatusCode)
}

func TestCreateReviewUnauthenticated(t *testing.T) {
	h := testReviewHandler(newDeps())

	body := CreateReviewRequest{BookingID: "bk-001", Rating: 5}
	rec := doRequest(t, h.CreateReview, http.MethodPost, "/api/v1/reviews", "/api/v1/reviews", body, "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetReview(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("GetByID", mock.Anything, "rev-001").Return(sampleStoredReview(), nil)

	rec := doRequest(t, h.GetReview, http.MethodGet, "/api/v1/reviews/rev-001", "/api/v1/reviews/{id}", nil, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var review domain.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, "rev-001", review.ID)
}

func TestGetReviewNotFound(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	rec := doRequest(t, h.GetReview, http.MethodGet, "/api/v1/reviews/missing", "/api/v1/reviews/{id}", nil, "", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusNotFound, env.StatusCode)
}

func TestUpdateReviewForbidden(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("GetByID", mock.Anything, "rev-001").Return(sampleStoredReview(), nil)

	body := UpdateReviewRequest{Rating: intPtr(3)}
	rec := doRequest(t, h.UpdateReview, http.MethodPatch, "/api/v1/reviews/rev-001", "/api/v1/reviews/{id}", body, "someone-else", domain.RoleGuest)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	d.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteReview(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("GetByID", mock.Anything, "rev-001").Return(sampleStoredReview(), nil)
	d.repo.On("Delete", mock.Anything, "rev-001").Return(nil)

	rec := doRequest(t, h.DeleteReview, http.MethodDelete, "/api/v1/reviews/rev-001", "/api/v1/reviews/{id}", nil, "guest-001", domain.RoleGuest)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestListPropertyReviews(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.PropertyID != nil && *f.PropertyID == "prop-001" &&
			f.Visible != nil && *f.Visible &&
			f.Page.Page == 2 && f.Page.Limit == 5 &&
			f.Page.SortBy == "rating" && f.Page.SortOrder == "asc"
	})).Return([]domain.Review{*sampleStoredReview()}, 11, nil)

	rec := doRequest(t, h.ListPropertyReviews, http.MethodGet,
		"/api/v1/properties/prop-001/reviews?page=2&limit=5&sortBy=rating&sortOrder=asc",
		"/api/v1/properties/{id}/reviews", nil, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var payload struct {
		Items      []domain.Review `json:"items"`
		TotalCount int             `json:"totalCount"`
		Page       int             `json:"page"`
		Limit      int             `json:"limit"`
		TotalPages int             `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Len(t, payload.Items, 1)
	assert.Equal(t, 11, payload.TotalCount)
	assert.Equal(t, 2, payload.Page)
	assert.Equal(t, 3, payload.TotalPages)
}

func TestListPropertyReviewsRejectsUnknownSort(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Page.SortBy == "created_at"
	})).Return([]domain.Review{}, 0, nil)

	rec := doRequest(t, h.ListPropertyReviews, http.MethodGet,
		"/api/v1/properties/prop-001/reviews?sortBy=booking_id",
		"/api/v1/properties/{id}/reviews", nil, "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	d.repo.AssertExpectations(t)
}

func TestPropertySummary(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("PropertySummary", mock.Anything, "prop-001").Return(&domain.RatingSummary{
		PropertyID:         "prop-001",
		TotalReviews:       3,
		AverageRating:      4.666666,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2},
	}, nil)

	rec := doRequest(t, h.PropertySummary, http.MethodGet,
		"/api/v1/properties/prop-001/reviews/summary",
		"/api/v1/properties/{id}/reviews/summary", nil, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)

	var summary domain.RatingSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 4.67, summary.AverageRating)
	assert.Equal(t, 3, summary.TotalReviews)
}

func TestListMyReviews(t *testing.T) {
	d := newDeps()
	h := testReviewHandler(d)

	d.repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.AuthorID != nil && *f.AuthorID == "guest-001" && f.Visible == nil
	})).Return([]domain.Review{*sampleStoredReview()}, 1, nil)

	rec := doRequest(t, h.ListMyReviews, http.MethodGet, "/api/v1/me/reviews", "/api/v1/me/reviews", nil, "guest-001", domain.RoleGuest)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}
