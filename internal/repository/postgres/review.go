package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/internal/repository"
	"github.com/staybook/reviews/pkg/database"
	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/pagination"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, booking_id, property_id, author_id, rating,
	cleanliness_rating, communication_rating, check_in_rating,
	accuracy_rating, location_rating, value_rating,
	comment, is_verified, is_visible, created_at, updated_at`

// CreateWithPhotos inserts the review row and all photo rows inside one
// transaction. The unique constraint on booking_id decides the winner under
// concurrent submission; the loser gets ErrAlreadyExists.
func (r *ReviewRepository) CreateWithPhotos(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reviewQuery := `
		INSERT INTO reviews (id, booking_id, property_id, author_id, rating,
			cleanliness_rating, communication_rating, check_in_rating,
			accuracy_rating, location_rating, value_rating,
			comment, is_verified, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = tx.Exec(ctx, reviewQuery,
		review.ID,
		review.BookingID,
		review.PropertyID,
		review.AuthorID,
		review.Rating,
		review.CleanlinessRating,
		review.CommunicationRating,
		review.CheckInRating,
		review.AccuracyRating,
		review.LocationRating,
		review.ValueRating,
		review.Comment,
		review.IsVerified,
		review.IsVisible,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review for booking %s: %w", review.BookingID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	photoQuery := `
		INSERT INTO review_photos (id, review_id, url, caption, position)
		VALUES ($1, $2, $3, $4, $5)`

	for _, photo := range review.Photos {
		_, err = tx.Exec(ctx, photoQuery,
			photo.ID,
			photo.ReviewID,
			photo.URL,
			photo.Caption,
			photo.Position,
		)
		if err != nil {
			return fmt.Errorf("insert review photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review for booking %s: %w", review.BookingID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a review with its photos and realtor response in a
// single query using LEFT JOIN + JSONB_AGG to avoid chained lookups.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT
			r.id, r.booking_id, r.property_id, r.author_id, r.rating,
			r.cleanliness_rating, r.communication_rating, r.check_in_rating,
			r.accuracy_rating, r.location_rating, r.value_rating,
			r.comment, r.is_verified, r.is_visible, r.created_at, r.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', p.id,
						'reviewId', p.review_id,
						'url', p.url,
						'caption', p.caption,
						'position', p.position
					) ORDER BY p.position
				) FILTER (WHERE p.id IS NOT NULL),
				'[]'::jsonb
			) AS photos,
			rr.id, rr.author_id, rr.comment, rr.created_at
		FROM reviews r
		LEFT JOIN review_photos p ON p.review_id = r.id
		LEFT JOIN review_responses rr ON rr.review_id = r.id
		WHERE r.id = $1
		GROUP BY r.id, r.booking_id, r.property_id, r.author_id, r.rating,
			r.cleanliness_rating, r.communication_rating, r.check_in_rating,
			r.accuracy_rating, r.location_rating, r.value_rating,
			r.comment, r.is_verified, r.is_visible, r.created_at, r.updated_at,
			rr.id, rr.author_id, rr.comment, rr.created_at`

	var (
		rv          domain.Review
		photosJSON  []byte
		respID      *string
		respAuthor  *string
		respComment *string
		respCreated *time.Time
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.BookingID,
		&rv.PropertyID,
		&rv.AuthorID,
		&rv.Rating,
		&rv.CleanlinessRating,
		&rv.CommunicationRating,
		&rv.CheckInRating,
		&rv.AccuracyRating,
		&rv.LocationRating,
		&rv.ValueRating,
		&rv.Comment,
		&rv.IsVerified,
		&rv.IsVisible,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&photosJSON,
		&respID,
		&respAuthor,
		&respComment,
		&respCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	rv.Photos = []domain.ReviewPhoto{}
	if len(photosJSON) > 0 && string(photosJSON) != "null" && string(photosJSON) != "[]" {
		if err := json.Unmarshal(photosJSON, &rv.Photos); err != nil {
			return nil, fmt.Errorf("unmarshal review photos: %w", err)
		}
	}

	if respID != nil {
		rv.Response = &domain.ReviewResponse{
			ID:        *respID,
			ReviewID:  rv.ID,
			AuthorID:  *respAuthor,
			Comment:   *respComment,
			CreatedAt: *respCreated,
		}
	}

	return &rv, nil
}

// List returns reviews matching the filter with the total count, eagerly
// loading photos and responses for the page in two batch queries.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.PropertyID != nil {
		conditions = append(conditions, fmt.Sprintf("property_id = $%d", argIndex))
		args = append(args, *filter.PropertyID)
		argIndex++
	}

	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", argIndex))
		args = append(args, *filter.AuthorID)
		argIndex++
	}

	if len(filter.PropertyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("property_id = ANY($%d)", argIndex))
		args = append(args, filter.PropertyIDs)
		argIndex++
	}

	if filter.Visible != nil {
		conditions = append(conditions, fmt.Sprintf("is_visible = $%d", argIndex))
		args = append(args, *filter.Visible)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	page := pagedefaults(filter.Page)
	offset := (page.Page - 1) * page.Limit

	// count(*) OVER() returns the total in the same query as the page.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, page.SortBy, page.SortOrder, argIndex, argIndex+1,
	)

	args = append(args, page.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.BookingID,
			&rv.PropertyID,
			&rv.AuthorID,
			&rv.Rating,
			&rv.CleanlinessRating,
			&rv.CommunicationRating,
			&rv.CheckInRating,
			&rv.AccuracyRating,
			&rv.LocationRating,
			&rv.ValueRating,
			&rv.Comment,
			&rv.IsVerified,
			&rv.IsVisible,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		rv.Photos = []domain.ReviewPhoto{}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if len(reviews) > 0 {
		if err := r.attachPhotos(ctx, reviews); err != nil {
			return nil, 0, err
		}
		if err := r.attachResponses(ctx, reviews); err != nil {
			return nil, 0, err
		}
	}

	return reviews, totalCount, nil
}

// attachPhotos batch-loads photos for all reviews in a single query.
func (r *ReviewRepository) attachPhotos(ctx context.Context, reviews []domain.Review) error {
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	query := `
		SELECT id, review_id, url, caption, position
		FROM review_photos
		WHERE review_id = ANY($1)
		ORDER BY review_id, position`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("batch load review photos: %w", err)
	}
	defer rows.Close()

	byReview := make(map[string][]domain.ReviewPhoto, len(reviews))
	for rows.Next() {
		var p domain.ReviewPhoto
		if err := rows.Scan(&p.ID, &p.ReviewID, &p.URL, &p.Caption, &p.Position); err != nil {
			return fmt.Errorf("scan review photo: %w", err)
		}
		byReview[p.ReviewID] = append(byReview[p.ReviewID], p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate review photo rows: %w", err)
	}

	for i := range reviews {
		if photos, ok := byReview[reviews[i].ID]; ok {
			reviews[i].Photos = photos
		}
	}
	return nil
}

// attachResponses batch-loads realtor responses for all reviews in a single query.
func (r *ReviewRepository) attachResponses(ctx context.Context, reviews []domain.Review) error {
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	query := `
		SELECT id, review_id, author_id, comment, created_at
		FROM review_responses
		WHERE review_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("batch load review responses: %w", err)
	}
	defer rows.Close()

	byReview := make(map[string]*domain.ReviewResponse, len(reviews))
	for rows.Next() {
		var resp domain.ReviewResponse
		if err := rows.Scan(&resp.ID, &resp.ReviewID, &resp.AuthorID, &resp.Comment, &resp.CreatedAt); err != nil {
			return fmt.Errorf("scan review response: %w", err)
		}
		byReview[resp.ReviewID] = &resp
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate review response rows: %w", err)
	}

	for i := range reviews {
		if resp, ok := byReview[reviews[i].ID]; ok {
			reviews[i].Response = resp
		}
	}
	return nil
}

// Update persists the mutable content fields of a review. Visibility and
// booking linkage are never touched here.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1,
			cleanliness_rating = $2,
			communication_rating = $3,
			check_in_rating = $4,
			accuracy_rating = $5,
			location_rating = $6,
			value_rating = $7,
			comment = $8,
			updated_at = $9
		WHERE id = $10`

	ct, err := r.pool.Exec(ctx, query,
		review.Rating,
		review.CleanlinessRating,
		review.CommunicationRating,
		review.CheckInRating,
		review.AccuracyRating,
		review.LocationRating,
		review.ValueRating,
		review.Comment,
		time.Now().UTC(),
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}
	return nil
}

// SetVisibility flips the moderation flag. Applying the current value is a
// valid no-op, not an error.
func (r *ReviewRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	query := `
		UPDATE reviews
		SET is_visible = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, visible, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set review visibility: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// Delete removes the review row; photos and the response cascade with it.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

// CreateResponse inserts the realtor response. The unique constraint on
// review_id enforces at most one response per review.
func (r *ReviewRepository) CreateResponse(ctx context.Context, response *domain.ReviewResponse) error {
	query := `
		INSERT INTO review_responses (id, review_id, author_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		response.ID,
		response.ReviewID,
		response.AuthorID,
		response.Comment,
		response.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("response for review %s: %w", response.ReviewID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert review response: %w", err)
	}
	return nil
}

// PropertySummary computes aggregates over the visible reviews of one
// property directly in SQL. There are no cached counters to drift.
func (r *ReviewRepository) PropertySummary(ctx context.Context, propertyID string) (*domain.RatingSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0)::float8,
			COUNT(*) FILTER (WHERE rating = 1),
			COUNT(*) FILTER (WHERE rating = 2),
			COUNT(*) FILTER (WHERE rating = 3),
			COUNT(*) FILTER (WHERE rating = 4),
			COUNT(*) FILTER (WHERE rating = 5)
		FROM reviews
		WHERE property_id = $1 AND is_visible = TRUE`

	s := &domain.RatingSummary{PropertyID: propertyID, RatingDistribution: make(map[int]int, 5)}
	var d1, d2, d3, d4, d5 int

	err := r.pool.QueryRow(ctx, query, propertyID).Scan(
		&s.TotalReviews, &s.AverageRating, &d1, &d2, &d3, &d4, &d5,
	)
	if err != nil {
		return nil, fmt.Errorf("property rating summary: %w", err)
	}

	s.RatingDistribution[1] = d1
	s.RatingDistribution[2] = d2
	s.RatingDistribution[3] = d3
	s.RatingDistribution[4] = d4
	s.RatingDistribution[5] = d5

	return s, nil
}

// PortfolioStats computes aggregates across every review of the given
// properties, counting responses via a LEFT JOIN.
func (r *ReviewRepository) PortfolioStats(ctx context.Context, propertyIDs []string) (*repository.PortfolioStats, error) {
	query := `
		SELECT
			COUNT(r.id),
			COALESCE(AVG(r.rating), 0)::float8,
			COUNT(r.id) FILTER (WHERE r.rating = 1),
			COUNT(r.id) FILTER (WHERE r.rating = 2),
			COUNT(r.id) FILTER (WHERE r.rating = 3),
			COUNT(r.id) FILTER (WHERE r.rating = 4),
			COUNT(r.id) FILTER (WHERE r.rating = 5),
			COUNT(rr.id)
		FROM reviews r
		LEFT JOIN review_responses rr ON rr.review_id = r.id
		WHERE r.property_id = ANY($1)`

	stats := &repository.PortfolioStats{Distribution: make(map[int]int, 5)}
	var d1, d2, d3, d4, d5 int

	err := r.pool.QueryRow(ctx, query, propertyIDs).Scan(
		&stats.TotalReviews, &stats.AverageRating, &d1, &d2, &d3, &d4, &d5, &stats.ResponsesGiven,
	)
	if err != nil {
		return nil, fmt.Errorf("portfolio review stats: %w", err)
	}

	stats.Distribution[1] = d1
	stats.Distribution[2] = d2
	stats.Distribution[3] = d3
	stats.Distribution[4] = d4
	stats.Distribution[5] = d5

	return stats, nil
}

// pagedefaults fills in safe paging values when the caller passed none.
// SortBy is expected to be pre-whitelisted by pagination.FromRequest.
func pagedefaults(p pagination.Params) pagination.Params {
	d := pagination.Default()
	if p.Page > 0 {
		d.Page = p.Page
	}
	if p.Limit > 0 {
		d.Limit = p.Limit
	}
	if p.SortBy != "" {
		d.SortBy = p.SortBy
	}
	if p.SortOrder == "asc" || p.SortOrder == "desc" {
		d.SortOrder = p.SortOrder
	}
	return d
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
