package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/staybook/reviews/internal/domain"
	pkgkafka "github.com/staybook/reviews/pkg/kafka"
)

// Kafka topic constants for review domain events. The notification service
// consumes these and delivers to guests and realtors.
const (
	TopicReviewReceived   = "staybook.review.received"
	TopicReviewResponse   = "staybook.review.response"
	TopicReviewModeration = "staybook.review.moderation"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// publishTimeout bounds each publish so a slow broker cannot hold a request
// open after its transaction has already committed.
const publishTimeout = 5 * time.Second

// ReviewReceivedData notifies a realtor that a guest reviewed their property.
type ReviewReceivedData struct {
	RealtorID     string `json:"realtorId"`
	ReviewID      string `json:"reviewId"`
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
	Rating        int    `json:"rating"`
}

// ReviewResponseData notifies a review's author that the realtor replied.
type ReviewResponseData struct {
	AuthorID      string `json:"authorId"`
	ReviewID      string `json:"reviewId"`
	PropertyTitle string `json:"propertyTitle"`
}

// ModerationNoticeData notifies a review's author of a visibility change.
type ModerationNoticeData struct {
	UserID        string `json:"userId"`
	ReviewID      string `json:"reviewId"`
	PropertyTitle string `json:"propertyTitle"`
	Action        string `json:"action"` // "made visible" or "hidden"
	BusinessName  string `json:"businessName"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewReceived publishes a review.received event after a review commits.
func (p *Producer) PublishReviewReceived(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error {
	data := ReviewReceivedData{
		RealtorID:     owner.RealtorID,
		ReviewID:      review.ID,
		PropertyID:    review.PropertyID,
		PropertyTitle: owner.PropertyTitle,
		Rating:        review.Rating,
	}

	return p.publish(ctx, TopicReviewReceived, review.ID, data)
}

// PublishReviewResponse publishes a review.response event after a realtor replies.
func (p *Producer) PublishReviewResponse(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error {
	data := ReviewResponseData{
		AuthorID:      review.AuthorID,
		ReviewID:      review.ID,
		PropertyTitle: owner.PropertyTitle,
	}

	return p.publish(ctx, TopicReviewResponse, review.ID, data)
}

// PublishModerationNotice publishes a review.moderation event describing a
// visibility change. Sent on every toggle request, including no-op reapplies.
func (p *Producer) PublishModerationNotice(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner, visible bool) error {
	action := "hidden"
	if visible {
		action = "made visible"
	}

	data := ModerationNoticeData{
		UserID:        review.AuthorID,
		ReviewID:      review.ID,
		PropertyTitle: owner.PropertyTitle,
		Action:        action,
		BusinessName:  owner.BusinessName,
	}

	return p.publish(ctx, TopicReviewModeration, review.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, reviewID string, data any) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event, err := pkgkafka.NewEvent(topic, reviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", reviewID),
	)

	return nil
}
