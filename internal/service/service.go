package service

import (
	"context"

	"github.com/staybook/reviews/internal/domain"
)

// BookingLookup resolves bookings from the booking collaborator.
type BookingLookup interface {
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}

// OwnerLookup resolves property ownership from the catalog collaborator.
type OwnerLookup interface {
	GetPropertyOwner(ctx context.Context, propertyID string) (*domain.PropertyOwner, error)
	ListRealtorProperties(ctx context.Context, realtorID string) ([]string, error)
}

// MediaDeleter removes stored photo blobs. Used best-effort on review deletion.
type MediaDeleter interface {
	DeleteImage(ctx context.Context, publicID string) error
}

// Notifier publishes review domain events. Publish failures never reverse a
// committed write; callers log and move on.
type Notifier interface {
	PublishReviewReceived(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error
	PublishReviewResponse(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner) error
	PublishModerationNotice(ctx context.Context, review *domain.Review, owner *domain.PropertyOwner, visible bool) error
}
