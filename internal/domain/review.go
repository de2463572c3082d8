package domain

import "time"

// User roles recognized by the review service.
const (
	RoleGuest   = "guest"
	RoleRealtor = "realtor"
	RoleAdmin   = "admin"
)

// Booking status required before a stay can be reviewed.
const BookingStatusCompleted = "COMPLETED"

// Rating bounds for the overall rating and every sub-rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a guest's review of a completed stay. Each booking carries at
// most one review.
type Review struct {
	ID         string `json:"id"`
	BookingID  string `json:"bookingId"`
	PropertyID string `json:"propertyId"`
	AuthorID   string `json:"authorId"`
	Rating     int    `json:"rating"`

	CleanlinessRating   *int `json:"cleanlinessRating,omitempty"`
	CommunicationRating *int `json:"communicationRating,omitempty"`
	CheckInRating       *int `json:"checkInRating,omitempty"`
	AccuracyRating      *int `json:"accuracyRating,omitempty"`
	LocationRating      *int `json:"locationRating,omitempty"`
	ValueRating         *int `json:"valueRating,omitempty"`

	Comment    string          `json:"comment,omitempty"`
	IsVerified bool            `json:"isVerified"`
	IsVisible  bool            `json:"isVisible"`
	Photos     []ReviewPhoto   `json:"photos"`
	Response   *ReviewResponse `json:"response,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// SubRatings returns the provided sub-ratings keyed by category name.
// Absent categories are omitted.
func (r *Review) SubRatings() map[string]int {
	out := make(map[string]int, 6)
	put := func(name string, v *int) {
		if v != nil {
			out[name] = *v
		}
	}
	put("cleanliness", r.CleanlinessRating)
	put("communication", r.CommunicationRating)
	put("checkIn", r.CheckInRating)
	put("accuracy", r.AccuracyRating)
	put("location", r.LocationRating)
	put("value", r.ValueRating)
	return out
}

// ValidRating reports whether v is inside the accepted rating scale.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// ReviewPhoto is an image attached to a review. Position is zero-based and
// unique within the review, defining display order.
type ReviewPhoto struct {
	ID       string `json:"id"`
	ReviewID string `json:"reviewId"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
}

// ReviewResponse is the single realtor-authored reply to a review.
type ReviewResponse struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"reviewId"`
	AuthorID  string    `json:"authorId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// RatingSummary aggregates committed review rows for a property.
type RatingSummary struct {
	PropertyID         string      `json:"propertyId"`
	TotalReviews       int         `json:"totalReviews"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// RealtorAnalytics aggregates review activity across a realtor's portfolio.
type RealtorAnalytics struct {
	TotalReviews       int         `json:"totalReviews"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
	RecentReviews      []Review    `json:"recentReviews"`
	ResponsesGiven     int         `json:"responsesGiven"`
	ResponseRate       int         `json:"responseRate"`
}

// Booking is the slice of the booking collaborator's record the review
// service consumes.
type Booking struct {
	ID         string `json:"id"`
	GuestID    string `json:"guestId"`
	PropertyID string `json:"propertyId"`
	Status     string `json:"status"`
}

// PropertyOwner resolves a property to its owning realtor.
type PropertyOwner struct {
	PropertyID    string `json:"propertyId"`
	PropertyTitle string `json:"propertyTitle"`
	RealtorID     string `json:"realtorId"`
	BusinessName  string `json:"businessName"`
}
