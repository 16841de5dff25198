package dto

import (
	"time"

	domainreviews "rentshare/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ItemID     string    `json:"item_id"`
	AuthorID   string    `json:"author_id"`
	SubjectID  string    `json:"subject_id"`
	AuthorRole string    `json:"author_role"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items   []Review `json:"items"`
	Total   int      `json:"total"`
	Average float64  `json:"average"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		ItemID:     string(review.ItemID),
		AuthorID:   review.AuthorID,
		SubjectID:  review.SubjectID,
		AuthorRole: string(review.AuthorRole),
		Rating:     review.Rating,
		Text:       review.Text,
		CreatedAt:  review.CreatedAt,
	}
}
