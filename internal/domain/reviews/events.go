package reviews

import (
	"time"

	"rentshare/internal/domain/booking"
	"rentshare/internal/domain/items"
)

// ReviewSubmitted carries the subject so rating aggregates can be rebuilt
// from the event stream without loading the booking.
type ReviewSubmitted struct {
	ReviewID  ReviewID
	BookingID booking.BookingID
	ItemID    items.ItemID
	SubjectID string
	Role      booking.Party
	Rating    int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

// ReviewTextEdited is recorded when the author rewrites the text. The rating is fixed.
type ReviewTextEdited struct {
	ReviewID ReviewID
	ItemID   items.ItemID
	At       time.Time
}

func (e ReviewTextEdited) EventName() string     { return "review.text_edited" }
func (e ReviewTextEdited) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewTextEdited) OccurredAt() time.Time { return e.At }

func (r *Review) submitted() ReviewSubmitted {
	return ReviewSubmitted{
		ReviewID:  r.ID,
		BookingID: r.BookingID,
		ItemID:    r.ItemID,
		SubjectID: r.SubjectID,
		Role:      r.AuthorRole,
		Rating:    r.Rating,
		At:        r.CreatedAt,
	}
}
