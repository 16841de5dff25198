package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentshare/internal/domain/booking"
	"rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/events"
)

var (
	ErrInvalidRating    = errors.New("reviews: rating must be between 1 and 5")
	ErrNotFound         = errors.New("reviews: not found")
	ErrAlreadyReviewed  = errors.New("reviews: booking already reviewed by author")
	ErrBookingNotClosed = errors.New("reviews: booking is not completed")
	ErrNotParticipant   = errors.New("reviews: author did not take part in the booking")
)

type ReviewID string

type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ItemID     items.ItemID
	AuthorID   string
	SubjectID  string
	AuthorRole booking.Party
	Rating     int
	Text       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID, authorID string) (*Review, error)
	ListByItem(ctx context.Context, itemID items.ItemID, limit, offset int) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID        ReviewID
	Booking   *booking.Booking
	AuthorID  string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// Submit writes a review for a completed booking. Borrowers review the owner
// and owners review the borrower.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	b := params.Booking
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotClosed
	}
	role := b.Role(params.AuthorID)
	if role == booking.PartyNone {
		return nil, ErrNotParticipant
	}
	now := params.CreatedAt.UTC()
	review := &Review{
		ID:         params.ID,
		BookingID:  b.ID,
		ItemID:     b.ItemID,
		AuthorID:   params.AuthorID,
		SubjectID:  b.Counterparty(role),
		AuthorRole: role,
		Rating:     params.Rating,
		Text:       strings.TrimSpace(params.Text),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	review.Record(review.submitted())
	return review, nil
}

func (r *Review) UpdateText(text string, now time.Time) {
	r.Text = strings.TrimSpace(text)
	r.UpdatedAt = now.UTC()
	r.Record(ReviewTextEdited{ReviewID: r.ID, ItemID: r.ItemID, At: r.UpdatedAt})
}
