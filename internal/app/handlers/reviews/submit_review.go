package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/uow"
	domainbooking "rentshare/internal/domain/booking"
	domainreviews "rentshare/internal/domain/reviews"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand captures a rating for a completed booking.
type SubmitReviewCommand struct {
	AuthorID  string `json:"-" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Text      string `json:"text" validate:"max=2000"`
}

func (c SubmitReviewCommand) Key() string     { return submitReviewKey }
func (c SubmitReviewCommand) ActorID() string { return c.AuthorID }

type SubmitReviewHandler struct {
	Publisher outbox.Publisher
	Logger    *slog.Logger
	IDs       func() string
	Now       func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*dto.Review, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}

	existing, err := unit.Reviews().ByBooking(ctx, booking.ID, cmd.AuthorID)
	switch {
	case err == nil && existing != nil:
		return nil, domainreviews.ErrAlreadyReviewed
	case err != nil && !errors.Is(err, domainreviews.ErrNotFound):
		return nil, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(h.newID()),
		Booking:   booking,
		AuthorID:  cmd.AuthorID,
		Rating:    cmd.Rating,
		Text:      cmd.Text,
		CreatedAt: h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, review); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "booking_id", review.BookingID, "author_role", review.AuthorRole, "rating", review.Rating)
	}
	out := dto.MapReview(review)
	return &out, nil
}

func (h *SubmitReviewHandler) newID() string {
	if h.IDs != nil {
		return h.IDs()
	}
	return uuid.NewString()
}

func (h *SubmitReviewHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[SubmitReviewCommand, *dto.Review] = (*SubmitReviewHandler)(nil)
