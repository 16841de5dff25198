package reviews

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/domain/booking"
)

func completedBooking() *booking.Booking {
	return &booking.Booking{ID: "b1", ItemID: "i1", BorrowerID: "borrower", OwnerID: "owner", Status: booking.StatusCompleted}
}

func TestSubmit(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	r, err := Submit(SubmitParams{ID: "r1", Booking: completedBooking(), AuthorID: "borrower", Rating: 5, Text: " great ", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "owner", r.SubjectID)
	assert.Equal(t, booking.PartyBorrower, r.AuthorRole)
	assert.Equal(t, "great", r.Text)
	require.Len(t, r.Pending(), 1)
	assert.Equal(t, "review.submitted", r.Pending()[0].EventName())
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SubmitParams)
		want   error
	}{
		{"rating too low", func(p *SubmitParams) { p.Rating = 0 }, ErrInvalidRating},
		{"rating too high", func(p *SubmitParams) { p.Rating = 6 }, ErrInvalidRating},
		{"stranger", func(p *SubmitParams) { p.AuthorID = "someone" }, ErrNotParticipant},
		{"not completed", func(p *SubmitParams) { p.Booking.Status = booking.StatusConfirmed }, ErrBookingNotClosed},
		{"no booking", func(p *SubmitParams) { p.Booking = nil }, booking.ErrBookingNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := SubmitParams{ID: "r1", Booking: completedBooking(), AuthorID: "owner", Rating: 4}
			tc.mutate(&p)
			_, err := Submit(p)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
