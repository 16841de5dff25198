package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/domain/shared/daterange"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newPending(t *testing.T) *Booking {
	t.Helper()
	r, err := daterange.ParseRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:          "b-1",
		ItemID:      "item-1",
		BorrowerID:  "borrower",
		OwnerID:     "owner",
		Range:       r,
		TotalAmount: 300,
		Message:     "  can I pick it up early?  ",
		CreatedAt:   now,
	})
	require.NoError(t, err)
	b.Discard()
	return b
}

func eventNames(b *Booking) []string {
	var out []string
	for _, e := range b.Pending() {
		out = append(out, e.EventName())
	}
	return out
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusPending, StatusCancelled, StatusActive},
		StatusActive:    {StatusCompleted},
	}
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("approved")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusAvailabilityFlags(t *testing.T) {
	assert.True(t, StatusPending.BlocksAvailability())
	assert.True(t, StatusPending.IsHeld())
	assert.False(t, StatusPending.IsBooked())
	for _, s := range []Status{StatusConfirmed, StatusActive, StatusCompleted} {
		assert.True(t, s.IsBooked(), s)
	}
	assert.False(t, StatusCancelled.BlocksAvailability())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
}

func TestNewBooking(t *testing.T) {
	r, err := daterange.ParseRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)

	b, err := NewBooking(CreateParams{ID: "b", ItemID: "i", BorrowerID: "u1", OwnerID: "u2", Range: r, TotalAmount: 100, CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, []string{"booking.requested"}, eventNames(b))

	_, err = NewBooking(CreateParams{BorrowerID: "u1", OwnerID: "u1", Range: r})
	assert.ErrorIs(t, err, ErrSelfBooking)

	_, err = NewBooking(CreateParams{BorrowerID: "u1", OwnerID: "u2"})
	assert.ErrorIs(t, err, ErrRangeRequired)

	_, err = NewBooking(CreateParams{BorrowerID: "u1", OwnerID: "u2", Range: r, TotalAmount: -1})
	assert.ErrorIs(t, err, ErrNegativeTotal)
}

func TestConfirmAndRevert(t *testing.T) {
	b := newPending(t)

	require.NoError(t, b.Confirm(now))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.ErrorIs(t, b.Confirm(now), ErrInvalidState)

	require.NoError(t, b.Revert(now.Add(time.Hour)))
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, []string{"booking.confirmed", "booking.reverted"}, eventNames(b))
	assert.Equal(t, int64(300), b.TotalAmount)
}

func TestRejectStoresReason(t *testing.T) {
	b := newPending(t)
	require.NoError(t, b.Reject("  dates no longer work ", now))
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, "dates no longer work", b.Message)

	b = newPending(t)
	require.NoError(t, b.Reject("", now))
	assert.Equal(t, "can I pick it up early?", b.Message, "empty reason keeps the borrower note")
}

func TestWithdrawOnlyWhilePending(t *testing.T) {
	b := newPending(t)
	require.NoError(t, b.Confirm(now))
	assert.ErrorIs(t, b.Withdraw(now), ErrInvalidState)

	b = newPending(t)
	require.NoError(t, b.Withdraw(now))
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestCancelConfirmed(t *testing.T) {
	b := newPending(t)
	assert.ErrorIs(t, b.Cancel(PartyOwner, "", now), ErrInvalidState)

	require.NoError(t, b.Confirm(now))
	assert.ErrorIs(t, b.Cancel(PartyNone, "", now), ErrNotParticipant)
	require.NoError(t, b.Cancel(PartyBorrower, "sick", now))
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, "sick", b.Message)

	events := b.Pending()
	cancelled, ok := events[len(events)-1].(BookingCancelled)
	require.True(t, ok)
	assert.Equal(t, "owner", cancelled.Counterparty)
}

func TestLifecycleToCompleted(t *testing.T) {
	b := newPending(t)
	assert.ErrorIs(t, b.Activate(now), ErrInvalidState)
	require.NoError(t, b.Confirm(now))
	assert.ErrorIs(t, b.Complete(now), ErrInvalidState)
	require.NoError(t, b.Activate(now))
	require.NoError(t, b.Complete(now))
	assert.Equal(t, StatusCompleted, b.Status)

	assert.ErrorIs(t, b.Revert(now), ErrInvalidState)
	assert.ErrorIs(t, b.Cancel(PartyOwner, "", now), ErrInvalidState)
}

func TestDeleteRules(t *testing.T) {
	b := newPending(t)
	assert.True(t, b.CanDelete("borrower"))
	assert.False(t, b.CanDelete("owner"))
	assert.ErrorIs(t, b.MarkDeleted("owner", now), ErrDeleteNotAllowed)
	assert.ErrorIs(t, b.MarkDeleted("stranger", now), ErrNotParticipant)

	require.NoError(t, b.Confirm(now))
	assert.False(t, b.CanDelete("borrower"))

	require.NoError(t, b.Cancel(PartyOwner, "", now))
	assert.True(t, b.CanDelete("owner"))
	require.NoError(t, b.MarkDeleted("owner", now))
}

func TestValidateRequestedRange(t *testing.T) {
	today := daterange.MustParse("2024-06-10")
	r, err := daterange.ParseRange("2024-06-09", "2024-06-12")
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateRequestedRange(r, today), ErrStartInPast)

	r, err = daterange.ParseRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	assert.NoError(t, ValidateRequestedRange(r, today))
	assert.ErrorIs(t, ValidateRequestedRange(daterange.Range{}, today), ErrRangeRequired)

	r, err = daterange.ParseRange("2024-06-10", "2025-06-10")
	require.NoError(t, err)
	require.Equal(t, MaxRentalDays, r.Days())
	assert.NoError(t, ValidateRequestedRange(r, today))

	r, err = daterange.ParseRange("2024-06-10", "9999-12-31")
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateRequestedRange(r, today), ErrRangeTooLong)
}
