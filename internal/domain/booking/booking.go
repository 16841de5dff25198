package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/daterange"
	"rentshare/internal/domain/shared/events"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrInvalidStatus    = errors.New("booking: unknown status")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrSelfBooking      = errors.New("booking: owner cannot book own item")
	ErrRangeRequired    = errors.New("booking: start and end dates are required")
	ErrNegativeTotal    = errors.New("booking: total amount must not be negative")
	ErrNotParticipant   = errors.New("booking: requester is not a party to the booking")
	ErrDeleteNotAllowed = errors.New("booking: only cancelled or own pending bookings can be deleted")
	ErrConcurrentUpdate = errors.New("booking: concurrent update detected")
)

type BookingID string

// Party identifies which side of the rental acted.
type Party string

const (
	PartyNone     Party = ""
	PartyBorrower Party = "borrower"
	PartyOwner    Party = "owner"
)

type Booking struct {
	ID          BookingID
	ItemID      items.ItemID
	BorrowerID  string
	OwnerID     string
	Range       daterange.Range
	Status      Status
	TotalAmount int64
	Currency    string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id BookingID) error
	ListByItem(ctx context.Context, itemID items.ItemID) ([]*Booking, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Booking, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	ItemID      items.ItemID
	BorrowerID  string
	OwnerID     string
	Range       daterange.Range
	TotalAmount int64
	Currency    string
	Message     string
	CreatedAt   time.Time
}

// NewBooking creates a pending booking. The total is taken as quoted; it is
// never recomputed after creation.
func NewBooking(params CreateParams) (*Booking, error) {
	borrower := strings.TrimSpace(params.BorrowerID)
	owner := strings.TrimSpace(params.OwnerID)
	if borrower == "" {
		return nil, errors.New("booking: borrower id required")
	}
	if owner == "" {
		return nil, errors.New("booking: owner id required")
	}
	if borrower == owner {
		return nil, ErrSelfBooking
	}
	if params.Range.IsZero() {
		return nil, ErrRangeRequired
	}
	if params.TotalAmount < 0 {
		return nil, ErrNegativeTotal
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		ItemID:      params.ItemID,
		BorrowerID:  borrower,
		OwnerID:     owner,
		Range:       params.Range,
		Status:      StatusPending,
		TotalAmount: params.TotalAmount,
		Currency:    params.Currency,
		Message:     strings.TrimSpace(params.Message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ItemID:      b.ItemID,
		BorrowerID:  b.BorrowerID,
		OwnerID:     b.OwnerID,
		StartDate:   b.Range.Start.String(),
		EndDate:     b.Range.End.String(),
		TotalAmount: b.TotalAmount,
		At:          now,
	})
	return b, nil
}

// Role reports which side userID is on.
func (b *Booking) Role(userID string) Party {
	switch userID {
	case "":
		return PartyNone
	case b.BorrowerID:
		return PartyBorrower
	case b.OwnerID:
		return PartyOwner
	}
	return PartyNone
}

// Counterparty returns the other side of the booking for the given party.
func (b *Booking) Counterparty(p Party) string {
	if p == PartyOwner {
		return b.BorrowerID
	}
	return b.OwnerID
}

// Confirm is the owner accepting a pending request.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.moveTo(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, ItemID: b.ItemID, BorrowerID: b.BorrowerID, At: b.UpdatedAt})
	return nil
}

// Reject is the owner declining a pending request. A non-empty reason replaces the borrower's note.
func (b *Booking) Reject(reason string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.storeReason(reason)
	b.moveTo(StatusCancelled, now)
	b.Record(BookingRejected{BookingID: b.ID, BorrowerID: b.BorrowerID, Reason: b.reasonOrEmpty(reason), At: b.UpdatedAt})
	return nil
}

// Withdraw is the borrower pulling back a request that is still pending.
func (b *Booking) Withdraw(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.moveTo(StatusCancelled, now)
	b.Record(BookingWithdrawn{BookingID: b.ID, OwnerID: b.OwnerID, At: b.UpdatedAt})
	return nil
}

// Cancel ends a confirmed booking on behalf of either party.
func (b *Booking) Cancel(by Party, reason string, now time.Time) error {
	if by != PartyBorrower && by != PartyOwner {
		return ErrNotParticipant
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.storeReason(reason)
	b.moveTo(StatusCancelled, now)
	b.Record(BookingCancelled{
		BookingID:    b.ID,
		By:           by,
		Counterparty: b.Counterparty(by),
		Reason:       b.reasonOrEmpty(reason),
		At:           b.UpdatedAt,
	})
	return nil
}

// Revert is the owner rescinding a confirmation.
func (b *Booking) Revert(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.moveTo(StatusPending, now)
	b.Record(BookingReverted{BookingID: b.ID, BorrowerID: b.BorrowerID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Activate(now time.Time) error {
	if !CanTransition(b.Status, StatusActive) {
		return ErrInvalidState
	}
	b.moveTo(StatusActive, now)
	b.Record(BookingActivated{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Complete(now time.Time) error {
	if !CanTransition(b.Status, StatusCompleted) {
		return ErrInvalidState
	}
	b.moveTo(StatusCompleted, now)
	b.Record(BookingCompleted{BookingID: b.ID, ItemID: b.ItemID, At: b.UpdatedAt})
	return nil
}

// CanDelete allows removing cancelled bookings, or a borrower dropping their own pending request.
func (b *Booking) CanDelete(requester string) bool {
	if b.Status == StatusCancelled {
		return true
	}
	return b.Status == StatusPending && requester != "" && requester == b.BorrowerID
}

// MarkDeleted records the deletion; the repository removes the record.
func (b *Booking) MarkDeleted(requester string, now time.Time) error {
	if b.Role(requester) == PartyNone {
		return ErrNotParticipant
	}
	if !b.CanDelete(requester) {
		return ErrDeleteNotAllowed
	}
	b.Record(BookingDeleted{BookingID: b.ID, By: requester, At: now.UTC()})
	return nil
}

func (b *Booking) moveTo(next Status, now time.Time) {
	b.Status = next
	b.UpdatedAt = now.UTC()
}

func (b *Booking) storeReason(reason string) {
	if r := strings.TrimSpace(reason); r != "" {
		b.Message = r
	}
}

func (b *Booking) reasonOrEmpty(reason string) string {
	return strings.TrimSpace(reason)
}
