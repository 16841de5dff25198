package booking

import (
	"time"

	"rentshare/internal/domain/items"
)

type BookingRequested struct {
	BookingID   BookingID
	ItemID      items.ItemID
	BorrowerID  string
	OwnerID     string
	StartDate   string
	EndDate     string
	TotalAmount int64
	At          time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID
	ItemID     items.ItemID
	BorrowerID string
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID  BookingID
	BorrowerID string
	Reason     string
	At         time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingWithdrawn struct {
	BookingID BookingID
	OwnerID   string
	At        time.Time
}

func (e BookingWithdrawn) EventName() string     { return "booking.withdrawn" }
func (e BookingWithdrawn) AggregateID() string   { return string(e.BookingID) }
func (e BookingWithdrawn) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID    BookingID
	By           Party
	Counterparty string
	Reason       string
	At           time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingReverted struct {
	BookingID  BookingID
	BorrowerID string
	At         time.Time
}

func (e BookingReverted) EventName() string     { return "booking.reverted" }
func (e BookingReverted) AggregateID() string   { return string(e.BookingID) }
func (e BookingReverted) OccurredAt() time.Time { return e.At }

type BookingActivated struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingActivated) EventName() string     { return "booking.activated" }
func (e BookingActivated) AggregateID() string   { return string(e.BookingID) }
func (e BookingActivated) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	ItemID    items.ItemID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingDeleted struct {
	BookingID BookingID
	By        string
	At        time.Time
}

func (e BookingDeleted) EventName() string     { return "booking.deleted" }
func (e BookingDeleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeleted) OccurredAt() time.Time { return e.At }
