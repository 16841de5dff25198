package dto

import (
	"time"

	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingItemSnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Photo    string `json:"photo,omitempty"`
}

// Booking is the view shared by the borrower and owner lists. Dates are
// YYYY-MM-DD calendar days, never timestamps.
type Booking struct {
	ID         string              `json:"id"`
	Item       BookingItemSnapshot `json:"item"`
	BorrowerID string              `json:"borrower_id"`
	OwnerID    string              `json:"owner_id"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Days       int                 `json:"days"`
	Status     string              `json:"status"`
	Total      MoneyDTO            `json:"total_amount"`
	Message    string              `json:"message,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	CanDelete  bool                `json:"can_delete"`
	CanReview  bool                `json:"can_review"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// BookingActionResult is returned by every state-changing booking command.
type BookingActionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

// MapBooking builds the view for viewerID; item may be nil when it was removed.
func MapBooking(b *domainbooking.Booking, item *domainitems.Item, viewerID string, reviewed bool) Booking {
	snapshot := BookingItemSnapshot{ID: string(b.ItemID)}
	if item != nil {
		snapshot.Title = item.Title
		snapshot.Location = item.Location
		if len(item.Photos) > 0 {
			snapshot.Photo = item.Photos[0]
		}
	}
	return Booking{
		ID:         string(b.ID),
		Item:       snapshot,
		BorrowerID: b.BorrowerID,
		OwnerID:    b.OwnerID,
		StartDate:  b.Range.Start.String(),
		EndDate:    b.Range.End.String(),
		Days:       b.Range.Days(),
		Status:     string(b.Status),
		Total:      MoneyDTO{Amount: b.TotalAmount, Currency: b.Currency},
		Message:    b.Message,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		CanDelete:  b.Role(viewerID) != domainbooking.PartyNone && b.CanDelete(viewerID),
		CanReview:  b.Status == domainbooking.StatusCompleted && b.Role(viewerID) != domainbooking.PartyNone && !reviewed,
	}
}
