package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentshare/internal/domain/booking"
)

var (
	ErrNotFound      = errors.New("notifications: not found")
	ErrNotRecipient  = errors.New("notifications: not addressed to requester")
	ErrRecipientless = errors.New("notifications: recipient is required")
)

type NotificationID string

type Kind string

const (
	KindBookingRequested Kind = "booking_requested"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingRejected  Kind = "booking_rejected"
	KindBookingCancelled Kind = "booking_cancelled"
	KindBookingReverted  Kind = "booking_reverted"
	KindBookingWithdrawn Kind = "booking_withdrawn"
)

type Notification struct {
	ID        NotificationID
	UserID    string
	Kind      Kind
	BookingID booking.BookingID
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id NotificationID) (*Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error)
}

type NewParams struct {
	ID        NotificationID
	UserID    string
	Kind      Kind
	BookingID booking.BookingID
	Title     string
	Body      string
	Now       time.Time
}

func New(params NewParams) (*Notification, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, ErrRecipientless
	}
	return &Notification{
		ID:        params.ID,
		UserID:    params.UserID,
		Kind:      params.Kind,
		BookingID: params.BookingID,
		Title:     strings.TrimSpace(params.Title),
		Body:      strings.TrimSpace(params.Body),
		CreatedAt: params.Now.UTC(),
	}, nil
}

// MarkRead flips the read flag for the recipient. Repeated calls are no-ops.
func (n *Notification) MarkRead(userID string) error {
	if n.UserID != userID {
		return ErrNotRecipient
	}
	n.Read = true
	return nil
}
