package dto

import (
	"time"

	domainnotifications "rentshare/internal/domain/notifications"
)

type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	BookingID string    `json:"booking_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationList struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

func MapNotification(n *domainnotifications.Notification) Notification {
	return Notification{
		ID:        string(n.ID),
		Kind:      string(n.Kind),
		BookingID: string(n.BookingID),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
