package booking

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled}

// transitions lists every allowed from -> to move. Anything absent is rejected,
// which makes completed and cancelled terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPending, StatusCancelled, StatusActive},
	StatusActive:    {StatusCompleted},
}

// ParseStatus accepts the persisted lower-case names.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Statuses returns the closed set in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}

func (s Status) Valid() bool {
	for _, candidate := range allStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsBooked reports whether the status marks the item as taken.
func (s Status) IsBooked() bool {
	return s == StatusConfirmed || s == StatusActive || s == StatusCompleted
}

// IsHeld reports a pending hold awaiting the owner's decision.
func (s Status) IsHeld() bool {
	return s == StatusPending
}

// BlocksAvailability is true for every status except cancelled.
func (s Status) BlocksAvailability() bool {
	return s.IsBooked() || s.IsHeld()
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
