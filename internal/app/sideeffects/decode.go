package sideeffects

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domainbooking "rentshare/internal/domain/booking"
	"rentshare/internal/domain/shared/events"
)

var ErrUnknownEvent = errors.New("sideeffects: unknown event type")

// Envelope is the CloudEvents wrapper the outbox worker publishes.
type Envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a published message back into its booking event.
func DecodeEnvelope(payload []byte) (Envelope, events.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}
	ev, err := DecodeBookingEvent(env.Type, env.Data)
	return env, ev, err
}

// DecodeBookingEvent accepts names with or without the ".v1" suffix.
func DecodeBookingEvent(name string, data []byte) (events.DomainEvent, error) {
	name = strings.TrimSuffix(name, ".v1")
	var (
		ev  events.DomainEvent
		err error
	)
	switch name {
	case "booking.requested":
		ev, err = decodeInto[domainbooking.BookingRequested](data)
	case "booking.confirmed":
		ev, err = decodeInto[domainbooking.BookingConfirmed](data)
	case "booking.rejected":
		ev, err = decodeInto[domainbooking.BookingRejected](data)
	case "booking.withdrawn":
		ev, err = decodeInto[domainbooking.BookingWithdrawn](data)
	case "booking.cancelled":
		ev, err = decodeInto[domainbooking.BookingCancelled](data)
	case "booking.reverted":
		ev, err = decodeInto[domainbooking.BookingReverted](data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ev, nil
}

func decodeInto[T events.DomainEvent](data []byte) (events.DomainEvent, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
