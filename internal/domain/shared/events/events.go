package events

import "time"

// DomainEvent is a fact recorded by an aggregate and shipped through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates. Events stay buffered until the
// application layer drains them into the outbox after a save.
type EventRecorder struct {
	buffered []DomainEvent
}

// Record buffers events, skipping nils.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.buffered = append(r.buffered, ev)
		}
	}
}

// Pending returns a copy of the buffered events.
func (r *EventRecorder) Pending() []DomainEvent {
	if len(r.buffered) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), r.buffered...)
}

func (r *EventRecorder) Drain() []DomainEvent {
	out := r.buffered
	r.buffered = nil
	return out
}

// Discard drops buffered events. Fixture loading uses it so seeded
// aggregates do not emit item.listed.
func (r *EventRecorder) Discard() { r.buffered = nil }

// Names lists event names in order.
func Names(evs []DomainEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.EventName())
	}
	return out
}
