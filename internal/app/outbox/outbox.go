package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/domain/shared/events"
)

// CorrelationHeader links a relayed event back to the HTTP request that caused it.
const CorrelationHeader = "correlation_id"

// EventRecord is an encoded domain event waiting for relay.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event struct as the payload.
type JSONEventEncoder struct {
	NewID func() string
}

func (e JSONEventEncoder) Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rec := EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}
	if id := CorrelationID(ctx); id != "" {
		rec.Headers[CorrelationHeader] = id
	}
	return rec, nil
}

// Recorder is anything that buffers domain events, like an aggregate.
type Recorder interface {
	Drain() []events.DomainEvent
}

// Publisher moves buffered aggregate events into the outbox after a save.
// A nil Outbox drops them.
type Publisher struct {
	Outbox  Outbox
	Encoder EventEncoder
}

// Publish drains every recorder and returns the drained events so callers
// can react to them once the unit of work commits.
func (p Publisher) Publish(ctx context.Context, recorders ...Recorder) ([]events.DomainEvent, error) {
	var drained []events.DomainEvent
	for _, r := range recorders {
		if r != nil {
			drained = append(drained, r.Drain()...)
		}
	}
	if p.Outbox == nil || len(drained) == 0 {
		return drained, nil
	}
	encoder := p.Encoder
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range drained {
		rec, err := encoder.Encode(ctx, ev)
		if err != nil {
			return nil, err
		}
		if err := p.Outbox.Add(ctx, rec); err != nil {
			return nil, fmt.Errorf("outbox add %s: %w", rec.Name, err)
		}
	}
	return drained, nil
}

type correlationKey struct{}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
