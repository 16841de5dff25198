package memory

import (
	"context"
	"sync"

	appoutbox "rentshare/internal/app/outbox"
)

const outboxHistory = 256

// Outbox backs STORAGE=memory. Nothing relays to a broker, so Flush moves
// pending records into a short history that tests and debugging can read.
type Outbox struct {
	mu      sync.Mutex
	pending []appoutbox.EventRecord
	flushed []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	o.pending = append(o.pending, record)
	o.mu.Unlock()
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushed = append(o.flushed, o.pending...)
	if over := len(o.flushed) - outboxHistory; over > 0 {
		o.flushed = append([]appoutbox.EventRecord(nil), o.flushed[over:]...)
	}
	o.pending = nil
	return nil
}

// Names lists pending event names in insertion order.
func (o *Outbox) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return recordNames(o.pending)
}

// Flushed lists the names of the most recently flushed events, oldest first.
func (o *Outbox) Flushed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return recordNames(o.flushed)
}

func recordNames(records []appoutbox.EventRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
