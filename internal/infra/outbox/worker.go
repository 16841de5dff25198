package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "rentshare/internal/app/outbox"
)

const (
	defaultSource   = "app://rentshare"
	defaultInterval = 500 * time.Millisecond
	defaultRetry    = 5 * time.Second
	maxBatch        = 50
)

var (
	ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
	errPayloadNotJSON      = errors.New("outbox: payload is not valid json")
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the claim/ack side of the outbox collection.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker relays outbox records to Kafka as structured CloudEvents. Records
// are keyed by aggregate id, one topic per aggregate type.
type Worker struct {
	Store       Queue
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
}

// cloudEvent is the structured-mode envelope; Data is the encoded domain event.
type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	CorrelationID   string          `json:"correlationid,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Run relays once at start and then on every tick. A full batch is followed
// straight away by the next one instead of waiting for the ticker.
func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	interval := w.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for {
			n, err := w.Drain(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().Error("outbox relay failed", "worker", w.ID, "error", err)
				break
			}
			if n < maxBatch {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain relays up to one batch of due records and returns how many were
// published. Records that fail are rescheduled and do not stop the batch.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	sent := 0
	for i := 0; i < maxBatch; i++ {
		doc, err := w.Store.Claim(ctx, w.ID)
		if err != nil {
			return sent, fmt.Errorf("claim: %w", err)
		}
		if doc == nil {
			break
		}
		if err := w.relay(ctx, doc); err != nil {
			if err := w.reschedule(ctx, doc, err); err != nil {
				return sent, err
			}
			continue
		}
		if err := w.Store.MarkSent(ctx, doc.ID); err != nil {
			return sent, fmt.Errorf("mark %s sent: %w", doc.ID, err)
		}
		sent++
	}
	return sent, nil
}

func (w *Worker) relay(ctx context.Context, doc *EventDocument) error {
	payload, err := w.envelope(doc)
	if err != nil {
		return err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return w.Producer.Publish(ctx, TopicFor(w.TopicPrefix, doc.Name), doc.Aggregate, payload, headers)
}

func (w *Worker) envelope(doc *EventDocument) ([]byte, error) {
	if !json.Valid(doc.Payload) {
		return nil, errPayloadNotJSON
	}
	source := w.Source
	if source == "" {
		source = defaultSource
	}
	return json.Marshal(cloudEvent{
		SpecVersion:     "1.0",
		ID:              doc.ID,
		Type:            doc.Name + ".v1",
		Source:          source,
		Subject:         doc.Aggregate,
		Time:            doc.OccurredAt.UTC(),
		DataContentType: "application/json",
		CorrelationID:   doc.Headers[appoutbox.CorrelationHeader],
		Data:            doc.Payload,
	})
}

func (w *Worker) reschedule(ctx context.Context, doc *EventDocument, cause error) error {
	next := w.retryAt(doc.Attempts)
	w.logger().Warn("outbox publish failed", "event", doc.Name, "id", doc.ID, "attempts", doc.Attempts+1, "retry_at", next, "error", cause)
	if err := w.Store.MarkFailed(ctx, doc.ID, next, cause.Error()); err != nil {
		return fmt.Errorf("mark %s failed: %w", doc.ID, err)
	}
	return nil
}

// retryAt walks the backoff schedule and stays on its last step.
func (w *Worker) retryAt(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	switch {
	case len(w.Backoff) == 0:
		return now.Add(defaultRetry)
	case attempts < len(w.Backoff):
		return now.Add(w.Backoff[attempts])
	default:
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// TopicFor maps an event name to its topic: "booking.confirmed" goes to
// "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	aggregate, _, _ := strings.Cut(name, ".")
	return prefix + aggregate + ".events.v1"
}
