package inbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// retention outlives any Kafka redelivery window, after which receipts expire.
const retention = 30 * 24 * time.Hour

// Store deduplicates consumed events per consumer group. The notification
// projector asks Seen before writing a notification, so a redelivered
// booking.requested does not notify the owner twice.
type Store struct {
	col      *mongo.Collection
	consumer string
}

type receipt struct {
	EventID    string    `bson:"event_id"`
	Consumer   string    `bson:"consumer"`
	ReceivedAt time.Time `bson:"received_at"`
}

func NewStore(db *mongo.Database, consumer string) *Store {
	col := db.Collection("app_inbox")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		},
	})
	return &Store{col: col, consumer: consumer}
}

// Seen records eventID and reports whether this consumer already had it.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, receipt{EventID: eventID, Consumer: s.consumer, ReceivedAt: time.Now().UTC()})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, fmt.Errorf("inbox %s: %w", eventID, err)
	}
}

// Forget drops the receipt so a failed event is handled on redelivery.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, receipt{EventID: eventID, Consumer: s.consumer}.key())
	return err
}

func (r receipt) key() bson.M {
	return bson.M{"event_id": r.EventID, "consumer": r.Consumer}
}
