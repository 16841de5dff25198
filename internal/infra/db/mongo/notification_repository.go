package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentshare/internal/domain/booking"
	domainnotifications "rentshare/internal/domain/notifications"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	col := db.Collection("notifications")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return &NotificationRepository{col: col}
}

func (r *NotificationRepository) Save(ctx context.Context, n *domainnotifications.Notification) error {
	doc := notificationDocument{
		ID:        string(n.ID),
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		BookingID: string(n.BookingID),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *NotificationRepository) ByID(ctx context.Context, id domainnotifications.NotificationID) (*domainnotifications.Notification, error) {
	var doc notificationDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainnotifications.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domainnotifications.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*domainnotifications.Notification, 0)
	for cur.Next(ctx) {
		var doc notificationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	return out, cur.Err()
}

type notificationDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	Kind      string `bson:"kind"`
	BookingID string `bson:"booking_id"`
	Title     string `bson:"title"`
	Body      string `bson:"body"`
	Read      bool   `bson:"read"`
	CreatedAt int64  `bson:"created_at"`
}

func (d notificationDocument) toModel() *domainnotifications.Notification {
	return &domainnotifications.Notification{
		ID:        domainnotifications.NotificationID(d.ID),
		UserID:    d.UserID,
		Kind:      domainnotifications.Kind(d.Kind),
		BookingID: domainbooking.BookingID(d.BookingID),
		Title:     d.Title,
		Body:      d.Body,
		Read:      d.Read,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

var _ domainnotifications.Repository = (*NotificationRepository)(nil)
