package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainitems "rentshare/internal/domain/items"
)

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	col := db.Collection("agg_item")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "daily_rate", Value: 1}}},
	})
	return &ItemRepository{col: col}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainitems.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ItemRepository) Save(ctx context.Context, item *domainitems.Item) error {
	doc := newItemDocument(item)
	filter := bson.M{"_id": doc.ID, "version": item.Version}
	doc.Version = item.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	item.Version = doc.Version
	return nil
}

// Search pushes the filters down to Mongo. Free text matches every token
// against title, description or category.
func (r *ItemRepository) Search(ctx context.Context, params domainitems.SearchParams) (domainitems.SearchResult, error) {
	opts := params.Normalized()
	filter := searchFilter(opts)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainitems.SearchResult{}, err
	}

	findOpts := options.Find().
		SetSort(searchSort(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainitems.SearchResult{}, err
	}
	defer cur.Close(ctx)

	out := make([]*domainitems.Item, 0, opts.Limit)
	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return domainitems.SearchResult{}, err
		}
		out = append(out, doc.toAggregate())
	}
	if err := cur.Err(); err != nil {
		return domainitems.SearchResult{}, err
	}
	return domainitems.SearchResult{Items: out, Total: int(total)}, nil
}

func searchFilter(p domainitems.SearchParams) bson.M {
	filter := bson.M{}
	if p.OnlyActive {
		filter["active"] = true
	}
	if p.Owner != "" {
		filter["owner_id"] = p.Owner
	}
	if p.Category != "" {
		filter["category"] = p.Category
	}
	if p.Location != "" {
		filter["location"] = bson.M{"$regex": regexp.QuoteMeta(p.Location), "$options": "i"}
	}
	rate := bson.M{}
	if p.MinRate > 0 {
		rate["$gte"] = p.MinRate
	}
	if p.MaxRate > 0 {
		rate["$lte"] = p.MaxRate
	}
	if len(rate) > 0 {
		filter["daily_rate"] = rate
	}
	if p.Query != "" {
		var clauses bson.A
		for _, token := range strings.Fields(p.Query) {
			pattern := bson.M{"$regex": regexp.QuoteMeta(token), "$options": "i"}
			clauses = append(clauses, bson.M{"$or": bson.A{
				bson.M{"title": pattern},
				bson.M{"description": pattern},
				bson.M{"category": pattern},
			}})
		}
		filter["$and"] = clauses
	}
	return filter
}

func searchSort(sort domainitems.CatalogSort) bson.D {
	switch sort {
	case domainitems.SortByRateAsc:
		return bson.D{{Key: "daily_rate", Value: 1}, {Key: "created_at", Value: -1}}
	case domainitems.SortByRateDesc:
		return bson.D{{Key: "daily_rate", Value: -1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

type itemDocument struct {
	ID          string   `bson:"_id"`
	OwnerID     string   `bson:"owner_id"`
	Title       string   `bson:"title"`
	Description string   `bson:"description"`
	Category    string   `bson:"category"`
	Location    string   `bson:"location"`
	DailyRate   int64    `bson:"daily_rate"`
	Currency    string   `bson:"currency"`
	Photos      []string `bson:"photos"`
	Active      bool     `bson:"active"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
	Version     int64    `bson:"version"`
}

func newItemDocument(item *domainitems.Item) itemDocument {
	return itemDocument{
		ID:          string(item.ID),
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		DailyRate:   item.DailyRate,
		Currency:    item.Currency,
		Photos:      append([]string(nil), item.Photos...),
		Active:      item.Active,
		CreatedAt:   item.CreatedAt.UnixMilli(),
		UpdatedAt:   item.UpdatedAt.UnixMilli(),
		Version:     item.Version,
	}
}

func (d itemDocument) toAggregate() *domainitems.Item {
	return &domainitems.Item{
		ID:          domainitems.ItemID(d.ID),
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Location:    d.Location,
		DailyRate:   d.DailyRate,
		Currency:    d.Currency,
		Photos:      append([]string(nil), d.Photos...),
		Active:      d.Active,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domainitems.Repository = (*ItemRepository)(nil)
