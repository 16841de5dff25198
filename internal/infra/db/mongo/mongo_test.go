package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "rentshare/internal/domain/booking"
	domainitems "rentshare/internal/domain/items"
	"rentshare/internal/domain/shared/daterange"
)

func TestBookingDocumentRoundTrip(t *testing.T) {
	r, err := daterange.ParseRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	b := &domainbooking.Booking{
		ID: "b-1", ItemID: "i-1", BorrowerID: "u1", OwnerID: "u2", Range: r,
		Status: domainbooking.StatusConfirmed, TotalAmount: 300, Currency: "EUR",
		CreatedAt: at, UpdatedAt: at, Version: 3,
	}
	doc := newBookingDocument(b)
	assert.Equal(t, "2024-06-10", doc.StartDate)
	assert.Equal(t, "2024-06-12", doc.EndDate)

	back, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, b.Range, back.Range)
	assert.Equal(t, b.Status, back.Status)
	assert.Equal(t, at, back.CreatedAt)
	assert.Equal(t, int64(3), back.Version)

	doc.Status = "approved"
	_, err = doc.toAggregate()
	assert.ErrorIs(t, err, domainbooking.ErrInvalidStatus)
}

func TestSearchFilter(t *testing.T) {
	p := domainitems.SearchParams{
		Query:      "cordless drill",
		Category:   "Tools",
		Location:   "san.jose",
		MinRate:    5,
		MaxRate:    20,
		OnlyActive: true,
	}.Normalized()
	filter := searchFilter(p)

	assert.Equal(t, true, filter["active"])
	assert.Equal(t, "tools", filter["category"])
	assert.Equal(t, bson.M{"$regex": `san\.jose`, "$options": "i"}, filter["location"])
	assert.Equal(t, bson.M{"$gte": int64(5), "$lte": int64(20)}, filter["daily_rate"])
	clauses, ok := filter["$and"].(bson.A)
	require.True(t, ok)
	assert.Len(t, clauses, 2)

	empty := searchFilter(domainitems.SearchParams{}.Normalized())
	assert.Empty(t, empty)
}

func TestSearchSort(t *testing.T) {
	assert.Equal(t, "daily_rate", searchSort(domainitems.SortByRateAsc)[0].Key)
	assert.Equal(t, -1, searchSort(domainitems.SortByRateDesc)[0].Value)
	assert.Equal(t, "created_at", searchSort(domainitems.SortByNewest)[0].Key)
}

func TestLiveRecordFilter(t *testing.T) {
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f := liveRecordFilter("items.create:u1:k1", cutoff)
	assert.Equal(t, "items.create:u1:k1", f["_id"])
	assert.Equal(t, bson.M{"$gte": cutoff}, f["created_at"])
}

func TestIsWriteConflict(t *testing.T) {
	conflict := mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}
	assert.True(t, isWriteConflict(conflict))
	assert.True(t, isWriteConflict(fmt.Errorf("save item: %w", conflict)))
	assert.False(t, isWriteConflict(mongo.CommandError{Code: 11000}))
	assert.False(t, isWriteConflict(errors.New("network")))
}
