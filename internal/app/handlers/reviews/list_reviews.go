package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"rentshare/internal/app/dto"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainitems "rentshare/internal/domain/items"
	domainreviews "rentshare/internal/domain/reviews"
)

const (
	listItemReviewsKey = "reviews.item.list"
	defaultReviewLimit = 20
	maxReviewLimit     = 100
)

// ListItemReviewsQuery retrieves reviews written about bookings of an item.
type ListItemReviewsQuery struct {
	ItemID string `json:"item_id" validate:"required"`
	Limit  int    `json:"limit" validate:"gte=0"`
	Offset int    `json:"offset" validate:"gte=0"`
}

func (q ListItemReviewsQuery) Key() string { return listItemReviewsKey }

type ListItemReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListItemReviewsHandler) Handle(ctx context.Context, q ListItemReviewsQuery) (dto.ReviewCollection, error) {
	limit := normalizeLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	itemID := domainitems.ItemID(strings.TrimSpace(q.ItemID))
	all, err := uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainreviews.Review, error) {
		if _, err := unit.Items().ByID(ctx, itemID); err != nil {
			return nil, fmt.Errorf("reviews: %w", err)
		}
		return unit.Reviews().ListByItem(ctx, itemID, 0, 0)
	})
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	total := len(all)
	sum := 0
	for _, r := range all {
		sum += r.Rating
	}

	windowEnd := total
	if offset+limit < windowEnd {
		windowEnd = offset + limit
	}
	if offset > windowEnd {
		offset = windowEnd
	}
	slice := all[offset:windowEnd]

	items := make([]dto.Review, 0, len(slice))
	for _, review := range slice {
		items = append(items, dto.MapReview(review))
	}

	average := 0.0
	if total > 0 {
		average = math.Round(float64(sum)/float64(total)*100) / 100
	}

	if h.Logger != nil {
		h.Logger.Debug("item reviews listed", "item_id", itemID, "count", len(items), "total", total)
	}
	return dto.ReviewCollection{Items: items, Total: total, Average: average}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultReviewLimit
	}
	if limit > maxReviewLimit {
		return maxReviewLimit
	}
	return limit
}

var _ queries.Handler[ListItemReviewsQuery, dto.ReviewCollection] = (*ListItemReviewsHandler)(nil)
