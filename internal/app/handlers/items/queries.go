package items

import (
	"context"
	"log/slog"
	"strings"

	"rentshare/internal/app/dto"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainitems "rentshare/internal/domain/items"
)

const (
	getItemKey     = "items.get"
	searchItemsKey = "items.search"
)

type GetItemQuery struct {
	ItemID string `json:"item_id" validate:"required"`
}

func (q GetItemQuery) Key() string { return getItemKey }

// SearchItemsQuery browses the catalog. Inactive items are only listed to
// their owner, when ViewerID equals Owner.
type SearchItemsQuery struct {
	ViewerID string `json:"-"`
	Query    string `json:"q" validate:"max=200"`
	Category string `json:"category"`
	Location string `json:"location"`
	Owner    string `json:"owner"`
	MinRate  int64  `json:"min_rate" validate:"gte=0"`
	MaxRate  int64  `json:"max_rate" validate:"gte=0"`
	Sort     string `json:"sort" validate:"omitempty,oneof=rate_asc rate_desc newest"`
	Limit    int    `json:"limit" validate:"gte=0"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

func (q SearchItemsQuery) Key() string { return searchItemsKey }

type GetItemHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (dto.Item, error) {
	item, err := uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) (*domainitems.Item, error) {
		return unit.Items().ByID(ctx, domainitems.ItemID(strings.TrimSpace(q.ItemID)))
	})
	if err != nil {
		return dto.Item{}, err
	}
	return dto.MapItem(item), nil
}

type SearchItemsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchItemsHandler) Handle(ctx context.Context, q SearchItemsQuery) (dto.ItemCollection, error) {
	owner := strings.TrimSpace(q.Owner)
	params := domainitems.SearchParams{
		Query:      q.Query,
		Category:   q.Category,
		Location:   q.Location,
		Owner:      owner,
		MinRate:    q.MinRate,
		MaxRate:    q.MaxRate,
		Sort:       domainitems.CatalogSort(q.Sort),
		Limit:      q.Limit,
		Offset:     q.Offset,
		OnlyActive: owner == "" || owner != strings.TrimSpace(q.ViewerID),
	}.Normalized()

	result, err := uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) (domainitems.SearchResult, error) {
		return unit.Items().Search(ctx, params)
	})
	if err != nil {
		return dto.ItemCollection{}, err
	}

	out := make([]dto.Item, 0, len(result.Items))
	for _, item := range result.Items {
		out = append(out, dto.MapItem(item))
	}
	if h.Logger != nil {
		h.Logger.Debug("catalog searched", "query", params.Query, "category", params.Category, "count", len(out), "total", result.Total)
	}
	return dto.ItemCollection{Items: out, Total: result.Total, Limit: params.Limit, Offset: params.Offset}, nil
}

var (
	_ queries.Handler[GetItemQuery, dto.Item]               = (*GetItemHandler)(nil)
	_ queries.Handler[SearchItemsQuery, dto.ItemCollection] = (*SearchItemsHandler)(nil)
)
