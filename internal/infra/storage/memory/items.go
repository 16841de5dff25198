package memory

import (
	"context"
	"sync"

	domainitems "rentshare/internal/domain/items"
)

// ItemRepository keeps items in memory. Stored values are copies so callers
// only see changes after Save, like with a real store.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[domainitems.ItemID]*domainitems.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domainitems.ItemID]*domainitems.Item)}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainitems.ErrItemNotFound
	}
	return cloneItem(item), nil
}

// Save inserts a new item (Version 0) or updates one whose version matches.
func (r *ItemRepository) Save(ctx context.Context, item *domainitems.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[item.ID]
	if exists && current.Version != item.Version {
		return ErrVersionConflict
	}
	if !exists && item.Version != 0 {
		return domainitems.ErrItemNotFound
	}
	item.Version++
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *ItemRepository) Search(ctx context.Context, params domainitems.SearchParams) (domainitems.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainitems.Item, 0, len(r.items))
	for _, item := range r.items {
		select {
		case <-ctx.Done():
			return domainitems.SearchResult{}, ctx.Err()
		default:
		}
		if opts.Matches(item) {
			matches = append(matches, cloneItem(item))
		}
	}
	opts.SortItems(matches)

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return domainitems.SearchResult{Items: matches[start:end], Total: total}, nil
}

func cloneItem(item *domainitems.Item) *domainitems.Item {
	cp := &domainitems.Item{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		DailyRate:   item.DailyRate,
		Currency:    item.Currency,
		Photos:      append([]string(nil), item.Photos...),
		Active:      item.Active,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
		Version:     item.Version,
	}
	return cp
}

var _ domainitems.Repository = (*ItemRepository)(nil)
