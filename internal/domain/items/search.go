package items

import (
	"sort"
	"strings"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByRateAsc  CatalogSort = "rate_asc"
	SortByRateDesc CatalogSort = "rate_desc"
	SortByNewest   CatalogSort = "newest"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Query      string
	Category   string
	Location   string
	Owner      string
	MinRate    int64
	MaxRate    int64
	Sort       CatalogSort
	Limit      int
	Offset     int
	OnlyActive bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Query = strings.TrimSpace(strings.ToLower(n.Query))
	n.Category = strings.TrimSpace(strings.ToLower(n.Category))
	n.Location = strings.TrimSpace(strings.ToLower(n.Location))
	n.Owner = strings.TrimSpace(n.Owner)
	if n.MinRate < 0 {
		n.MinRate = 0
	}
	if n.MaxRate > 0 && n.MaxRate < n.MinRate {
		n.MaxRate = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	switch n.Sort {
	case SortByRateAsc, SortByRateDesc, SortByNewest:
	default:
		n.Sort = SortByNewest
	}
	return n
}

// Matches applies the normalized filters to a single item. Repositories that
// cannot push filters down to storage use it directly.
func (p SearchParams) Matches(item *Item) bool {
	if item == nil {
		return false
	}
	if p.OnlyActive && !item.Active {
		return false
	}
	if p.Owner != "" && item.OwnerID != p.Owner {
		return false
	}
	if p.Category != "" && item.Category != p.Category {
		return false
	}
	if p.Location != "" && !strings.Contains(strings.ToLower(item.Location), p.Location) {
		return false
	}
	if p.MinRate > 0 && item.DailyRate < p.MinRate {
		return false
	}
	if p.MaxRate > 0 && item.DailyRate > p.MaxRate {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.Category)
		for _, token := range strings.Fields(p.Query) {
			if !strings.Contains(haystack, token) {
				return false
			}
		}
	}
	return true
}

// SortItems orders matches in place according to the normalized sort.
func (p SearchParams) SortItems(matches []*Item) {
	sort.SliceStable(matches, func(i, j int) bool {
		switch p.Sort {
		case SortByRateAsc:
			if matches[i].DailyRate == matches[j].DailyRate {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].DailyRate < matches[j].DailyRate
		case SortByRateDesc:
			if matches[i].DailyRate == matches[j].DailyRate {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].DailyRate > matches[j].DailyRate
		default:
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
	})
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Item
	Total int
}
