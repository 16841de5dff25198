package dto

import (
	"time"

	domainitems "rentshare/internal/domain/items"
)

type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	DailyRate   MoneyDTO  `json:"daily_rate"`
	Photos      []string  `json:"photos"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ItemCollection struct {
	Items  []Item `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func MapItem(item *domainitems.Item) Item {
	if item == nil {
		return Item{}
	}
	photos := append([]string{}, item.Photos...)
	return Item{
		ID:          string(item.ID),
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		DailyRate:   MoneyDTO{Amount: item.DailyRate, Currency: item.Currency},
		Photos:      photos,
		Active:      item.Active,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
