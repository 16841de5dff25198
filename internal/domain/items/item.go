package items

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentshare/internal/domain/shared/events"
)

// MaxDailyRate caps a rate so a year-long quote stays far below int64 limits.
const MaxDailyRate int64 = 1_000_000_000

var (
	ErrTitleRequired = errors.New("items: title is required")
	ErrOwnerRequired = errors.New("items: owner is required")
	ErrDailyRate     = errors.New("items: daily rate must be within [0, 1000000000]")
	ErrItemNotFound  = errors.New("items: not found")
	ErrNotOwner      = errors.New("items: not owned by requester")
	ErrInactive      = errors.New("items: item is not available for rent")
	ErrTooManyPhotos = errors.New("items: photo limit reached")
	ErrPhotoURL      = errors.New("items: photo url is required")
)

const MaxPhotos = 20

type ItemID string

type Item struct {
	ID          ItemID
	OwnerID     string
	Title       string
	Description string
	Category    string
	Location    string
	DailyRate   int64
	Currency    string
	Photos      []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	Save(ctx context.Context, item *Item) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID          ItemID
	OwnerID     string
	Title       string
	Description string
	Category    string
	Location    string
	DailyRate   int64
	Currency    string
	Photos      []string
	Now         time.Time
}

func NewItem(params CreateParams) (*Item, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("items: id is required")
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.DailyRate < 0 || params.DailyRate > MaxDailyRate {
		return nil, ErrDailyRate
	}
	now := params.Now.UTC()
	item := &Item{
		ID:          params.ID,
		OwnerID:     strings.TrimSpace(params.OwnerID),
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Category:    strings.ToLower(strings.TrimSpace(params.Category)),
		Location:    strings.TrimSpace(params.Location),
		DailyRate:   params.DailyRate,
		Currency:    strings.ToUpper(strings.TrimSpace(params.Currency)),
		Photos:      append([]string(nil), params.Photos...),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item.Record(ItemListed{ItemID: item.ID, OwnerID: item.OwnerID, At: now})
	return item, nil
}

type UpdateParams struct {
	Title       string
	Description string
	Category    string
	Location    string
	DailyRate   int64
	Photos      []string
	Active      bool
	Now         time.Time
}

func (i *Item) Update(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.DailyRate < 0 || params.DailyRate > MaxDailyRate {
		return ErrDailyRate
	}
	i.Title = strings.TrimSpace(params.Title)
	i.Description = strings.TrimSpace(params.Description)
	i.Category = strings.ToLower(strings.TrimSpace(params.Category))
	i.Location = strings.TrimSpace(params.Location)
	i.DailyRate = params.DailyRate
	i.Photos = append([]string(nil), params.Photos...)
	i.Active = params.Active
	i.UpdatedAt = params.Now.UTC()
	i.Record(ItemUpdated{ItemID: i.ID, Active: i.Active, At: i.UpdatedAt})
	return nil
}

// AddPhoto appends an uploaded photo url.
func (i *Item) AddPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrPhotoURL
	}
	if len(i.Photos) >= MaxPhotos {
		return ErrTooManyPhotos
	}
	i.Photos = append(i.Photos, url)
	i.UpdatedAt = now.UTC()
	i.Record(ItemUpdated{ItemID: i.ID, Active: i.Active, At: i.UpdatedAt})
	return nil
}

func (i *Item) OwnedBy(userID string) bool {
	return userID != "" && i.OwnerID == userID
}

type ItemListed struct {
	ItemID  ItemID
	OwnerID string
	At      time.Time
}

func (e ItemListed) EventName() string     { return "item.listed" }
func (e ItemListed) AggregateID() string   { return string(e.ItemID) }
func (e ItemListed) OccurredAt() time.Time { return e.At }

type ItemUpdated struct {
	ItemID ItemID
	Active bool
	At     time.Time
}

func (e ItemUpdated) EventName() string     { return "item.updated" }
func (e ItemUpdated) AggregateID() string   { return string(e.ItemID) }
func (e ItemUpdated) OccurredAt() time.Time { return e.At }
