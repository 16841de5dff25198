package items

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/uow"
	domainitems "rentshare/internal/domain/items"
)

const (
	createItemKey = "items.create"
	updateItemKey = "items.update"
)

type CreateItemCommand struct {
	OwnerID         string   `json:"-" validate:"required"`
	Title           string   `json:"title" validate:"required,max=140"`
	Description     string   `json:"description" validate:"max=5000"`
	Category        string   `json:"category" validate:"max=64"`
	Location        string   `json:"location" validate:"max=140"`
	DailyRate       int64    `json:"daily_rate" validate:"gte=0,lte=1000000000"`
	Currency        string   `json:"currency" validate:"omitempty,len=3,alpha"`
	Photos          []string `json:"photos" validate:"max=20,dive,url"`
	IdempotencyKeyV string   `json:"-"`
}

func (c CreateItemCommand) Key() string            { return createItemKey }
func (c CreateItemCommand) ActorID() string        { return c.OwnerID }
func (c CreateItemCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateItemCommand) ResultPrototype() any   { return &dto.Item{} }

// UpdateItemCommand replaces the editable fields. A nil Active keeps the current flag.
type UpdateItemCommand struct {
	OwnerID     string   `json:"-" validate:"required"`
	ItemID      string   `json:"item_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=140"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"max=64"`
	Location    string   `json:"location" validate:"max=140"`
	DailyRate   int64    `json:"daily_rate" validate:"gte=0,lte=1000000000"`
	Photos      []string `json:"photos" validate:"max=20,dive,url"`
	Active      *bool    `json:"active"`
}

func (c UpdateItemCommand) Key() string     { return updateItemKey }
func (c UpdateItemCommand) ActorID() string { return c.OwnerID }

type CreateItemHandler struct {
	Pricing   policies.Pricing
	Publisher outbox.Publisher
	Logger    *slog.Logger
	IDs       func() string
	Now       func() time.Time
}

func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*dto.Item, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if h.IDs != nil {
		id = h.IDs()
	}
	currency := strings.TrimSpace(cmd.Currency)
	if currency == "" {
		currency = h.Pricing.Currency
	}
	item, err := domainitems.NewItem(domainitems.CreateParams{
		ID:          domainitems.ItemID(id),
		OwnerID:     cmd.OwnerID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		Location:    cmd.Location,
		DailyRate:   cmd.DailyRate,
		Currency:    currency,
		Photos:      cmd.Photos,
		Now:         now(h.Now),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, item); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("item listed", "item_id", item.ID, "owner_id", item.OwnerID, "daily_rate", item.DailyRate)
	}
	out := dto.MapItem(item)
	return &out, nil
}

type UpdateItemHandler struct {
	Publisher outbox.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

func (h *UpdateItemHandler) Handle(ctx context.Context, cmd UpdateItemCommand) (*dto.Item, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	item, err := unit.Items().ByID(ctx, domainitems.ItemID(strings.TrimSpace(cmd.ItemID)))
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(cmd.OwnerID) {
		return nil, domainitems.ErrNotOwner
	}
	active := item.Active
	if cmd.Active != nil {
		active = *cmd.Active
	}
	if err := item.Update(domainitems.UpdateParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		Location:    cmd.Location,
		DailyRate:   cmd.DailyRate,
		Photos:      cmd.Photos,
		Active:      active,
		Now:         now(h.Now),
	}); err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if _, err := h.Publisher.Publish(ctx, item); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("item updated", "item_id", item.ID, "active", item.Active)
	}
	out := dto.MapItem(item)
	return &out, nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[CreateItemCommand, *dto.Item] = (*CreateItemHandler)(nil)
	_ commands.Handler[UpdateItemCommand, *dto.Item] = (*UpdateItemHandler)(nil)
	_ middleware.IdempotentCommand                   = CreateItemCommand{}
)
