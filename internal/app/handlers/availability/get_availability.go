package availability

import (
	"context"
	"errors"
	"log/slog"

	"rentshare/internal/app/dto"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	"rentshare/internal/domain/shared/daterange"
)

const (
	getAvailabilityKey = "availability.calendar"
	defaultSpanDays    = 42
	maxSpanDays        = 366
)

var ErrSpanTooWide = errors.New("availability: requested span is too wide")

// GetAvailabilityQuery returns the per-day map between From and To inclusive.
// From defaults to today and To to six weeks after From.
type GetAvailabilityQuery struct {
	ItemID string `json:"item_id" validate:"required"`
	From   string `json:"from" validate:"civildate"`
	To     string `json:"to" validate:"civildate"`
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type GetAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   policies.Calendar
	Logger     *slog.Logger
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (dto.Calendar, error) {
	from, err := parseOptionalDate(q.From)
	if err != nil {
		return dto.Calendar{}, err
	}
	to, err := parseOptionalDate(q.To)
	if err != nil {
		return dto.Calendar{}, err
	}

	return uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) (dto.Calendar, error) {
		item, engine, err := loadEngine(ctx, unit, h.Calendar, q.ItemID)
		if err != nil {
			return dto.Calendar{}, err
		}
		if from.IsZero() {
			from = engine.Today()
		}
		if to.IsZero() {
			to = from.AddDays(defaultSpanDays - 1)
		}
		span, err := daterange.NewRange(from, to)
		if err != nil {
			return dto.Calendar{}, err
		}
		if span.Days() > maxSpanDays {
			return dto.Calendar{}, ErrSpanTooWide
		}

		days := engine.Span(span)
		if h.Logger != nil {
			h.Logger.Debug("availability computed", "item_id", item.ID, "range", span.String(), "days", len(days))
		}
		return dto.Calendar{
			ItemID: string(item.ID),
			Today:  engine.Today().String(),
			From:   span.Start.String(),
			To:     span.End.String(),
			Days:   dto.MapDays(days),
		}, nil
	})
}

var _ queries.Handler[GetAvailabilityQuery, dto.Calendar] = (*GetAvailabilityHandler)(nil)
