package availability

import (
	"context"
	"log/slog"

	"rentshare/internal/app/dto"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainavailability "rentshare/internal/domain/availability"
	domainitems "rentshare/internal/domain/items"
	domainpricing "rentshare/internal/domain/pricing"
	"rentshare/internal/domain/shared/daterange"
)

const (
	selectDatesKey  = "availability.select"
	quickSelectKey  = "availability.quick_select"
	quoteBookingKey = "availability.quote"
)

// SelectDatesQuery applies one calendar click to the current selection. The
// selection lives on the client, so this never writes.
type SelectDatesQuery struct {
	ItemID  string `json:"item_id" validate:"required"`
	From    string `json:"from" validate:"civildate"`
	To      string `json:"to" validate:"civildate"`
	Clicked string `json:"clicked" validate:"required,civildate"`
}

func (q SelectDatesQuery) Key() string { return selectDatesKey }

// QuickSelectQuery proposes a Days-long window starting at From, or today.
type QuickSelectQuery struct {
	ItemID string `json:"item_id" validate:"required"`
	Days   int    `json:"days" validate:"min=1,max=366"`
	From   string `json:"from" validate:"civildate"`
}

func (q QuickSelectQuery) Key() string { return quickSelectKey }

type QuoteBookingQuery struct {
	ItemID string `json:"item_id" validate:"required"`
	From   string `json:"from" validate:"required,civildate"`
	To     string `json:"to" validate:"civildate"`
}

func (q QuoteBookingQuery) Key() string { return quoteBookingKey }

// SelectionHandlers serves the three selection queries from one configuration.
type SelectionHandlers struct {
	UoWFactory uow.UoWFactory
	Calendar   policies.Calendar
	Pricing    policies.Pricing
	Logger     *slog.Logger
}

func (h *SelectionHandlers) SelectDates() queries.Handler[SelectDatesQuery, dto.SelectionResult] {
	return queries.HandlerFunc[SelectDatesQuery, dto.SelectionResult](h.selectDates)
}

func (h *SelectionHandlers) QuickSelect() queries.Handler[QuickSelectQuery, dto.SelectionResult] {
	return queries.HandlerFunc[QuickSelectQuery, dto.SelectionResult](h.quickSelect)
}

func (h *SelectionHandlers) Quote() queries.Handler[QuoteBookingQuery, dto.Quote] {
	return queries.HandlerFunc[QuoteBookingQuery, dto.Quote](h.quote)
}

func (h *SelectionHandlers) selectDates(ctx context.Context, q SelectDatesQuery) (dto.SelectionResult, error) {
	current, err := parseSelection(q.From, q.To)
	if err != nil {
		return dto.SelectionResult{}, err
	}
	clicked, err := parseOptionalDate(q.Clicked)
	if err != nil {
		return dto.SelectionResult{}, err
	}
	if err := checkSpan(current.From, clicked); err != nil {
		return dto.SelectionResult{}, err
	}
	return h.withEngine(ctx, q.ItemID, func(item *domainitems.Item, engine *domainavailability.Engine) dto.SelectionResult {
		return h.result(item, engine, engine.SelectDate(current, clicked))
	})
}

func (h *SelectionHandlers) quickSelect(ctx context.Context, q QuickSelectQuery) (dto.SelectionResult, error) {
	from, err := parseOptionalDate(q.From)
	if err != nil {
		return dto.SelectionResult{}, err
	}
	return h.withEngine(ctx, q.ItemID, func(item *domainitems.Item, engine *domainavailability.Engine) dto.SelectionResult {
		return h.result(item, engine, engine.QuickSelect(q.Days, from))
	})
}

func (h *SelectionHandlers) quote(ctx context.Context, q QuoteBookingQuery) (dto.Quote, error) {
	sel, err := parseSelection(q.From, q.To)
	if err != nil {
		return dto.Quote{}, err
	}
	if sel.To.IsZero() {
		sel.To = sel.From
	}
	if err := checkSpan(sel.From, sel.To); err != nil {
		return dto.Quote{}, err
	}
	res, err := h.withEngine(ctx, q.ItemID, func(item *domainitems.Item, engine *domainavailability.Engine) dto.SelectionResult {
		return h.result(item, engine, sel)
	})
	return res.Quote, err
}

func (h *SelectionHandlers) withEngine(ctx context.Context, itemID string, fn func(*domainitems.Item, *domainavailability.Engine) dto.SelectionResult) (dto.SelectionResult, error) {
	return uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) (dto.SelectionResult, error) {
		item, engine, err := loadEngine(ctx, unit, h.Calendar, itemID)
		if err != nil {
			return dto.SelectionResult{}, err
		}
		return fn(item, engine), nil
	})
}

func (h *SelectionHandlers) result(item *domainitems.Item, engine *domainavailability.Engine, sel domainavailability.Selection) dto.SelectionResult {
	selectable := false
	if r, ok := sel.Range(); ok {
		selectable = engine.IsRangeSelectable(r.Start, r.End)
	}
	breakdown := domainpricing.Compute(sel, item.DailyRate, h.Pricing.Tiers)
	quote := dto.MapQuote(string(item.ID), sel, selectable, breakdown, h.Pricing.CurrencyFor(item.Currency))
	if h.Logger != nil {
		h.Logger.Debug("selection priced", "item_id", item.ID, "from", sel.From.String(), "to", sel.To.String(), "selectable", selectable, "final", breakdown.FinalPrice)
	}
	return dto.SelectionResult{Selection: dto.MapSelection(sel), Quote: quote}
}

// checkSpan bounds the days the engine walks for one selection.
func checkSpan(a, b daterange.Date) error {
	if a.IsZero() || b.IsZero() {
		return nil
	}
	r, err := daterange.NewRange(a, b)
	if err != nil {
		return err
	}
	if r.Days() > maxSpanDays {
		return ErrSpanTooWide
	}
	return nil
}

func parseSelection(rawFrom, rawTo string) (domainavailability.Selection, error) {
	from, err := parseOptionalDate(rawFrom)
	if err != nil {
		return domainavailability.Selection{}, err
	}
	to, err := parseOptionalDate(rawTo)
	if err != nil {
		return domainavailability.Selection{}, err
	}
	if from.IsZero() {
		return domainavailability.Selection{}, nil
	}
	return domainavailability.Selection{From: from, To: to}, nil
}
