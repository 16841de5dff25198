package availability

import (
	"fmt"
	"time"

	"rentshare/internal/domain/booking"
	"rentshare/internal/domain/shared/daterange"
)

// DefaultHorizonDays bounds forward scans for an anchor or a quick-select window.
const DefaultHorizonDays = 90

type DayState string

const (
	DayAvailable DayState = "available"
	DayBooked    DayState = "booked"
	DayPending   DayState = "pending"
	DayPast      DayState = "past"
)

// Reservation is a booking as it is persisted: dates are YYYY-MM-DD strings.
type Reservation struct {
	BookingID string
	StartDate string
	EndDate   string
	Status    booking.Status
}

// Selection is a possibly incomplete range picked on a calendar. A zero From
// means nothing is selected; a zero To means only the anchor is set.
type Selection struct {
	From daterange.Date
	To   daterange.Date
}

func (s Selection) IsEmpty() bool { return s.From.IsZero() }

func (s Selection) Complete() bool { return !s.From.IsZero() && !s.To.IsZero() }

// Range returns the normalized inclusive range for a complete selection.
func (s Selection) Range() (daterange.Range, bool) {
	if !s.Complete() {
		return daterange.Range{}, false
	}
	r, err := daterange.NewRange(s.From, s.To)
	if err != nil {
		return daterange.Range{}, false
	}
	return r, true
}

// Day pairs a date with its classification for calendar rendering.
type Day struct {
	Date  daterange.Date
	State DayState
}

// Engine classifies calendar days for one item. It holds no clock and does no
// I/O; build a new one from a fresh read after every mutation.
type Engine struct {
	today   daterange.Date
	booked  []daterange.Range
	held    []daterange.Range
	horizon int
}

// NewEngine parses reservations and drops cancelled ones. A malformed date or
// unknown status fails the whole build.
func NewEngine(today daterange.Date, reservations []Reservation) (*Engine, error) {
	if today.IsZero() {
		return nil, fmt.Errorf("availability: today is required")
	}
	e := &Engine{today: today, horizon: DefaultHorizonDays}
	for _, res := range reservations {
		if !res.Status.Valid() {
			return nil, fmt.Errorf("availability: reservation %s: %w: %q", res.BookingID, booking.ErrInvalidStatus, res.Status)
		}
		r, err := daterange.ParseRange(res.StartDate, res.EndDate)
		if err != nil {
			return nil, fmt.Errorf("availability: reservation %s: %w", res.BookingID, err)
		}
		switch {
		case res.Status.IsBooked():
			e.booked = append(e.booked, r)
		case res.Status.IsHeld():
			e.held = append(e.held, r)
		}
	}
	return e, nil
}

// FromBookings converts aggregates into the persisted reservation shape.
func FromBookings(bookings []*booking.Booking) []Reservation {
	out := make([]Reservation, 0, len(bookings))
	for _, b := range bookings {
		if b == nil {
			continue
		}
		out = append(out, Reservation{
			BookingID: string(b.ID),
			StartDate: b.Range.Start.String(),
			EndDate:   b.Range.End.String(),
			Status:    b.Status,
		})
	}
	return out
}

// WithHorizon returns a copy that scans up to days ahead. Non-positive values keep the default.
func (e *Engine) WithHorizon(days int) *Engine {
	clone := *e
	if days > 0 {
		clone.horizon = days
	}
	return &clone
}

func (e *Engine) Today() daterange.Date { return e.today }

func (e *Engine) Horizon() int { return e.horizon }

// Classify resolves a day with precedence past > booked > pending > available.
func (e *Engine) Classify(d daterange.Date) DayState {
	if d.Before(e.today) {
		return DayPast
	}
	for _, r := range e.booked {
		if r.Contains(d) {
			return DayBooked
		}
	}
	for _, r := range e.held {
		if r.Contains(d) {
			return DayPending
		}
	}
	return DayAvailable
}

func (e *Engine) IsAvailable(d daterange.Date) bool {
	return e.Classify(d) == DayAvailable
}

// IsRangeSelectable is true when every day of [min(from,to), max(from,to)] is available.
func (e *Engine) IsRangeSelectable(from, to daterange.Date) bool {
	r, err := daterange.NewRange(from, to)
	if err != nil {
		return false
	}
	ok := true
	r.Each(func(d daterange.Date) bool {
		ok = e.IsAvailable(d)
		return ok
	})
	return ok
}

// SelectDate applies one click to the current selection. A click that would
// extend the anchor across a blocked day starts a fresh selection at the
// clicked day instead of keeping the old anchor. Clicks on days that are not
// available leave the selection unchanged.
func (e *Engine) SelectDate(current Selection, clicked daterange.Date) Selection {
	if clicked.IsZero() || !e.IsAvailable(clicked) {
		return current
	}
	if current.IsEmpty() || current.Complete() {
		return Selection{From: clicked}
	}
	from := daterange.Min(current.From, clicked)
	to := daterange.Max(current.From, clicked)
	if !e.IsRangeSelectable(from, to) {
		return Selection{From: clicked}
	}
	return Selection{From: from, To: to}
}

// FindNextAvailableAnchor reports the first available day in
// [from, from+withinDays). It never changes any selection.
func (e *Engine) FindNextAvailableAnchor(from daterange.Date, withinDays int) (daterange.Date, bool) {
	if from.IsZero() {
		return daterange.Date{}, false
	}
	if withinDays <= 0 {
		withinDays = e.horizon
	}
	for i := 0; i < withinDays; i++ {
		d := from.AddDays(i)
		if e.IsAvailable(d) {
			return d, true
		}
	}
	return daterange.Date{}, false
}

// QuickSelect builds a days-long window starting at from (today when zero).
// If that window is blocked it slides forward within the horizon; failing
// that it falls back to a single-day anchor at the first available day, and
// finally to an empty selection.
func (e *Engine) QuickSelect(days int, from daterange.Date) Selection {
	if days <= 0 {
		return Selection{}
	}
	if from.IsZero() {
		from = e.today
	}
	for i := 0; i < e.horizon; i++ {
		start := from.AddDays(i)
		end := start.AddDays(days - 1)
		if e.IsRangeSelectable(start, end) {
			return Selection{From: start, To: end}
		}
	}
	if anchor, ok := e.FindNextAvailableAnchor(from, e.horizon); ok {
		return Selection{From: anchor}
	}
	return Selection{}
}

// Span classifies every day of the inclusive range.
func (e *Engine) Span(r daterange.Range) []Day {
	out := make([]Day, 0, r.Days())
	r.Each(func(d daterange.Date) bool {
		out = append(out, Day{Date: d, State: e.Classify(d)})
		return true
	})
	return out
}

// CalendarMonth classifies every day of the given month.
func (e *Engine) CalendarMonth(year int, month time.Month) []Day {
	first := daterange.New(year, month, 1)
	last := first.AddDays(32)
	last = daterange.New(last.Year(), last.Month(), 1).AddDays(-1)
	return e.Span(daterange.Range{Start: first, End: last})
}

// Count tallies days per state over a range.
func (e *Engine) Count(r daterange.Range) map[DayState]int {
	out := make(map[DayState]int, 4)
	r.Each(func(d daterange.Date) bool {
		out[e.Classify(d)]++
		return true
	})
	return out
}
