package daterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedDate = errors.New("daterange: malformed date, expected YYYY-MM-DD")
	ErrEmptyRange    = errors.New("daterange: both endpoints are required")
)

const layout = "2006-01-02"

// minYear keeps parsed dates well clear of the zero Date, which means unset.
const minYear = 1900

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day without time-of-day or zone. Arithmetic runs on a
// UTC-midnight anchor so day counts never shift across DST changes.
type Date struct {
	t time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// ParseDate reads a YYYY-MM-DD string by splitting it into its numeric
// parts. Values that do not name a real day are rejected instead of being
// normalized into the next month.
func ParseDate(raw string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
		}
		nums[i] = n
	}
	if nums[0] < minYear || nums[1] < 1 || nums[1] > 12 || nums[2] < 1 {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	d := New(nums[0], time.Month(nums[1]), nums[2])
	if d.Day() != nums[2] {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return d, nil
}

// MustParse is for fixtures and tests.
func MustParse(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Year() int { return d.t.Year() }

func (d Date) Month() time.Month { return d.t.Month() }

func (d Date) Day() int { return d.t.Day() }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysUntil returns the whole number of days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int((other.t.Unix() - d.t.Unix()) / secondsPerDay)
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func Min(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

func Max(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}

// Range is an inclusive interval [Start, End]; both endpoints are rental days.
type Range struct {
	Start Date
	End   Date
}

// NewRange normalizes the endpoints so Start <= End.
func NewRange(a, b Date) (Range, error) {
	if a.IsZero() || b.IsZero() {
		return Range{}, ErrEmptyRange
	}
	return Range{Start: Min(a, b), End: Max(a, b)}, nil
}

// ParseRange parses persisted start/end strings.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return NewRange(s, e)
}

func (r Range) IsZero() bool { return r.Start.IsZero() || r.End.IsZero() }

func (r Range) Days() int {
	if r.IsZero() {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) Overlaps(other Range) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// Each calls fn for every day in the range until fn returns false.
func (r Range) Each(fn func(Date) bool) {
	if r.IsZero() {
		return
	}
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		if !fn(d) {
			return
		}
	}
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
