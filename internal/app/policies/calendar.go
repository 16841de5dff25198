package policies

import (
	"time"

	"rentshare/internal/domain/shared/daterange"
)

// Calendar owns the single wall-clock read. Handlers derive "today" from it
// and pass it into the availability engine.
type Calendar struct {
	Location *time.Location
	Clock    func() time.Time
	// HorizonDays bounds quick-select and anchor scans. Zero keeps the engine default.
	HorizonDays int
}

func (c Calendar) Now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Today is the current calendar day in the configured zone.
func (c Calendar) Today() daterange.Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return daterange.DateOf(c.Now().In(loc))
}
