package booking

import (
	"errors"

	"rentshare/internal/domain/shared/daterange"
)

// MaxRentalDays is the longest booking a borrower may request.
const MaxRentalDays = 366

var (
	ErrStartInPast      = errors.New("booking: start date is in the past")
	ErrRangeTooLong     = errors.New("booking: requested range exceeds 366 days")
	ErrRangeUnavailable = errors.New("booking: requested dates are not available")
)

// ValidateRequestedRange rejects requests that begin before today or run
// longer than MaxRentalDays.
func ValidateRequestedRange(dr daterange.Range, today daterange.Date) error {
	if dr.IsZero() {
		return ErrRangeRequired
	}
	if dr.Start.Before(today) {
		return ErrStartInPast
	}
	if dr.Days() > MaxRentalDays {
		return ErrRangeTooLong
	}
	return nil
}
