package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "rentshare/internal/app/handlers/availability"
	bookingapp "rentshare/internal/app/handlers/booking"
	itemsapp "rentshare/internal/app/handlers/items"
	"rentshare/internal/app/middleware"
	"rentshare/internal/app/validation"
	domainbooking "rentshare/internal/domain/booking"
	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	domainreviews "rentshare/internal/domain/reviews"
	"rentshare/internal/domain/shared/daterange"
	"rentshare/internal/infra/db/mongo"
	"rentshare/internal/infra/media"
	"rentshare/internal/infra/storage/memory"
)

// statusFor maps application and domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, itemsapp.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, media.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, itemsapp.ErrPhotoUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, daterange.ErrMalformedDate),
		errors.Is(err, daterange.ErrEmptyRange),
		errors.Is(err, availabilityapp.ErrSpanTooWide),
		errors.Is(err, availabilityapp.ErrItemRequired),
		errors.Is(err, domainbooking.ErrSelfBooking),
		errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, domainbooking.ErrRangeRequired),
		errors.Is(err, domainbooking.ErrRangeTooLong),
		errors.Is(err, domainbooking.ErrNegativeTotal),
		errors.Is(err, domainitems.ErrTitleRequired),
		errors.Is(err, domainitems.ErrDailyRate),
		errors.Is(err, domainitems.ErrTooManyPhotos),
		errors.Is(err, domainitems.ErrPhotoURL),
		errors.Is(err, domainreviews.ErrInvalidRating),
		errors.Is(err, domainchat.ErrEmptyMessage),
		errors.Is(err, domainchat.ErrMessageTooLong),
		errors.Is(err, domainchat.ErrEmptyReaction),
		errors.Is(err, domainchat.ErrParticipants):
		return http.StatusBadRequest
	case errors.Is(err, bookingapp.ErrWrongParty),
		errors.Is(err, domainbooking.ErrNotParticipant),
		errors.Is(err, domainbooking.ErrDeleteNotAllowed),
		errors.Is(err, domainitems.ErrNotOwner),
		errors.Is(err, domainreviews.ErrNotParticipant),
		errors.Is(err, domainchat.ErrNotParticipant),
		errors.Is(err, domainnotifications.ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainitems.ErrItemNotFound),
		errors.Is(err, domainreviews.ErrNotFound),
		errors.Is(err, domainchat.ErrConversationNotFound),
		errors.Is(err, domainchat.ErrMessageNotFound),
		errors.Is(err, domainnotifications.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrRangeUnavailable),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainitems.ErrInactive),
		errors.Is(err, domainreviews.ErrAlreadyReviewed),
		errors.Is(err, domainreviews.ErrBookingNotClosed),
		errors.Is(err, memory.ErrVersionConflict),
		errors.Is(err, mongo.ErrConcurrentUpdate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody hides internal failures and lists field errors for invalid input.
func errorBody(status int, err error) gin.H {
	if status == http.StatusInternalServerError {
		return gin.H{"error": "internal error"}
	}
	body := gin.H{"error": err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	return body
}

func respondWithError(c *gin.Context, logger *slog.Logger, msg string, status int, err error) {
	if logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "user_id", p.ID)
		}
		if status >= http.StatusInternalServerError {
			logger.Error(msg, fields...)
		} else {
			logger.Warn(msg, fields...)
		}
	}
	c.JSON(status, errorBody(status, err))
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, out any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(out)
}
