package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	bookingapp "rentshare/internal/app/handlers/booking"
	"rentshare/internal/app/queries"
)

// BookingHandler serves both sides of a booking. The handlers below decide
// whether the caller is the borrower or the owner.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Message   string `json:"message"`
}

type bookingReasonRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		BorrowerID:      user.ID,
		ItemID:          strings.TrimSpace(req.ItemID),
		StartDate:       strings.TrimSpace(req.StartDate),
		EndDate:         strings.TrimSpace(req.EndDate),
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListMine lists bookings the caller made as a borrower.
func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := bookingapp.ListBorrowerBookingsQuery{BorrowerID: user.ID, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListBorrowerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListOwned lists requests made against the caller's items.
func (h BookingHandler) ListOwned(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := bookingapp.ListOwnerBookingsQuery{OwnerID: user.ID, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListOwnerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, func(userID, bookingID, _ string) commands.Command {
		return bookingapp.ConfirmBookingCommand{OwnerID: userID, BookingID: bookingID}
	})
}

func (h BookingHandler) Reject(c *gin.Context) {
	h.transition(c, func(userID, bookingID, reason string) commands.Command {
		return bookingapp.RejectBookingCommand{OwnerID: userID, BookingID: bookingID, Reason: reason}
	})
}

func (h BookingHandler) Withdraw(c *gin.Context) {
	h.transition(c, func(userID, bookingID, _ string) commands.Command {
		return bookingapp.WithdrawBookingCommand{BorrowerID: userID, BookingID: bookingID}
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, func(userID, bookingID, reason string) commands.Command {
		return bookingapp.CancelBookingCommand{UserID: userID, BookingID: bookingID, Reason: reason}
	})
}

func (h BookingHandler) Revert(c *gin.Context) {
	h.transition(c, func(userID, bookingID, _ string) commands.Command {
		return bookingapp.RevertBookingCommand{OwnerID: userID, BookingID: bookingID}
	})
}

func (h BookingHandler) Delete(c *gin.Context) {
	h.transition(c, func(userID, bookingID, _ string) commands.Command {
		return bookingapp.DeleteBookingCommand{UserID: userID, BookingID: bookingID}
	})
}

// transition dispatches a status change. Every such command answers with a
// BookingActionResult.
func (h BookingHandler) transition(c *gin.Context, build func(userID, bookingID, reason string) commands.Command) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req bookingReasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := build(user.ID, strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Reason))
	raw, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	result, ok := raw.(*dto.BookingActionResult)
	if !ok {
		h.respondWithError(c, http.StatusInternalServerError, commands.ErrResultType)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h BookingHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "booking request failed", status, err)
}

var _ BookingHTTP = BookingHandler{}
