package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentshare/internal/app/dto"
	availabilityapp "rentshare/internal/app/handlers/availability"
	"rentshare/internal/app/queries"
)

// AvailabilityHandler serves the item calendar and the date picker
// interactions. All endpoints are public.
type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type selectDatesRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Clicked string `json:"clicked"`
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetAvailabilityQuery{
		ItemID: strings.TrimSpace(c.Param("id")),
		From:   strings.TrimSpace(c.Query("from")),
		To:     strings.TrimSpace(c.Query("to")),
	}
	ask(c, h, query, func(q availabilityapp.GetAvailabilityQuery) (dto.Calendar, error) {
		return queries.Ask[availabilityapp.GetAvailabilityQuery, dto.Calendar](c.Request.Context(), h.Queries, q)
	})
}

// Select applies one click to the current selection.
func (h AvailabilityHandler) Select(c *gin.Context) {
	var req selectDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	query := availabilityapp.SelectDatesQuery{
		ItemID:  strings.TrimSpace(c.Param("id")),
		From:    strings.TrimSpace(req.From),
		To:      strings.TrimSpace(req.To),
		Clicked: strings.TrimSpace(req.Clicked),
	}
	ask(c, h, query, func(q availabilityapp.SelectDatesQuery) (dto.SelectionResult, error) {
		return queries.Ask[availabilityapp.SelectDatesQuery, dto.SelectionResult](c.Request.Context(), h.Queries, q)
	})
}

func (h AvailabilityHandler) QuickSelect(c *gin.Context) {
	query := availabilityapp.QuickSelectQuery{
		ItemID: strings.TrimSpace(c.Param("id")),
		Days:   parseInt(c.Query("days")),
		From:   strings.TrimSpace(c.Query("from")),
	}
	ask(c, h, query, func(q availabilityapp.QuickSelectQuery) (dto.SelectionResult, error) {
		return queries.Ask[availabilityapp.QuickSelectQuery, dto.SelectionResult](c.Request.Context(), h.Queries, q)
	})
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	query := availabilityapp.QuoteBookingQuery{
		ItemID: strings.TrimSpace(c.Param("id")),
		From:   strings.TrimSpace(c.Query("from")),
		To:     strings.TrimSpace(c.Query("to")),
	}
	ask(c, h, query, func(q availabilityapp.QuoteBookingQuery) (dto.Quote, error) {
		return queries.Ask[availabilityapp.QuoteBookingQuery, dto.Quote](c.Request.Context(), h.Queries, q)
	})
}

func ask[Q any, R any](c *gin.Context, h AvailabilityHandler, q Q, run func(Q) (R, error)) {
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	result, err := run(q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h AvailabilityHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "availability request failed", status, err)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
