package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	reviewsapp "rentshare/internal/app/handlers/reviews"
	"rentshare/internal/app/queries"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h ReviewHandler) ListForItem(c *gin.Context) {
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := reviewsapp.ListItemReviewsQuery{
		ItemID: strings.TrimSpace(c.Param("id")),
		Limit:  parseIntWithDefault(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewsapp.ListItemReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Submit records the caller's review of a completed booking.
func (h ReviewHandler) Submit(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		AuthorID:  user.ID,
		BookingID: strings.TrimSpace(c.Param("id")),
		Rating:    req.Rating,
		Text:      strings.TrimSpace(req.Text),
	}
	result, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h ReviewHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "review request failed", status, err)
}

var _ ReviewHTTP = ReviewHandler{}
