package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	notificationsapp "rentshare/internal/app/handlers/notifications"
	"rentshare/internal/app/queries"
)

type NotificationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h NotificationHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := notificationsapp.ListNotificationsQuery{
		UserID:     user.ID,
		UnreadOnly: parseBool(c.Query("unread")),
		Limit:      parseInt(c.Query("limit")),
	}
	result, err := queries.Ask[notificationsapp.ListNotificationsQuery, dto.NotificationList](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	cmd := notificationsapp.MarkNotificationReadCommand{
		UserID:         user.ID,
		NotificationID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[notificationsapp.MarkNotificationReadCommand, *dto.Notification](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h NotificationHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "notification request failed", status, err)
}

var _ NotificationHTTP = NotificationHandler{}
