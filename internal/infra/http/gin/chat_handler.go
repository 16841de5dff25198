package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	chatapp "rentshare/internal/app/handlers/chat"
	"rentshare/internal/app/queries"
)

// ChatHandler exposes conversations opened by booking requests.
type ChatHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (h ChatHandler) ListConversations(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := chatapp.ListConversationsQuery{UserID: user.ID}
	result, err := queries.Ask[chatapp.ListConversationsQuery, dto.ConversationList](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMessages pages backwards with ?before=<message id>&limit=.
func (h ChatHandler) ListMessages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := chatapp.ListMessagesQuery{
		UserID:         user.ID,
		ConversationID: strings.TrimSpace(c.Param("id")),
		Limit:          parseInt(c.Query("limit")),
		Before:         strings.TrimSpace(c.Query("before")),
	}
	result, err := queries.Ask[chatapp.ListMessagesQuery, dto.ChatMessageList](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) SendMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := chatapp.SendMessageCommand{
		SenderID:       user.ID,
		ConversationID: strings.TrimSpace(c.Param("id")),
		Text:           req.Text,
	}
	result, err := commands.Dispatch[chatapp.SendMessageCommand, *dto.ChatMessage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ChatHandler) ToggleReaction(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := chatapp.ToggleReactionCommand{
		UserID:    user.ID,
		MessageID: strings.TrimSpace(c.Param("id")),
		Emoji:     strings.TrimSpace(req.Emoji),
	}
	result, err := commands.Dispatch[chatapp.ToggleReactionCommand, *dto.ChatMessage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h ChatHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "chat request failed", status, err)
}

var _ ChatHTTP = ChatHandler{}
