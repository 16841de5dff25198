package ginserver

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	itemsapp "rentshare/internal/app/handlers/items"
	"rentshare/internal/app/queries"
)

// ItemHandler wires catalog queries and owner item commands to HTTP.
type ItemHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type itemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	DailyRate   int64    `json:"daily_rate"`
	Currency    string   `json:"currency"`
	Photos      []string `json:"photos"`
	Active      *bool    `json:"active"`
}

// Search responds with a filtered page of the catalog.
func (h ItemHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := itemsapp.SearchItemsQuery{
		ViewerID: viewerID(c),
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		Owner:    c.Query("owner"),
		MinRate:  parseInt64(c.Query("min_rate")),
		MaxRate:  parseInt64(c.Query("max_rate")),
		Sort:     c.Query("sort"),
		Limit:    parseIntWithDefault(c.Query("limit"), 24),
		Offset:   parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[itemsapp.SearchItemsQuery, dto.ItemCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ItemHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}
	query := itemsapp.GetItemQuery{ItemID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[itemsapp.GetItemQuery, dto.Item](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ItemHandler) Create(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := itemsapp.CreateItemCommand{
		OwnerID:         owner.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Location:        req.Location,
		DailyRate:       req.DailyRate,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Photos:          cleanStrings(req.Photos),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[itemsapp.CreateItemCommand, *dto.Item](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ItemHandler) Update(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	cmd := itemsapp.UpdateItemCommand{
		OwnerID:     owner.ID,
		ItemID:      strings.TrimSpace(c.Param("id")),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		DailyRate:   req.DailyRate,
		Photos:      cleanStrings(req.Photos),
		Active:      req.Active,
	}
	result, err := commands.Dispatch[itemsapp.UpdateItemCommand, *dto.Item](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

const maxPhotoBytes = 10 << 20

var (
	photoExtensions = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// UploadPhoto accepts a multipart "file" field and appends it to the item photos.
func (h ItemHandler) UploadPhoto(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, errors.New("multipart field \"file\" is required"))
		return
	}
	if header.Size > maxPhotoBytes {
		h.respondWithError(c, http.StatusRequestEntityTooLarge, errors.New("photo exceeds 10MB"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, allowed := photoExtensions[contentType]
	if !allowed {
		h.respondWithError(c, http.StatusUnsupportedMediaType, errors.New("photo must be jpeg, png or webp"))
		return
	}

	itemID := strings.TrimSpace(c.Param("id"))
	cmd := itemsapp.UploadItemPhotoCommand{
		OwnerID:     owner.ID,
		ItemID:      itemID,
		ObjectKey:   photoObjectKey(itemID, ext),
		ContentType: contentType,
		Reader:      io.MultiReader(bytes.NewReader(head), file),
	}
	result, err := commands.Dispatch[itemsapp.UploadItemPhotoCommand, *dto.Item](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func photoObjectKey(itemID, ext string) string {
	safe := unsafeKeyChars.ReplaceAllString(itemID, "_")
	if safe == "" {
		safe = "item"
	}
	return "items/" + safe + "/" + uuid.NewString() + ext
}

func (h ItemHandler) handleError(c *gin.Context, err error) {
	h.respondWithError(c, statusFor(err), err)
}

func (h ItemHandler) respondWithError(c *gin.Context, status int, err error) {
	respondWithError(c, h.Logger, "item request failed", status, err)
}

var _ ItemHTTP = ItemHandler{}
