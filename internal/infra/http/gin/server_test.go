package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentshare/internal/app/bootstrap"
	itemsapp "rentshare/internal/app/handlers/items"
	"rentshare/internal/app/policies"
	domainchat "rentshare/internal/domain/chat"
	domainpricing "rentshare/internal/domain/pricing"
	"rentshare/internal/infra/config"
	"rentshare/internal/infra/obs"
	"rentshare/internal/infra/storage/memory"
)

const (
	owner    = "owner-1"
	borrower = "borrower-1"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithUploads(t, nil)
}

func newTestRouterWithUploads(t *testing.T, uploader itemsapp.PhotoUploader) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewFactory()
	buses := bootstrap.Build(bootstrap.Deps{
		Logger:        logger,
		UoW:           factory,
		Outbox:        memory.NewOutbox(),
		Idempotency:   memory.NewIdempotencyStore(0),
		Chat:          memory.NewChatStore(),
		Filter:        domainchat.NewContentFilter(nil),
		Notifications: factory.NotificationsRepo,
		Calendar: policies.Calendar{
			Location: time.UTC,
			Clock:    func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
		},
		Pricing:             policies.Pricing{Tiers: domainpricing.DefaultTiers(), Currency: "USD"},
		Uploader:            uploader,
		InlineNotifications: true,
	})
	handlers := Handlers{
		Items:         ItemHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Availability:  AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Booking:       BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Reviews:       ReviewHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Chat:          ChatHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Notifications: NotificationHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
	}
	cfg := config.Config{Env: "test"}
	return NewRouter(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, handlers)
}

func do(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(userIDHeader, user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createItem(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/items", owner, gin.H{
		"title":      "Cordless drill",
		"category":   "tools",
		"location":   "Berlin",
		"daily_rate": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[struct {
		ID string `json:"id"`
	}](t, rec)
	require.NotEmpty(t, item.ID)
	return item.ID
}

func requestBooking(t *testing.T, router http.Handler, itemID, start, end string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/bookings", borrower, gin.H{
		"item_id":    itemID,
		"start_date": start,
		"end_date":   end,
		"message":    "need it for a shelf",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[struct {
		BookingID string `json:"booking_id"`
		Status    string `json:"status"`
	}](t, rec)
	assert.Equal(t, "pending", result.Status)
	return result.BookingID
}

func TestBookingFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router)

	rec := do(t, router, http.MethodGet, "/api/v1/items/"+itemID+"/quote?from=2024-06-10&to=2024-06-16", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[struct {
		Days       int `json:"days"`
		FinalPrice struct {
			Amount int64 `json:"amount"`
		} `json:"final_price"`
	}](t, rec)
	assert.Equal(t, 7, quote.Days)
	assert.Equal(t, int64(630), quote.FinalPrice.Amount)

	bookingID := requestBooking(t, router, itemID, "2024-06-10", "2024-06-12")

	rec = do(t, router, http.MethodGet, "/api/v1/items/"+itemID+"/calendar?from=2024-06-09&to=2024-06-13", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	calendar := decode[struct {
		Days []struct {
			Date  string `json:"date"`
			State string `json:"state"`
		} `json:"days"`
	}](t, rec)
	require.Len(t, calendar.Days, 5)
	assert.Equal(t, "available", calendar.Days[0].State)
	assert.Equal(t, "pending", calendar.Days[1].State)
	assert.Equal(t, "pending", calendar.Days[3].State)
	assert.Equal(t, "available", calendar.Days[4].State)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", borrower, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/withdraw", borrower, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/owner/bookings", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	owned := decode[struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, owned.Items, 1)
	assert.Equal(t, bookingID, owned.Items[0].ID)
	assert.Equal(t, "confirmed", owned.Items[0].Status)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", owner, gin.H{"reason": "drill broke"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
}

func TestRequestOpensConversationAndNotifiesOwner(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router)
	requestBooking(t, router, itemID, "2024-06-10", "2024-06-12")

	rec := do(t, router, http.MethodGet, "/api/v1/conversations", borrower, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	conversations := decode[struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, conversations.Items, 1)
	conversationID := conversations.Items[0].ID

	rec = do(t, router, http.MethodPost, "/api/v1/conversations/"+conversationID+"/messages", owner, gin.H{"text": "sure, see you monday"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/conversations/"+conversationID+"/messages", "stranger", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", borrower, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	messages := decode[struct {
		Items []struct {
			Text string `json:"text"`
		} `json:"items"`
	}](t, rec)
	assert.Len(t, messages.Items, 2)

	rec = do(t, router, http.MethodGet, "/api/v1/notifications", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	notifications := decode[struct {
		Items []struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, notifications.Items, 1)
	assert.Equal(t, "booking_requested", notifications.Items[0].Kind)

	rec = do(t, router, http.MethodPost, "/api/v1/notifications/"+notifications.Items[0].ID+"/read", borrower, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	rec = do(t, router, http.MethodPost, "/api/v1/notifications/"+notifications.Items[0].ID+"/read", owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRejectsOverlapsAndBadInput(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router)
	requestBooking(t, router, itemID, "2024-06-10", "2024-06-12")

	rec := do(t, router, http.MethodPost, "/api/v1/bookings", "borrower-2", gin.H{
		"item_id": itemID, "start_date": "2024-06-12", "end_date": "2024-06-14",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", borrower, gin.H{
		"item_id": itemID, "start_date": "06/20/2024", "end_date": "2024-06-21",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "fields")

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", owner, gin.H{
		"item_id": itemID, "start_date": "2024-06-20", "end_date": "2024-06-21",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", "", gin.H{
		"item_id": itemID, "start_date": "2024-06-20", "end_date": "2024-06-21",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/items/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/bookings", borrower, gin.H{
		"item_id": itemID, "start_date": "2024-06-20", "end_date": "9999-12-31",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/items/"+itemID+"/quote?from=2024-06-20&to=9999-12-31", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/items", owner, gin.H{
		"title": "Gold drill", "daily_rate": int64(1) << 61,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestCreateItemReplaysIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)
	send := func() string {
		raw, err := json.Marshal(gin.H{"title": "Tent", "daily_rate": 15})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(userIDHeader, owner)
		req.Header.Set("Idempotency-Key", "create-tent")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[struct {
			ID string `json:"id"`
		}](t, rec).ID
	}
	first := send()
	assert.Equal(t, first, send())

	rec := do(t, router, http.MethodGet, "/api/v1/items?owner="+owner, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, rec)
	assert.Len(t, items.Items, 1)
}

type recordingUploader struct {
	keys []string
}

func (u *recordingUploader) Upload(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "http://photos.test/" + key, nil
}

func uploadPhoto(t *testing.T, router http.Handler, itemID, user string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "photo.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID+"/photos", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set(userIDHeader, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadItemPhoto(t *testing.T) {
	uploader := &recordingUploader{}
	router := newTestRouterWithUploads(t, uploader)
	itemID := createItem(t, router)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	rec := uploadPhoto(t, router, itemID, owner, png)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[struct {
		Photos []string `json:"photos"`
	}](t, rec)
	require.Len(t, uploader.keys, 1)
	assert.Regexp(t, `^items/[a-zA-Z0-9_-]+/[0-9a-f-]{36}\.png$`, uploader.keys[0])
	assert.Equal(t, []string{"http://photos.test/" + uploader.keys[0]}, item.Photos)

	rec = uploadPhoto(t, router, itemID, borrower, png)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = uploadPhoto(t, router, itemID, owner, []byte("just some text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Len(t, uploader.keys, 1)
}

func TestUploadItemPhotoWithoutStorage(t *testing.T) {
	router := newTestRouter(t)
	itemID := createItem(t, router)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	rec := uploadPhoto(t, router, itemID, owner, png)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
