package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentshare/internal/infra/config"
	"rentshare/internal/infra/obs"
)

type ItemHTTP interface {
	Search(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Select(c *gin.Context)
	QuickSelect(c *gin.Context)
	Quote(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	ListOwned(c *gin.Context)
	Confirm(c *gin.Context)
	Reject(c *gin.Context)
	Withdraw(c *gin.Context)
	Cancel(c *gin.Context)
	Revert(c *gin.Context)
	Delete(c *gin.Context)
}

type ReviewHTTP interface {
	ListForItem(c *gin.Context)
	Submit(c *gin.Context)
}

type ChatHTTP interface {
	ListConversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	ToggleReaction(c *gin.Context)
}

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkRead(c *gin.Context)
}

type Handlers struct {
	Items         ItemHTTP
	Availability  AvailabilityHTTP
	Booking       BookingHTTP
	Reviews       ReviewHTTP
	Chat          ChatHTTP
	Notifications NotificationHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without binding an address.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(Identity())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", userIDHeader, "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Items != nil {
		api.GET("/items", h.Items.Search)
		api.POST("/items", h.Items.Create)
		api.GET("/items/:id", h.Items.Get)
		api.PUT("/items/:id", h.Items.Update)
		api.POST("/items/:id/photos", h.Items.UploadPhoto)
	}
	if h.Availability != nil {
		api.GET("/items/:id/calendar", h.Availability.Calendar)
		api.POST("/items/:id/calendar/select", h.Availability.Select)
		api.GET("/items/:id/calendar/quick", h.Availability.QuickSelect)
		api.GET("/items/:id/quote", h.Availability.Quote)
	}
	if h.Reviews != nil {
		api.GET("/items/:id/reviews", h.Reviews.ListForItem)
		api.POST("/bookings/:id/reviews", h.Reviews.Submit)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/owner/bookings", h.Booking.ListOwned)
		bookingGroup := api.Group("/bookings/:id")
		bookingGroup.POST("/confirm", h.Booking.Confirm)
		bookingGroup.POST("/reject", h.Booking.Reject)
		bookingGroup.POST("/withdraw", h.Booking.Withdraw)
		bookingGroup.POST("/cancel", h.Booking.Cancel)
		bookingGroup.POST("/revert", h.Booking.Revert)
		bookingGroup.DELETE("", h.Booking.Delete)
	}
	if h.Chat != nil {
		api.GET("/conversations", h.Chat.ListConversations)
		api.GET("/conversations/:id/messages", h.Chat.ListMessages)
		api.POST("/conversations/:id/messages", h.Chat.SendMessage)
		api.POST("/messages/:id/reactions", h.Chat.ToggleReaction)
	}
	if h.Notifications != nil {
		api.GET("/notifications", h.Notifications.List)
		api.POST("/notifications/:id/read", h.Notifications.MarkRead)
	}

	return router
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
