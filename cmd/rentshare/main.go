package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"rentshare/internal/app/bootstrap"
	"rentshare/internal/app/policies"
	"rentshare/internal/app/schedule"
	"rentshare/internal/app/sideeffects"
	"rentshare/internal/app/uow"
	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	"rentshare/internal/infra/broker/kafka"
	"rentshare/internal/infra/config"
	mongostore "rentshare/internal/infra/db/mongo"
	ginserver "rentshare/internal/infra/http/gin"
	"rentshare/internal/infra/inbox"
	"rentshare/internal/infra/jobs"
	"rentshare/internal/infra/media"
	"rentshare/internal/infra/obs"
	"rentshare/internal/infra/outbox"
	"rentshare/internal/infra/storage/memory"
	"rentshare/internal/infra/storage/s3"
	"rentshare/internal/infra/storage/scylla"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if err := loadItemFixtures(ctx, cfg.ItemsFixtures, app.items, logger); err != nil {
		logger.Warn("item fixtures load failed", "error", err, "path", cfg.ItemsFixtures)
	}

	for _, bg := range app.background {
		go func(name string, run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "worker", name, "error", err)
			}
		}(bg.name, bg.run)
	}

	scheduler := jobs.NewCronScheduler(cfg.Location, logger)
	if err := scheduler.Register(cfg.LifecycleCron, &schedule.LifecycleJob{Commands: app.buses.Commands, Queries: app.buses.Queries, Logger: logger}); err != nil {
		logger.Error("lifecycle job registration failed", "error", err, "spec", cfg.LifecycleCron)
		os.Exit(1)
	}
	scheduler.Start()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers(logger))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop timed out", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "chat_store", cfg.ChatStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type backgroundWorker struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	buses      bootstrap.Buses
	items      domainitems.Repository
	checks     []obs.Check
	background []backgroundWorker
	closers    []func(ctx context.Context) error
}

func (a *application) handlers(logger *slog.Logger) ginserver.Handlers {
	return ginserver.Handlers{
		Items:         ginserver.ItemHandler{Commands: a.buses.Commands, Queries: a.buses.Queries, Logger: logger},
		Availability:  ginserver.AvailabilityHandler{Queries: a.buses.Queries, Logger: logger},
		Booking:       ginserver.BookingHandler{Commands: a.buses.Commands, Queries: a.buses.Queries, Logger: logger},
		Reviews:       ginserver.ReviewHandler{Commands: a.buses.Commands, Queries: a.buses.Queries, Logger: logger},
		Chat:          ginserver.ChatHandler{Commands: a.buses.Commands, Queries: a.buses.Queries, Logger: logger},
		Notifications: ginserver.NotificationHandler{Commands: a.buses.Commands, Queries: a.buses.Queries, Logger: logger},
	}
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildApplication(cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}

	deps := bootstrap.Deps{
		Logger: logger,
		Calendar: policies.Calendar{
			Location:    cfg.Location,
			HorizonDays: cfg.SearchHorizonDays,
		},
		Pricing:             policies.Pricing{Tiers: cfg.DiscountTiers, Currency: cfg.Currency},
		Filter:              domainchat.NewContentFilter(cfg.ContentFilterWords),
		InlineNotifications: cfg.NotificationsMode == config.NotificationsInline,
		IDs:                 uuid.NewString,
	}

	var notifications domainnotifications.Repository
	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongostore.New(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		app.checks = append(app.checks, obs.Check{Name: "mongo", Probe: client.Ping})
		factory := mongostore.NewFactory(client.DB)
		outboxStore := outbox.NewStore(client.DB)
		deps.UoW = factory
		deps.Outbox = outboxStore
		deps.Idempotency = mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		notifications = factory.NotificationsRepo
		app.items = factory.ItemsRepo

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		worker := &outbox.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		app.background = append(app.background, backgroundWorker{name: "outbox", run: worker.Run})
	default:
		factory := memory.NewFactory()
		deps.UoW = factory
		deps.Outbox = memory.NewOutbox()
		deps.Idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		notifications = factory.NotificationsRepo
		app.items = factory.ItemsRepo
	}
	deps.Notifications = notifications

	chat, err := buildChatStore(cfg, logger, app)
	if err != nil {
		return nil, err
	}
	deps.Chat = chat

	if cfg.S3.Enabled() {
		photos, err := s3.NewPhotoStore(cfg.S3, logger)
		if err != nil {
			return nil, err
		}
		deps.Uploader = photos
		deps.PhotoProcessor = media.NewResizer()
	} else {
		logger.Info("photo uploads disabled", "reason", "S3_ENDPOINT not set")
	}

	app.buses = bootstrap.Build(deps)

	if cfg.NotificationsMode == config.NotificationsKafka {
		worker, err := notificationConsumer(cfg, deps.UoW, app.buses.Effects, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return worker.consumer.Close() })
		app.background = append(app.background, backgroundWorker{name: "notifications", run: worker.run})
	}
	return app, nil
}

func buildChatStore(cfg config.Config, logger *slog.Logger, app *application) (domainchat.Store, error) {
	if cfg.ChatStore != config.ChatStoreScylla {
		return memory.NewChatStore(), nil
	}
	session, err := scylla.NewSession(cfg.Scylla, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error {
		session.Close()
		return nil
	})
	store := scylla.NewStore(session, logger)
	app.checks = append(app.checks, obs.Check{Name: "scylla", Probe: store.Ping})
	return store, nil
}

type notificationWorker struct {
	consumer *kafka.Consumer
	topics   []string
}

func (w notificationWorker) run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.topics)
}

// notificationConsumer builds the Kafka side of NOTIFICATIONS_MODE=kafka: booking
// events are read back from the broker and projected into notifications.
func notificationConsumer(cfg config.Config, factory uow.UoWFactory, effects *sideeffects.BookingEffects, logger *slog.Logger) (notificationWorker, error) {
	db, ok := factory.(mongostore.Factory)
	if !ok {
		return notificationWorker{}, errors.New("kafka notifications require mongo storage")
	}
	projector := &sideeffects.NotificationProjector{
		Effects: effects,
		Inbox:   inbox.NewStore(db.DB, cfg.KafkaConsumerGroup),
		Logger:  logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, kafka.PayloadHandler(projector.Project), logger)
	if err != nil {
		return notificationWorker{}, err
	}
	return notificationWorker{
		consumer: consumer,
		topics:   []string{outbox.TopicFor(cfg.KafkaTopicPrefix, "booking.requested")},
	}, nil
}
