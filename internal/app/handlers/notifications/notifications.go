package notifications

import (
	"context"
	"log/slog"
	"strings"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/dto"
	"rentshare/internal/app/queries"
	"rentshare/internal/app/uow"
	domainnotifications "rentshare/internal/domain/notifications"
)

const (
	listNotificationsKey = "notifications.list"
	markReadKey          = "notifications.mark_read"
	defaultListLimit     = 50
)

type ListNotificationsQuery struct {
	UserID     string `json:"-" validate:"required"`
	UnreadOnly bool   `json:"unread_only"`
	Limit      int    `json:"limit" validate:"gte=0,lte=200"`
}

func (q ListNotificationsQuery) Key() string     { return listNotificationsKey }
func (q ListNotificationsQuery) ActorID() string { return q.UserID }

type MarkNotificationReadCommand struct {
	UserID         string `json:"-" validate:"required"`
	NotificationID string `json:"notification_id" validate:"required"`
}

func (c MarkNotificationReadCommand) Key() string     { return markReadKey }
func (c MarkNotificationReadCommand) ActorID() string { return c.UserID }

type ListNotificationsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle lists the newest notifications; Unread counts across the returned page.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.NotificationList, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	list, err := uow.Read(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) ([]*domainnotifications.Notification, error) {
		return unit.Notifications().ListByUser(ctx, q.UserID, q.UnreadOnly, limit)
	})
	if err != nil {
		return dto.NotificationList{}, err
	}
	out := dto.NotificationList{Items: make([]dto.Notification, 0, len(list))}
	for _, n := range list {
		if !n.Read {
			out.Unread++
		}
		out.Items = append(out.Items, dto.MapNotification(n))
	}
	return out, nil
}

type MarkNotificationReadHandler struct {
	Logger *slog.Logger
}

func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) (*dto.Notification, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	n, err := unit.Notifications().ByID(ctx, domainnotifications.NotificationID(strings.TrimSpace(cmd.NotificationID)))
	if err != nil {
		return nil, err
	}
	if err := n.MarkRead(cmd.UserID); err != nil {
		return nil, err
	}
	if err := unit.Notifications().Save(ctx, n); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("notification read", "notification_id", n.ID, "user_id", cmd.UserID)
	}
	out := dto.MapNotification(n)
	return &out, nil
}

var (
	_ queries.Handler[ListNotificationsQuery, dto.NotificationList]       = (*ListNotificationsHandler)(nil)
	_ commands.Handler[MarkNotificationReadCommand, *dto.Notification] = (*MarkNotificationReadHandler)(nil)
)
