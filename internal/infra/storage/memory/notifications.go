package memory

import (
	"context"
	"sort"
	"sync"

	domainnotifications "rentshare/internal/domain/notifications"
)

type NotificationRepository struct {
	mu    sync.RWMutex
	items map[domainnotifications.NotificationID]domainnotifications.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[domainnotifications.NotificationID]domainnotifications.Notification)}
}

func (r *NotificationRepository) Save(ctx context.Context, n *domainnotifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.ID] = *n
	return nil
}

func (r *NotificationRepository) ByID(ctx context.Context, id domainnotifications.NotificationID) (*domainnotifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, domainnotifications.ErrNotFound
	}
	return &n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domainnotifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainnotifications.Notification, 0)
	for _, n := range r.items {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, 0), nil
}

var _ domainnotifications.Repository = (*NotificationRepository)(nil)
