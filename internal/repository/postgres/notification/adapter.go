package postgres

import (
	"context"

	notifuc "github.com/abyuwono/bagasi/internal/usecase/notification"
)

// listLimit keeps the bell dropdown bounded.
const listLimit = 50

type NotificationStoreAdapter struct {
	repo *NotificationRepo
}

func NewNotificationStoreAdapter(repo *NotificationRepo) *NotificationStoreAdapter {
	return &NotificationStoreAdapter{repo: repo}
}

func (a *NotificationStoreAdapter) Create(ctx context.Context, n notifuc.Notification) (*notifuc.Notification, error) {
	row, err := a.repo.Create(ctx, NotificationRow{
		UserID: n.UserID,
		Kind:   n.Kind,
		Title:  n.Title,
		Body:   n.Body,
		AdID:   n.AdID,
	})
	if err != nil {
		return nil, err
	}
	out := mapNotification(row)
	return &out, nil
}

func (a *NotificationStoreAdapter) ListByUser(ctx context.Context, userID string) ([]notifuc.Notification, error) {
	rows, err := a.repo.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, err
	}
	out := make([]notifuc.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, mapNotification(&rows[i]))
	}
	return out, nil
}

func (a *NotificationStoreAdapter) CountUnread(ctx context.Context, userID string) (int, error) {
	return a.repo.CountUnread(ctx, userID)
}

func (a *NotificationStoreAdapter) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return a.repo.MarkAllRead(ctx, userID)
}

func (a *NotificationStoreAdapter) SaveSubscription(ctx context.Context, userID string, sub notifuc.PushSubscription) error {
	return a.repo.UpsertSubscription(ctx, SubscriptionRow{
		Endpoint: sub.Endpoint,
		UserID:   userID,
		P256dh:   sub.Keys.P256dh,
		Auth:     sub.Keys.Auth,
	})
}

func (a *NotificationStoreAdapter) Subscriptions(ctx context.Context, userID string) ([]notifuc.PushSubscription, error) {
	rows, err := a.repo.Subscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]notifuc.PushSubscription, 0, len(rows))
	for _, r := range rows {
		var s notifuc.PushSubscription
		s.Endpoint = r.Endpoint
		s.Keys.P256dh = r.P256dh
		s.Keys.Auth = r.Auth
		out = append(out, s)
	}
	return out, nil
}

func mapNotification(r *NotificationRow) notifuc.Notification {
	return notifuc.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      r.Kind,
		Title:     r.Title,
		Body:      r.Body,
		AdID:      r.AdID,
		Read:      r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

// Compile-time check
var _ notifuc.Store = (*NotificationStoreAdapter)(nil)
