package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abyuwono/bagasi/internal/events"
	"github.com/abyuwono/bagasi/internal/validation"
)

var ErrInvalidInput = errors.New("invalid input")

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AdID      *string   `json:"adId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type PushSubscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// PushJob is queued for the web-push sender.
type PushJob struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	AdID     string `json:"adId,omitempty"`
}

type Store interface {
	Create(ctx context.Context, n Notification) (*Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	SaveSubscription(ctx context.Context, userID string, sub PushSubscription) error
	Subscriptions(ctx context.Context, userID string) ([]PushSubscription, error)
}

type Usecase struct {
	store Store
	push  events.Publisher
}

func New(store Store, push events.Publisher) *Usecase {
	if push == nil {
		push = events.Nop{}
	}
	return &Usecase{store: store, push: push}
}

// Notify stores an in-app notification and queues a push for each subscription of the user.
func (u *Usecase) Notify(ctx context.Context, userID, kind, title, body, adID string) error {
	if userID == "" || strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}

	n := Notification{UserID: userID, Kind: kind, Title: title, Body: body}
	if adID != "" {
		n.AdID = &adID
	}
	saved, err := u.store.Create(ctx, n)
	if err != nil {
		return err
	}

	subs, err := u.store.Subscriptions(ctx, userID)
	if err != nil {
		return err
	}
	for _, s := range subs {
		events.PublishBestEffort(ctx, u.push, saved.ID, PushJob{
			Endpoint: s.Endpoint,
			P256dh:   s.Keys.P256dh,
			Auth:     s.Keys.Auth,
			Title:    title,
			Body:     body,
			AdID:     adID,
		})
	}
	return nil
}

func (u *Usecase) List(ctx context.Context, userID string) ([]Notification, error) {
	return u.store.ListByUser(ctx, userID)
}

func (u *Usecase) UnreadCount(ctx context.Context, userID string) (int, error) {
	return u.store.CountUnread(ctx, userID)
}

func (u *Usecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return u.store.MarkAllRead(ctx, userID)
}

func (u *Usecase) SaveSubscription(ctx context.Context, userID string, sub PushSubscription) error {
	if err := validation.Struct(sub); err != nil {
		return err
	}
	return u.store.SaveSubscription(ctx, userID, sub)
}
