package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abyuwono/bagasi/internal/domain/listing"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("ad not found")
)

const maxBodyRunes = 2000

type Message struct {
	ID         string    `json:"id"`
	AdID       string    `json:"adId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Store interface {
	ListByAd(ctx context.Context, adID string) ([]Message, error)
	Create(ctx context.Context, adID, senderID, body string) (*Message, error)
}

type PartiesLookup interface {
	Parties(ctx context.Context, adID string) (*listing.Parties, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, body, adID string) error
}

type Usecase struct {
	store    Store
	parties  PartiesLookup
	notifier Notifier
}

func New(store Store, parties PartiesLookup, notifier Notifier) *Usecase {
	return &Usecase{store: store, parties: parties, notifier: notifier}
}

// List returns the conversation of an ad, oldest first. Only its parties may read it.
func (u *Usecase) List(ctx context.Context, adID, userID string) ([]Message, error) {
	if _, err := u.authorize(ctx, adID, userID); err != nil {
		return nil, err
	}
	return u.store.ListByAd(ctx, adID)
}

func (u *Usecase) Send(ctx context.Context, adID, senderID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxBodyRunes {
		return nil, ErrInvalidInput
	}
	p, err := u.authorize(ctx, adID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := u.store.Create(ctx, adID, senderID, body)
	if err != nil {
		return nil, err
	}

	to := p.Counterparty
	if senderID == p.Counterparty {
		to = p.OwnerID
	}
	if u.notifier != nil && to != "" {
		if err := u.notifier.Notify(ctx, to, "chat.message", "Pesan baru", preview(body), adID); err != nil {
			slog.WarnContext(ctx, "notify failed", "ad_id", adID, "user_id", to, "err", err)
		}
	}
	return msg, nil
}

func (u *Usecase) authorize(ctx context.Context, adID, userID string) (*listing.Parties, error) {
	if adID == "" {
		return nil, ErrInvalidInput
	}
	p, err := u.parties.Parties(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(userID) || p.Counterparty == "" {
		return nil, listing.ErrForbidden
	}
	return p, nil
}

func preview(s string) string {
	const n = 80
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
