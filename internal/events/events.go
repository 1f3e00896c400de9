package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Publisher is the interface used by usecases to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

type ListingEvent struct {
	Type      string    `json:"type"` // e.g. shopper_ad.accept_traveler
	AdID      string    `json:"adId"`
	AdKind    string    `json:"adKind"`
	ActorID   string    `json:"actorId"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Traveler  string    `json:"travelerId,omitempty"`
	OccuredAt time.Time `json:"occuredAt"`
}

type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error { return nil }

// Multi fans out to every publisher; a failing publisher does not stop the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, key string, value any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// PublishBestEffort logs instead of failing the caller; event delivery never blocks a state change.
func PublishBestEffort(ctx context.Context, p Publisher, key string, value any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, value); err != nil {
		slog.WarnContext(ctx, "event publish failed", "key", key, "err", err)
	}
}
