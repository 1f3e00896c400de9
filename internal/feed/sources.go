package feed

import (
	"context"
	"encoding/json"
	"io"

	"github.com/abyuwono/bagasi/internal/client"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

type ChatAPI interface {
	Messages(ctx context.Context, adID string) ([]chatuc.Message, error)
}

type NotificationAPI interface {
	UnreadCount(ctx context.Context) (int, error)
}

type TrackingAPI interface {
	Tracking(ctx context.Context, adID string) (*trackinguc.Tracking, error)
}

type PaymentAPI interface {
	PaymentStatus(ctx context.Context, orderID string) (*payuc.StatusView, error)
}

type Streamer interface {
	Stream(ctx context.Context, path string) (io.ReadCloser, error)
}

func Chat(api ChatAPI, adID string) Source[[]chatuc.Message] {
	return Poll[[]chatuc.Message]{
		Name:     "chat",
		Interval: ChatInterval,
		Fetch:    func(ctx context.Context) ([]chatuc.Message, error) { return api.Messages(ctx, adID) },
	}
}

func UnreadCount(api NotificationAPI) Source[int] {
	return Poll[int]{Name: "notifications", Interval: NotificationInterval, Fetch: api.UnreadCount}
}

// Tracking stops once the shopper confirmed receipt or the ad was cancelled.
func Tracking(api TrackingAPI, adID string) Source[*trackinguc.Tracking] {
	return Poll[*trackinguc.Tracking]{
		Name:     "tracking",
		Interval: TrackingInterval,
		Fetch:    func(ctx context.Context) (*trackinguc.Tracking, error) { return api.Tracking(ctx, adID) },
		Terminal: func(t *trackinguc.Tracking) bool {
			return t.Status == listing.StatusCompleted || t.Status == listing.StatusCancelled
		},
	}
}

func settled(v *payuc.StatusView) bool { return v.Status.Terminal() }

func PaymentPoll(api PaymentAPI, orderID string) Source[*payuc.StatusView] {
	return Poll[*payuc.StatusView]{
		Name:     "payment",
		Interval: PaymentInterval,
		Fetch:    func(ctx context.Context) (*payuc.StatusView, error) { return api.PaymentStatus(ctx, orderID) },
		Terminal: settled,
	}
}

func PaymentStream(api Streamer, orderID string) Source[*payuc.StatusView] {
	path := client.PaymentStreamPath(orderID)
	return SSE[*payuc.StatusView]{
		Name:  "payment",
		Event: "status",
		Open:  func(ctx context.Context) (io.ReadCloser, error) { return api.Stream(ctx, path) },
		Decode: func(data []byte) (*payuc.StatusView, error) {
			var v payuc.StatusView
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
		Terminal: settled,
	}
}
