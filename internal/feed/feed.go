// Package feed delivers changing server state to a screen, either by polling an
// endpoint on a fixed interval or by reading a server-sent-events stream.
// Both stop after a terminal value or when the watching context ends.
package feed

import (
	"context"
	"log/slog"
	"time"
)

const (
	ChatInterval         = 5 * time.Second
	NotificationInterval = 30 * time.Second
	TrackingInterval     = 5 * time.Minute
	PaymentInterval      = 5 * time.Second
)

// Source is consumed the same way whether it polls or streams.
// The channel is closed when the source stops.
type Source[T any] interface {
	Watch(ctx context.Context) <-chan T
}

// Poll fetches immediately and then every Interval.
type Poll[T any] struct {
	Name     string
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	// Terminal, when set, ends the feed after the value is delivered.
	Terminal func(T) bool
}

func (p Poll[T]) Watch(ctx context.Context) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)

		tick := time.NewTicker(p.Interval)
		defer tick.Stop()

		for {
			v, err := p.Fetch(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				slog.WarnContext(ctx, "feed fetch failed", "feed", p.Name, "err", err)
			default:
				latest(out, v)
				if p.Terminal != nil && p.Terminal(v) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
		}
	}()
	return out
}

// latest replaces an unread value so a slow reader only sees the newest state.
func latest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
