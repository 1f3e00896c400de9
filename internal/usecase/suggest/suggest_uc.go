package suggest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abyuwono/bagasi/internal/cache"
)

const (
	minQueryRunes = 2
	maxResults    = 10
	cacheTTL      = 10 * time.Minute
)

type Suggestion struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type Store interface {
	// Cities returns distinct departure and arrival cities starting with prefix, most listed first.
	Cities(ctx context.Context, prefix string, limit int) ([]Suggestion, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Usecase struct {
	store Store
	cache Cache
}

// New accepts a nil cache.
func New(store Store, c Cache) *Usecase {
	return &Usecase{store: store, cache: c}
}

func (u *Usecase) Suggest(ctx context.Context, q string) ([]Suggestion, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) < minQueryRunes {
		return []Suggestion{}, nil
	}

	key := "suggest:" + q
	if u.cache != nil {
		var hit []Suggestion
		err := u.cache.Get(ctx, key, &hit)
		if err == nil {
			return hit, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.WarnContext(ctx, "suggestion cache read failed", "err", err)
		}
	}

	out, err := u.store.Cities(ctx, q, maxResults)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Suggestion{}
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, out, cacheTTL); err != nil {
			slog.WarnContext(ctx, "suggestion cache write failed", "err", err)
		}
	}
	return out, nil
}
