package search

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"

	"github.com/abyuwono/bagasi/internal/localstore"
)

const HistoryLimit = 5

// History is the persisted list of recent searches, most recent first.
type History struct {
	store localstore.Store
}

func NewHistory(store localstore.Store) *History {
	return &History{store: store}
}

func (h *History) List(ctx context.Context) ([]string, error) {
	raw, ok, err := h.store.Get(ctx, localstore.KeyRecentSearch)
	if err != nil || !ok {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// unreadable history is dropped rather than blocking search
		return nil, nil
	}
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out, nil
}

// Add moves q to the front, replacing an earlier entry that differs only in case.
func (h *History) Add(ctx context.Context, q string) ([]string, error) {
	q = strings.TrimSpace(q)
	cur, err := h.List(ctx)
	if err != nil || q == "" {
		return cur, err
	}

	fold := cases.Fold()
	key := fold.String(q)
	next := make([]string, 0, HistoryLimit)
	next = append(next, q)
	for _, s := range cur {
		if len(next) == HistoryLimit {
			break
		}
		if fold.String(s) != key {
			next = append(next, s)
		}
	}

	b, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := h.store.Set(ctx, localstore.KeyRecentSearch, string(b)); err != nil {
		return nil, err
	}
	return next, nil
}

func (h *History) Clear(ctx context.Context) error {
	return h.store.Remove(ctx, localstore.KeyRecentSearch)
}
