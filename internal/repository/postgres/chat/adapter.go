package postgres

import (
	"context"

	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
)

type ChatStoreAdapter struct {
	repo *MessageRepo
}

func NewChatStoreAdapter(repo *MessageRepo) *ChatStoreAdapter {
	return &ChatStoreAdapter{repo: repo}
}

func (a *ChatStoreAdapter) ListByAd(ctx context.Context, adID string) ([]chatuc.Message, error) {
	rows, err := a.repo.ListByAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	out := make([]chatuc.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, chatuc.Message(r))
	}
	return out, nil
}

func (a *ChatStoreAdapter) Create(ctx context.Context, adID, senderID, body string) (*chatuc.Message, error) {
	row, err := a.repo.Create(ctx, adID, senderID, body)
	if err != nil {
		return nil, err
	}
	m := chatuc.Message(*row)
	return &m, nil
}

// Compile-time check
var _ chatuc.Store = (*ChatStoreAdapter)(nil)
