package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRow struct {
	ID         string
	AdID       string
	SenderID   string
	SenderName string
	Body       string
	CreatedAt  time.Time
}

type MessageRepo struct {
	db *pgxpool.Pool
}

func NewMessageRepo(db *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) ListByAd(ctx context.Context, adID string) ([]MessageRow, error) {
	const q = `
SELECT m.id::text, m.ad_id::text, m.sender_id::text, u.name, m.body, m.created_at
FROM chat_messages m
JOIN users u ON u.id = m.sender_id
WHERE m.ad_id = $1::uuid
ORDER BY m.created_at ASC;
`
	rows, err := r.db.Query(ctx, q, adID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MessageRow, 0, 32)
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.AdID, &m.SenderID, &m.SenderName, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) Create(ctx context.Context, adID, senderID, body string) (*MessageRow, error) {
	const q = `
WITH ins AS (
  INSERT INTO chat_messages (ad_id, sender_id, body)
  VALUES ($1::uuid, $2::uuid, $3)
  RETURNING id, ad_id, sender_id, body, created_at
)
SELECT ins.id::text, ins.ad_id::text, ins.sender_id::text, u.name, ins.body, ins.created_at
FROM ins
JOIN users u ON u.id = ins.sender_id;
`
	var m MessageRow
	if err := r.db.QueryRow(ctx, q, adID, senderID, body).Scan(
		&m.ID, &m.AdID, &m.SenderID, &m.SenderName, &m.Body, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
