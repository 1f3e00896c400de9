package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRow struct {
	ID        string
	UserID    string
	Kind      string
	Title     string
	Body      string
	AdID      *string
	IsRead    bool
	CreatedAt time.Time
}

type SubscriptionRow struct {
	Endpoint string
	UserID   string
	P256dh   string
	Auth     string
}

type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `
  id::text, user_id::text, kind, title, body, ad_id::text, is_read, created_at`

func scanNotification(row pgx.Row) (*NotificationRow, error) {
	var out NotificationRow
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.Kind,
		&out.Title,
		&out.Body,
		&out.AdID,
		&out.IsRead,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *NotificationRepo) Create(ctx context.Context, in NotificationRow) (*NotificationRow, error) {
	q := `
INSERT INTO notifications (user_id, kind, title, body, ad_id)
VALUES ($1::uuid, $2, $3, $4, $5::uuid)
RETURNING` + notificationColumns + `;`
	return scanNotification(r.db.QueryRow(ctx, q, in.UserID, in.Kind, in.Title, in.Body, in.AdID))
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]NotificationRow, error) {
	q := `SELECT` + notificationColumns + `
FROM notifications
WHERE user_id = $1::uuid
ORDER BY created_at DESC
LIMIT $2;`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]NotificationRow, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*)
FROM notifications
WHERE user_id = $1::uuid AND is_read = false;`, userID).Scan(&n)
	return n, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE notifications SET is_read = true
WHERE user_id = $1::uuid AND is_read = false;`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpsertSubscription moves an endpoint to userID when the browser re-subscribes.
func (r *NotificationRepo) UpsertSubscription(ctx context.Context, in SubscriptionRow) error {
	const q = `
INSERT INTO push_subscriptions (endpoint, user_id, p256dh, auth)
VALUES ($1, $2::uuid, $3, $4)
ON CONFLICT (endpoint) DO UPDATE
SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth;
`
	_, err := r.db.Exec(ctx, q, in.Endpoint, in.UserID, in.P256dh, in.Auth)
	return err
}

func (r *NotificationRepo) Subscriptions(ctx context.Context, userID string) ([]SubscriptionRow, error) {
	rows, err := r.db.Query(ctx, `
SELECT endpoint, user_id::text, p256dh, auth
FROM push_subscriptions
WHERE user_id = $1::uuid;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubscriptionRow
	for rows.Next() {
		var s SubscriptionRow
		if err := rows.Scan(&s.Endpoint, &s.UserID, &s.P256dh, &s.Auth); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
