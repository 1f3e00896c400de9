package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRow struct {
	ID           string
	AdID         string
	AuthorID     string
	AuthorName   string
	Rating       int
	Comment      string
	Status       string
	ReportReason *string
	CreatedAt    time.Time
}

type ReviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepo(db *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewSelect = `
SELECT r.id::text, r.ad_id::text, r.author_id::text, u.name, r.rating, r.comment,
       r.status, r.report_reason, r.created_at
FROM reviews r
JOIN users u ON u.id = r.author_id`

func scanReview(row pgx.Row) (*ReviewRow, error) {
	var out ReviewRow
	if err := row.Scan(
		&out.ID,
		&out.AdID,
		&out.AuthorID,
		&out.AuthorName,
		&out.Rating,
		&out.Comment,
		&out.Status,
		&out.ReportReason,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReviewRepo) query(ctx context.Context, q string, args ...any) ([]ReviewRow, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReviewRow, 0, 16)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) ListByAd(ctx context.Context, adID string) ([]ReviewRow, error) {
	return r.query(ctx, reviewSelect+`
WHERE r.ad_id = $1::uuid
ORDER BY r.created_at DESC;`, adID)
}

func (r *ReviewRepo) ListByStatus(ctx context.Context, status string) ([]ReviewRow, error) {
	return r.query(ctx, reviewSelect+`
WHERE r.status = $1
ORDER BY r.created_at ASC;`, status)
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*ReviewRow, error) {
	return scanReview(r.db.QueryRow(ctx, reviewSelect+`
WHERE r.id = $1::uuid
LIMIT 1;`, id))
}

func (r *ReviewRepo) Create(ctx context.Context, adID, authorID string, rating int, comment string) (string, error) {
	const q = `
INSERT INTO reviews (ad_id, author_id, rating, comment)
VALUES ($1::uuid, $2::uuid, $3, $4)
RETURNING id::text;
`
	var id string
	err := r.db.QueryRow(ctx, q, adID, authorID, rating, comment).Scan(&id)
	return id, err
}

func (r *ReviewRepo) SetStatus(ctx context.Context, id, status string, reporterID, reason *string) error {
	const q = `
UPDATE reviews
SET status = $2, reported_by = $3::uuid, report_reason = $4
WHERE id = $1::uuid;
`
	tag, err := r.db.Exec(ctx, q, id, status, reporterID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
