package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdRow struct {
	ID                  string
	UserID              string
	DepartureCity       string
	ArrivalCity         string
	DepartureDate       time.Time
	ExpiresAt           time.Time
	AvailableWeight     string
	PricePerKg          string
	Currency            string
	Status              string
	CustomDisplayName   *string
	CustomRating        *string
	CustomContactNumber *string
	Notes               *string
	BookedBy            *string
	BookedWeight        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	OwnerName   string
	OwnerRating *string
	OwnerPhone  *string
}

type AdRepo struct {
	db *pgxpool.Pool
}

func NewAdRepo(db *pgxpool.Pool) *AdRepo {
	return &AdRepo{db: db}
}

const adSelect = `
SELECT
  a.id::text, a.user_id::text, a.departure_city, a.arrival_city, a.departure_date, a.expires_at,
  a.available_weight::text, a.price_per_kg::text, a.currency, a.status,
  a.custom_display_name, a.custom_rating::text, a.custom_contact_number, a.notes,
  a.booked_by::text, a.booked_weight::text, a.created_at, a.updated_at,
  u.name, u.rating::text, u.phone
FROM ads a
JOIN users u ON u.id = a.user_id`

func scanAd(row pgx.Row) (*AdRow, error) {
	var out AdRow
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.DepartureCity,
		&out.ArrivalCity,
		&out.DepartureDate,
		&out.ExpiresAt,
		&out.AvailableWeight,
		&out.PricePerKg,
		&out.Currency,
		&out.Status,
		&out.CustomDisplayName,
		&out.CustomRating,
		&out.CustomContactNumber,
		&out.Notes,
		&out.BookedBy,
		&out.BookedWeight,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.OwnerName,
		&out.OwnerRating,
		&out.OwnerPhone,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AdRepo) Create(ctx context.Context, in AdRow) (string, error) {
	const q = `
INSERT INTO ads (
  user_id, departure_city, arrival_city, departure_date, expires_at,
  available_weight, price_per_kg, currency,
  custom_display_name, custom_rating, custom_contact_number, notes
)
VALUES (
  $1::uuid, $2, $3, $4, $5,
  $6::numeric, $7::numeric, $8,
  $9, $10::numeric, $11, $12
)
RETURNING id::text;
`
	var id string
	err := r.db.QueryRow(ctx, q,
		in.UserID,
		in.DepartureCity,
		in.ArrivalCity,
		in.DepartureDate,
		in.ExpiresAt,
		in.AvailableWeight,
		in.PricePerKg,
		in.Currency,
		in.CustomDisplayName,
		in.CustomRating,
		in.CustomContactNumber,
		in.Notes,
	).Scan(&id)
	return id, err
}

func (r *AdRepo) GetByID(ctx context.Context, id string) (*AdRow, error) {
	return scanAd(r.db.QueryRow(ctx, adSelect+`
WHERE a.id = $1::uuid
LIMIT 1;`, id))
}

// List filters cities case-insensitively; an empty filter matches everything.
func (r *AdRepo) List(ctx context.Context, departure, arrival string) ([]AdRow, error) {
	rows, err := r.db.Query(ctx, adSelect+`
WHERE ($1 = '' OR a.departure_city ILIKE '%' || $1 || '%')
  AND ($2 = '' OR a.arrival_city ILIKE '%' || $2 || '%')
ORDER BY a.departure_date ASC, a.created_at DESC;`, departure, arrival)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AdRow, 0, 32)
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AdRepo) Update(ctx context.Context, id string, in AdRow) error {
	const q = `
UPDATE ads
SET
  available_weight      = COALESCE($2::numeric, available_weight),
  price_per_kg          = COALESCE($3::numeric, price_per_kg),
  custom_display_name   = COALESCE($4, custom_display_name),
  custom_rating         = COALESCE($5::numeric, custom_rating),
  custom_contact_number = COALESCE($6, custom_contact_number),
  notes                 = COALESCE($7, notes),
  updated_at = now()
WHERE id = $1::uuid AND status = 'active';
`
	tag, err := r.db.Exec(ctx, q,
		id,
		nullIfEmpty(in.AvailableWeight),
		nullIfEmpty(in.PricePerKg),
		in.CustomDisplayName,
		in.CustomRating,
		in.CustomContactNumber,
		in.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Book marks an active ad booked. pgx.ErrNoRows means it was not active anymore.
func (r *AdRepo) Book(ctx context.Context, id, shopperID, weight string) error {
	const q = `
UPDATE ads
SET status = 'booked', booked_by = $2::uuid, booked_weight = $3::numeric, updated_at = now()
WHERE id = $1::uuid
  AND status = 'active'
  AND expires_at >= CURRENT_DATE
  AND available_weight >= $3::numeric;
`
	tag, err := r.db.Exec(ctx, q, id, shopperID, weight)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AdRepo) ExpireDue(ctx context.Context, today time.Time) (int64, error) {
	const q = `
UPDATE ads
SET status = 'expired', updated_at = now()
WHERE status = 'active' AND expires_at < $1::date;
`
	tag, err := r.db.Exec(ctx, q, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
