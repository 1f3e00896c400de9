package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PartiesRow struct {
	Kind         string
	Status       string
	OwnerID      string
	Counterparty *string
}

type CityRow struct {
	City  string
	Count int
}

// ListingRepo reads across both ad tables; chat and reviews key on either kind of ad id.
type ListingRepo struct {
	db *pgxpool.Pool
}

func NewListingRepo(db *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{db: db}
}

func (r *ListingRepo) Parties(ctx context.Context, adID string) (*PartiesRow, error) {
	const q = `
SELECT 'travel', status, user_id::text, booked_by::text
FROM ads
WHERE id = $1::uuid
UNION ALL
SELECT 'shopper', status, user_id::text, selected_traveler_id::text
FROM shopper_ads
WHERE id = $1::uuid
LIMIT 1;
`
	var out PartiesRow
	if err := r.db.QueryRow(ctx, q, adID).Scan(&out.Kind, &out.Status, &out.OwnerID, &out.Counterparty); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cities counts departure and arrival cities of travel ads starting with prefix.
func (r *ListingRepo) Cities(ctx context.Context, prefix string, limit int) ([]CityRow, error) {
	const q = `
SELECT city, COUNT(*) AS n
FROM (
  SELECT departure_city AS city FROM ads
  UNION ALL
  SELECT arrival_city AS city FROM ads
) c
WHERE lower(city) LIKE lower($1) || '%'
GROUP BY city
ORDER BY n DESC, city ASC
LIMIT $2;
`
	rows, err := r.db.Query(ctx, q, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CityRow, 0, limit)
	for rows.Next() {
		var c CityRow
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
