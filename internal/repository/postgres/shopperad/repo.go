package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShopperAdRow struct {
	ID               string
	UserID           string
	ProductURL       string
	ProductName      string
	ProductImage     *string
	ProductPrice     string
	ProductCurrency  string
	ProductWeight    string
	Quantity         int
	TotalPriceIDR    string
	TotalWeight      string
	CommissionIDR    string
	CommissionNative string
	CommissionCurr   string
	ShipCity         string
	ShipCountry      string
	ShipFullAddress  string
	LocalCourier     *string
	Notes            *string
	Status           string
	SelectedTraveler *string
	TrackingNumber   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TransitionRow is a status compare-and-swap; From is the status the row must still have.
type TransitionRow struct {
	From           string
	FromTraveler   *string
	To             string
	SetTraveler    *string
	ClearTraveler  bool
	TrackingNumber *string
}

type ShopperAdRepo struct {
	db *pgxpool.Pool
}

func NewShopperAdRepo(db *pgxpool.Pool) *ShopperAdRepo {
	return &ShopperAdRepo{db: db}
}

func (r *ShopperAdRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.BeginTx(ctx, pgx.TxOptions{})
}

const shopperAdColumns = `
  id::text, user_id::text, product_url, product_name, product_image,
  product_price::text, product_currency, product_weight::text, quantity,
  total_price_idr::text, total_weight::text,
  commission_idr::text, commission_native::text, commission_currency,
  ship_city, ship_country, ship_full_address, local_courier, notes,
  status, selected_traveler_id::text, tracking_number, created_at, updated_at`

func scanShopperAd(row pgx.Row) (*ShopperAdRow, error) {
	var out ShopperAdRow
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.ProductURL,
		&out.ProductName,
		&out.ProductImage,
		&out.ProductPrice,
		&out.ProductCurrency,
		&out.ProductWeight,
		&out.Quantity,
		&out.TotalPriceIDR,
		&out.TotalWeight,
		&out.CommissionIDR,
		&out.CommissionNative,
		&out.CommissionCurr,
		&out.ShipCity,
		&out.ShipCountry,
		&out.ShipFullAddress,
		&out.LocalCourier,
		&out.Notes,
		&out.Status,
		&out.SelectedTraveler,
		&out.TrackingNumber,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ShopperAdRepo) Create(ctx context.Context, in ShopperAdRow) (*ShopperAdRow, error) {
	q := `
INSERT INTO shopper_ads (
  user_id, product_url, product_name, product_image,
  product_price, product_currency, product_weight, quantity,
  total_price_idr, total_weight, commission_idr, commission_native, commission_currency,
  ship_city, ship_country, ship_full_address, local_courier, notes
)
VALUES (
  $1::uuid, $2, $3, $4,
  $5::numeric, $6, $7::numeric, $8,
  $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13,
  $14, $15, $16, $17, $18
)
RETURNING` + shopperAdColumns + `;`

	return scanShopperAd(r.db.QueryRow(ctx, q,
		in.UserID,
		in.ProductURL,
		in.ProductName,
		in.ProductImage,
		in.ProductPrice,
		in.ProductCurrency,
		in.ProductWeight,
		in.Quantity,
		in.TotalPriceIDR,
		in.TotalWeight,
		in.CommissionIDR,
		in.CommissionNative,
		in.CommissionCurr,
		in.ShipCity,
		in.ShipCountry,
		in.ShipFullAddress,
		in.LocalCourier,
		in.Notes,
	))
}

func (r *ShopperAdRepo) GetByID(ctx context.Context, id string) (*ShopperAdRow, error) {
	q := `SELECT` + shopperAdColumns + `
FROM shopper_ads
WHERE id = $1::uuid
LIMIT 1;`
	return scanShopperAd(r.db.QueryRow(ctx, q, id))
}

// List filters on any non-empty argument.
func (r *ShopperAdRepo) List(ctx context.Context, status, ownerID, travelerID string) ([]ShopperAdRow, error) {
	q := `SELECT` + shopperAdColumns + `
FROM shopper_ads
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR user_id::text = $2)
  AND ($3 = '' OR selected_traveler_id::text = $3)
ORDER BY created_at DESC;`
	return r.query(ctx, q, status, ownerID, travelerID)
}

func (r *ShopperAdRepo) ListMine(ctx context.Context, userID string) ([]ShopperAdRow, error) {
	q := `SELECT` + shopperAdColumns + `
FROM shopper_ads
WHERE user_id = $1::uuid OR selected_traveler_id = $1::uuid
ORDER BY updated_at DESC;`
	return r.query(ctx, q, userID)
}

func (r *ShopperAdRepo) query(ctx context.Context, q string, args ...any) ([]ShopperAdRow, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ShopperAdRow, 0, 32)
	for rows.Next() {
		sa, err := scanShopperAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sa)
	}
	return out, rows.Err()
}

// Update rewrites the editable columns while the row is still in expectedStatus.
func (r *ShopperAdRepo) Update(ctx context.Context, id, expectedStatus string, in ShopperAdRow) (*ShopperAdRow, error) {
	q := `
UPDATE shopper_ads
SET
  product_name      = $3,
  quantity          = $4,
  total_price_idr   = $5::numeric,
  total_weight      = $6::numeric,
  commission_idr    = $7::numeric,
  commission_native = $8::numeric,
  ship_city         = $9,
  ship_country      = $10,
  ship_full_address = $11,
  local_courier     = $12,
  notes             = $13,
  updated_at = now()
WHERE id = $1::uuid AND status = $2
RETURNING` + shopperAdColumns + `;`

	return scanShopperAd(r.db.QueryRow(ctx, q,
		id,
		expectedStatus,
		in.ProductName,
		in.Quantity,
		in.TotalPriceIDR,
		in.TotalWeight,
		in.CommissionIDR,
		in.CommissionNative,
		in.ShipCity,
		in.ShipCountry,
		in.ShipFullAddress,
		in.LocalCourier,
		in.Notes,
	))
}

// TransitionTx returns pgx.ErrNoRows when the row left t.From or changed traveler in the meantime.
// Clearing the traveler also drops the tracking number of the abandoned shipment.
func (r *ShopperAdRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id string, t TransitionRow) error {
	const q = `
UPDATE shopper_ads
SET
  status = $3,
  selected_traveler_id = CASE
    WHEN $5 THEN NULL
    WHEN $4::uuid IS NOT NULL THEN $4::uuid
    ELSE selected_traveler_id
  END,
  tracking_number = CASE
    WHEN $5 THEN NULL
    ELSE COALESCE($6, tracking_number)
  END,
  updated_at = now()
WHERE id = $1::uuid
  AND status = $2
  AND selected_traveler_id IS NOT DISTINCT FROM $7::uuid
RETURNING id::text;
`
	var got string
	return tx.QueryRow(ctx, q, id, t.From, t.To, t.SetTraveler, t.ClearTraveler, t.TrackingNumber, t.FromTraveler).Scan(&got)
}

func (r *ShopperAdRepo) InsertRefundTx(ctx context.Context, tx pgx.Tx, shopperAdID, userID, amountIDR string) error {
	const q = `
INSERT INTO refunds (shopper_ad_id, user_id, amount_idr)
VALUES ($1::uuid, $2::uuid, $3::numeric);
`
	_, err := tx.Exec(ctx, q, shopperAdID, userID, amountIDR)
	return err
}

func (r *ShopperAdRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shopper_ads WHERE id = $1::uuid);`, id).Scan(&ok)
	return ok, err
}

// RefundTotal sums the refunds recorded for a shopper ad.
func (r *ShopperAdRepo) RefundTotal(ctx context.Context, shopperAdID string) (string, error) {
	var total string
	err := r.db.QueryRow(ctx, `
SELECT COALESCE(SUM(amount_idr), 0)::text
FROM refunds
WHERE shopper_ad_id = $1::uuid;`, shopperAdID).Scan(&total)
	return total, err
}
