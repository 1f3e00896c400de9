package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRow struct {
	ID          string
	OrderID     string
	UserID      string
	Purpose     string
	Provider    string
	ProviderRef *string
	Amount      string
	Currency    string
	Status      string
	ReferenceID *string
	Payload     []byte
	SettledAt   *time.Time
	CreatedAt   time.Time
}

type PaymentRepo struct {
	db *pgxpool.Pool
}

func NewPaymentRepo(db *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.BeginTx(ctx, pgx.TxOptions{})
}

const paymentColumns = `
  id::text,
  order_id,
  user_id::text,
  purpose,
  provider,
  provider_ref,
  amount::text,
  currency,
  status,
  reference_id::text,
  payload,
  settled_at,
  created_at`

func scanPayment(row pgx.Row) (*PaymentRow, error) {
	var out PaymentRow
	if err := row.Scan(
		&out.ID,
		&out.OrderID,
		&out.UserID,
		&out.Purpose,
		&out.Provider,
		&out.ProviderRef,
		&out.Amount,
		&out.Currency,
		&out.Status,
		&out.ReferenceID,
		&out.Payload,
		&out.SettledAt,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PaymentRepo) Create(ctx context.Context, in PaymentRow) (*PaymentRow, error) {
	q := `
INSERT INTO payments (
  order_id, user_id, purpose, provider, amount, currency, status, reference_id, payload
)
VALUES (
  $1, $2::uuid, $3, $4, $5::numeric, $6, COALESCE(NULLIF($7, ''), 'pending'), $8::uuid, $9::jsonb
)
RETURNING` + paymentColumns + `;`

	var payload any
	if len(in.Payload) > 0 {
		payload = string(in.Payload)
	}
	return scanPayment(r.db.QueryRow(ctx, q,
		in.OrderID,
		in.UserID,
		in.Purpose,
		in.Provider,
		in.Amount,
		in.Currency,
		in.Status,
		in.ReferenceID,
		payload,
	))
}

func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*PaymentRow, error) {
	q := `SELECT` + paymentColumns + `
FROM payments
WHERE order_id = $1
LIMIT 1;`
	return scanPayment(r.db.QueryRow(ctx, q, orderID))
}

func (r *PaymentRepo) GetByProviderRef(ctx context.Context, provider, ref string) (*PaymentRow, error) {
	q := `SELECT` + paymentColumns + `
FROM payments
WHERE provider = $1 AND provider_ref = $2
LIMIT 1;`
	return scanPayment(r.db.QueryRow(ctx, q, provider, ref))
}

func (r *PaymentRepo) SetProviderRef(ctx context.Context, orderID, ref string) error {
	return r.exec(ctx, `
UPDATE payments SET provider_ref = $2, updated_at = now()
WHERE order_id = $1;`, orderID, ref)
}

func (r *PaymentRepo) SetReference(ctx context.Context, orderID, referenceID string) error {
	return r.exec(ctx, `
UPDATE payments SET reference_id = $2::uuid, updated_at = now()
WHERE order_id = $1;`, orderID, referenceID)
}

func (r *PaymentRepo) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// lockPayment serializes concurrent settlements of one order (webhook vs polling).
func lockPayment(ctx context.Context, tx pgx.Tx, orderID string) (*PaymentRow, error) {
	q := `SELECT` + paymentColumns + `
FROM payments
WHERE order_id = $1
FOR UPDATE;`
	return scanPayment(tx.QueryRow(ctx, q, orderID))
}

// Settle moves a payment to status when settles allows it from the locked row's status.
// changed is false when another caller already settled it.
func (r *PaymentRepo) Settle(ctx context.Context, orderID, status string, settles func(cur string) bool) (*PaymentRow, bool, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := lockPayment(ctx, tx, orderID)
	if err != nil {
		return nil, false, err
	}
	if !settles(cur.Status) {
		return cur, false, nil
	}

	q := `
UPDATE payments
SET status = $2, settled_at = now(), updated_at = now()
WHERE order_id = $1
RETURNING` + paymentColumns + `;`
	out, err := scanPayment(tx.QueryRow(ctx, q, orderID, status))
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
