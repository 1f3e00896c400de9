package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func MustInsertUser(t *testing.T, db *pgxpool.Pool, name, role string) string {
	t.Helper()

	email := fmt.Sprintf("%d.%s@test.local", time.Now().UnixNano(), role)

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (name, email, password_hash, role, phone)
		VALUES ($1, $2, 'x', $3, '+620000000')
		RETURNING id::text
	`, name, email, role).Scan(&id)

	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func MustInsertAd(t *testing.T, db *pgxpool.Pool, ownerID, from, to string, departure, expires time.Time) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO ads (user_id, departure_city, arrival_city, departure_date, expires_at,
		                 available_weight, price_per_kg, currency)
		VALUES ($1::uuid, $2, $3, $4, $5, 5, 20, 'AUD')
		RETURNING id::text
	`, ownerID, from, to, departure, expires).Scan(&id)

	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func MustInsertShopperAd(t *testing.T, db *pgxpool.Pool, ownerID, status string, travelerID *string) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO shopper_ads (
		  user_id, product_url, product_name, product_price, product_currency, product_weight, quantity,
		  total_price_idr, total_weight, commission_idr, commission_native, commission_currency,
		  ship_city, ship_country, ship_full_address, status, selected_traveler_id
		)
		VALUES ($1::uuid, 'https://shop.test/p/1', 'Tim Tam', 5, 'AUD', 0.2, 10,
		        500000, 2, 50000, 5, 'AUD',
		        'Bandung', 'Indonesia', 'Jl. Dago 1', $2, $3::uuid)
		RETURNING id::text
	`, ownerID, status, travelerID).Scan(&id)

	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}
