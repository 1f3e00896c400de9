package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	testutil "github.com/abyuwono/bagasi/internal/repository/postgres/testutil"
)

func TestParties_BothKinds(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	traveler := testutil.MustInsertUser(t, db, "Rina", "traveler")
	shopper := testutil.MustInsertUser(t, db, "Budi", "shopper")
	dep := time.Now().UTC().AddDate(0, 0, 7)
	adID := testutil.MustInsertAd(t, db, traveler, "Sydney", "Jakarta", dep, dep)
	saID := testutil.MustInsertShopperAd(t, db, shopper, "accepted", &traveler)

	lookup := NewPartiesAdapter(NewListingRepo(db))

	p, err := lookup.Parties(ctx, adID)
	require.NoError(t, err)
	require.Equal(t, listing.KindTravel, p.Kind)
	require.Equal(t, traveler, p.OwnerID)
	require.Empty(t, p.Counterparty)

	p, err = lookup.Parties(ctx, saID)
	require.NoError(t, err)
	require.Equal(t, listing.KindShopper, p.Kind)
	require.Equal(t, traveler, p.Counterparty)
	require.True(t, p.Includes(shopper))

	_, err = lookup.Parties(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, listing.ErrNotFound)
}

func TestCities_PrefixAndCount(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	traveler := testutil.MustInsertUser(t, db, "Rina", "traveler")
	dep := time.Now().UTC().AddDate(0, 0, 7)
	testutil.MustInsertAd(t, db, traveler, "Sydney", "Jakarta", dep, dep)
	testutil.MustInsertAd(t, db, traveler, "Jakarta", "Sydney", dep, dep)
	testutil.MustInsertAd(t, db, traveler, "Jayapura", "Perth", dep, dep)

	store := NewCityStoreAdapter(NewListingRepo(db))

	got, err := store.Cities(ctx, "ja", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Jakarta", got[0].City)
	require.Equal(t, 2, got[0].Count)
}
