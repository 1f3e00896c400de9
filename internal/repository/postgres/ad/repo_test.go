package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	testutil "github.com/abyuwono/bagasi/internal/repository/postgres/testutil"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
)

func TestAdStore_ListIsCaseInsensitiveAndJoinsOwner(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	owner := testutil.MustInsertUser(t, db, "Rina", "traveler")
	dep := time.Now().UTC().AddDate(0, 0, 10)
	testutil.MustInsertAd(t, db, owner, "Sydney", "Jakarta", dep, dep.AddDate(0, 0, -1))
	testutil.MustInsertAd(t, db, owner, "Melbourne", "Bali", dep, dep.AddDate(0, 0, -1))

	store := NewAdStoreAdapter(NewAdRepo(db))

	got, err := store.List(ctx, aduc.ListFilter{Departure: "syd"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Sydney", got[0].DepartureCity)
	require.Equal(t, "Rina", got[0].OwnerName)
	require.True(t, got[0].AvailableWeight.Equal(decimal.NewFromInt(5)))

	all, err := store.List(ctx, aduc.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAdStore_BookOnlyOnce(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	owner := testutil.MustInsertUser(t, db, "Rina", "traveler")
	s1 := testutil.MustInsertUser(t, db, "Budi", "shopper")
	s2 := testutil.MustInsertUser(t, db, "Sari", "shopper")
	dep := time.Now().UTC().AddDate(0, 0, 10)
	adID := testutil.MustInsertAd(t, db, owner, "Sydney", "Jakarta", dep, dep.AddDate(0, 0, -1))

	store := NewAdStoreAdapter(NewAdRepo(db))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, shopper := range []string{s1, s2} {
		wg.Add(1)
		go func(i int, shopper string) {
			defer wg.Done()
			_, errs[i] = store.Book(ctx, adID, shopper, decimal.NewFromInt(2))
		}(i, shopper)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, aduc.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, conflicts)

	got, err := store.GetByID(ctx, adID)
	require.NoError(t, err)
	require.Equal(t, "booked", string(got.Status))
	require.NotNil(t, got.BookedWeight)
}

func TestAdStore_ExpireDue(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	owner := testutil.MustInsertUser(t, db, "Rina", "traveler")
	today := time.Now().UTC()
	past := testutil.MustInsertAd(t, db, owner, "Perth", "Medan", today.AddDate(0, 0, -1), today.AddDate(0, 0, -3))
	future := testutil.MustInsertAd(t, db, owner, "Perth", "Medan", today.AddDate(0, 0, 5), today.AddDate(0, 0, 4))

	store := NewAdStoreAdapter(NewAdRepo(db))

	n, err := store.ExpireDue(ctx, today)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := store.GetByID(ctx, past)
	require.NoError(t, err)
	require.Equal(t, "expired", string(got.Status))

	got, err = store.GetByID(ctx, future)
	require.NoError(t, err)
	require.Equal(t, "active", string(got.Status))

	_, err = store.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, aduc.ErrNotFound)
}
