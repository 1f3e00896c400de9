package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	testutil "github.com/abyuwono/bagasi/internal/repository/postgres/testutil"
	notifuc "github.com/abyuwono/bagasi/internal/usecase/notification"
)

func TestNotificationStore_UnreadAndMarkRead(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	userID := testutil.MustInsertUser(t, db, "Budi", "shopper")
	store := NewNotificationStoreAdapter(NewNotificationRepo(db))

	for _, title := range []string{"Pesan baru", "Traveler menawarkan bantuan"} {
		_, err := store.Create(ctx, notifuc.Notification{UserID: userID, Kind: "chat.message", Title: title, Body: "x"})
		require.NoError(t, err)
	}

	n, err := store.CountUnread(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	marked, err := store.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	require.EqualValues(t, 2, marked)

	list, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].Read)
}

func TestNotificationStore_SubscriptionUpsert(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()
	testutil.TruncateAll(t, db)

	ctx := context.Background()
	first := testutil.MustInsertUser(t, db, "Budi", "shopper")
	second := testutil.MustInsertUser(t, db, "Sari", "shopper")
	store := NewNotificationStoreAdapter(NewNotificationRepo(db))

	var sub notifuc.PushSubscription
	sub.Endpoint = "https://push.test/abc"
	sub.Keys.P256dh = "p"
	sub.Keys.Auth = "a"

	require.NoError(t, store.SaveSubscription(ctx, first, sub))
	require.NoError(t, store.SaveSubscription(ctx, second, sub))

	got, err := store.Subscriptions(ctx, first)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = store.Subscriptions(ctx, second)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
