package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/usecase/shopperad"
)

type fakeAds struct {
	ad *shopperad.ShopperAd
}

func (f *fakeAds) Get(_ context.Context, id string, _ shopperad.Viewer) (*shopperad.ShopperAd, error) {
	if f.ad == nil || f.ad.ID != id {
		return nil, shopperad.ErrNotFound
	}
	cp := *f.ad
	return &cp, nil
}

func (f *fakeAds) Ship(_ context.Context, id string, viewer shopperad.Viewer, number string) (*shopperad.ShopperAd, error) {
	if f.ad.SelectedTravelerID() != viewer.ID {
		return nil, listing.ErrForbidden
	}
	f.ad.Status = listing.StatusShipped
	f.ad.TrackingNumber = &number
	cp := *f.ad
	return &cp, nil
}

func TestAttachAndGet(t *testing.T) {
	traveler := "trav"
	courier := "JNE"
	ads := &fakeAds{ad: &shopperad.ShopperAd{ID: "sa-1", UserID: "shop", Status: listing.StatusAccepted, SelectedTraveler: &traveler, LocalCourier: &courier}}
	uc := New(ads)
	ctx := context.Background()

	_, err := uc.Get(ctx, "sa-1", shopperad.Viewer{ID: "shop"})
	require.ErrorIs(t, err, ErrNoTracking)

	tr, err := uc.AttachNumber(ctx, "sa-1", shopperad.Viewer{ID: traveler}, "CGK 123")
	require.NoError(t, err)
	require.Equal(t, listing.StatusShipped, tr.Status)
	require.Equal(t, "https://www.jne.co.id/tracking-package?awb=CGK+123", tr.URL)

	u, err := uc.URL(ctx, "sa-1", shopperad.Viewer{ID: "shop"})
	require.NoError(t, err)
	require.Equal(t, tr.URL, u)

	_, err = uc.Get(ctx, "sa-1", shopperad.Viewer{ID: "someone"})
	require.ErrorIs(t, err, listing.ErrForbidden)
}

func TestCourierURL_Fallback(t *testing.T) {
	require.Equal(t, "https://cekresi.com/?noresi=AB1", CourierURL("", "AB1"))
	require.Equal(t, "https://www.sicepat.com/checkAwb?awb=X9", CourierURL(" SiCepat ", "X9"))
}
