package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

type fakeAPI struct {
	mu      sync.Mutex
	shopper sauc.ShopperAd
	travel  aduc.View

	requests atomic.Int32
	gate     chan struct{}
}

func (f *fakeAPI) Ad(context.Context, string) (*aduc.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.travel
	return &v, nil
}

func (f *fakeAPI) BookAd(_ context.Context, _ string, in aduc.BookInput) (*aduc.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.travel.Status = listing.StatusBooked
	f.travel.BookedWeight = &in.Weight
	v := f.travel
	return &v, nil
}

func (f *fakeAPI) ShopperAd(context.Context, string) (*sauc.ShopperAd, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sa := f.shopper
	return &sa, nil
}

func (f *fakeAPI) UpdateShopperAd(_ context.Context, _ string, in sauc.UpdateInput) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) {
		if in.Quantity != nil {
			sa.Quantity = *in.Quantity
		}
	})
}

func (f *fakeAPI) mutate(fn func(*sauc.ShopperAd)) (*sauc.ShopperAd, error) {
	f.requests.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.shopper)
	sa := f.shopper
	return &sa, nil
}

func (f *fakeAPI) RequestHelp(context.Context, string) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) {
		t := "traveler-1"
		sa.Status = listing.StatusInDiscussion
		sa.SelectedTraveler = &t
	})
}

func (f *fakeAPI) AcceptTraveler(context.Context, string) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) { sa.Status = listing.StatusAccepted })
}

func (f *fakeAPI) RejectTraveler(context.Context, string) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) {
		sa.Status = listing.StatusActive
		sa.SelectedTraveler = nil
	})
}

func (f *fakeAPI) CancelShopperAd(context.Context, string) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) {
		if sa.SelectedTraveler != nil {
			sa.Status = listing.StatusActive
			sa.SelectedTraveler = nil
			return
		}
		sa.Status = listing.StatusCancelled
	})
}

func (f *fakeAPI) CompleteShopperAd(context.Context, string) (*sauc.ShopperAd, error) {
	return f.mutate(func(sa *sauc.ShopperAd) { sa.Status = listing.StatusCompleted })
}

func (f *fakeAPI) AttachTrackingNumber(_ context.Context, adID, number string) (*trackinguc.Tracking, error) {
	_, err := f.mutate(func(sa *sauc.ShopperAd) {
		sa.Status = listing.StatusShipped
		sa.TrackingNumber = &number
	})
	return &trackinguc.Tracking{AdID: adID, Number: number, Status: listing.StatusShipped}, err
}

func strp(s string) *string { return &s }

func shopperAd(status listing.Status, traveler *string) sauc.ShopperAd {
	return sauc.ShopperAd{
		ID:               "sa1",
		UserID:           "shopper-1",
		Status:           status,
		SelectedTraveler: traveler,
		ShippingAddress:  sauc.Address{City: "Jakarta", Country: "Indonesia", FullAddress: "Jl. Sudirman 1"},
	}
}

var (
	owner     = account.Viewer{ID: "shopper-1", Role: account.RoleShopper}
	traveler  = account.Viewer{ID: "traveler-1", Role: account.RoleTraveler}
	other     = account.Viewer{ID: "traveler-2", Role: account.RoleTraveler}
	otherShop = account.Viewer{ID: "shopper-2", Role: account.RoleShopper}
	anonymous = account.Viewer{}
)

func load(t *testing.T, api *fakeAPI, v account.Viewer) *Page {
	t.Helper()
	p, err := Load(context.Background(), api, listing.KindShopper, "sa1", v)
	require.NoError(t, err)
	return p
}

func TestActions(t *testing.T) {
	tests := []struct {
		name   string
		status listing.Status
		sel    *string
		viewer account.Viewer
		want   []Action
	}{
		{"draft owner", listing.StatusDraft, nil, owner, []Action{Pay, Edit}},
		{"active owner", listing.StatusActive, nil, owner, []Action{Cancel, Edit}},
		{"active traveler", listing.StatusActive, nil, other, []Action{RequestHelp}},
		{"active shopper role", listing.StatusActive, nil, otherShop, nil},
		{"active anonymous", listing.StatusActive, nil, anonymous, nil},
		{"discussion owner", listing.StatusInDiscussion, strp("traveler-1"), owner, []Action{AcceptTraveler, RejectTraveler, Cancel, Edit}},
		{"discussion selected", listing.StatusInDiscussion, strp("traveler-1"), traveler, []Action{Cancel}},
		{"discussion other", listing.StatusInDiscussion, strp("traveler-1"), other, nil},
		{"accepted owner", listing.StatusAccepted, strp("traveler-1"), owner, nil},
		{"accepted selected", listing.StatusAccepted, strp("traveler-1"), traveler, []Action{Cancel, AttachTracking}},
		{"shipped owner", listing.StatusShipped, strp("traveler-1"), owner, []Action{Complete}},
		{"shipped selected", listing.StatusShipped, strp("traveler-1"), traveler, []Action{Cancel}},
		{"completed owner", listing.StatusCompleted, strp("traveler-1"), owner, nil},
		{"cancelled owner", listing.StatusCancelled, nil, owner, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{shopper: shopperAd(tt.status, tt.sel)}
			p := load(t, api, tt.viewer)
			assert.ElementsMatch(t, tt.want, p.Actions())
		})
	}
}

func TestRequestHelpSetsSelectedTraveler(t *testing.T) {
	api := &fakeAPI{shopper: shopperAd(listing.StatusActive, nil)}
	p := load(t, api, traveler)

	require.NoError(t, p.Run(context.Background(), RequestHelp))

	sa := p.ShopperAd()
	assert.Equal(t, listing.StatusInDiscussion, sa.Status)
	require.NotNil(t, sa.SelectedTraveler)
	assert.Equal(t, traveler.ID, *sa.SelectedTraveler)
	assert.Equal(t, listing.RelationSelectedTraveler, p.Relation())
}

func TestTravelerCancelRecyclesAd(t *testing.T) {
	api := &fakeAPI{shopper: shopperAd(listing.StatusShipped, strp("traveler-1"))}
	p := load(t, api, traveler)

	require.NoError(t, p.Run(context.Background(), Cancel))
	assert.Equal(t, listing.StatusActive, p.Status())
	assert.Nil(t, p.ShopperAd().SelectedTraveler)
}

func TestUnavailableActionSendsNothing(t *testing.T) {
	api := &fakeAPI{shopper: shopperAd(listing.StatusAccepted, strp("traveler-1"))}
	p := load(t, api, traveler)

	err := p.Run(context.Background(), Complete)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, api.requests.Load())
}

func TestAttachTrackingRefreshes(t *testing.T) {
	api := &fakeAPI{shopper: shopperAd(listing.StatusAccepted, strp("traveler-1"))}
	p := load(t, api, traveler)

	require.NoError(t, p.AttachTracking(context.Background(), "JNE123"))
	assert.Equal(t, listing.StatusShipped, p.Status())
	assert.Equal(t, "JNE123", *p.ShopperAd().TrackingNumber)
}

func TestVisibleAddress(t *testing.T) {
	tests := []struct {
		name   string
		status listing.Status
		viewer account.Viewer
		full   bool
	}{
		{"accepted selected traveler", listing.StatusAccepted, traveler, true},
		{"accepted owner", listing.StatusAccepted, owner, false},
		{"accepted other", listing.StatusAccepted, other, false},
		{"accepted anonymous", listing.StatusAccepted, anonymous, false},
		{"discussion selected traveler", listing.StatusInDiscussion, traveler, false},
		{"shipped selected traveler", listing.StatusShipped, traveler, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{shopper: shopperAd(tt.status, strp("traveler-1"))}
			p := load(t, api, tt.viewer)

			addr := p.VisibleAddress()
			assert.Equal(t, "Jakarta", addr.City)
			assert.Equal(t, "Indonesia", addr.Country)
			if tt.full {
				assert.Equal(t, "Jl. Sudirman 1", addr.FullAddress)
			} else {
				assert.Empty(t, addr.FullAddress)
			}
		})
	}
}

func TestSingleFlightPerAction(t *testing.T) {
	api := &fakeAPI{shopper: shopperAd(listing.StatusShipped, strp("traveler-1")), gate: make(chan struct{})}
	p := load(t, api, owner)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Run(context.Background(), Complete)
		}()
	}

	require.Eventually(t, func() bool { return p.Busy(Complete) }, time.Second, time.Millisecond)
	// give the remaining presses time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(api.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.requests.Load())
	assert.False(t, p.Busy(Complete))
	assert.Equal(t, listing.StatusCompleted, p.Status())
}

func TestTravelAdBook(t *testing.T) {
	api := &fakeAPI{travel: aduc.View{
		Ad:     aduc.Ad{ID: "ad1", UserID: "traveler-1", Status: listing.StatusActive},
		Status: listing.StatusActive,
	}}

	p, err := Load(context.Background(), api, listing.KindTravel, "ad1", otherShop)
	require.NoError(t, err)
	assert.Equal(t, []Action{Book}, p.Actions())

	require.NoError(t, p.Book(context.Background(), aduc.BookInput{Weight: decimal.NewFromInt(3)}))
	assert.Equal(t, listing.StatusBooked, p.Status())
	assert.Empty(t, p.Actions())

	anon, err := Load(context.Background(), api, listing.KindTravel, "ad1", anonymous)
	require.NoError(t, err)
	assert.Empty(t, anon.Actions())
}

func TestTravelAdBook_OnlyShoppers(t *testing.T) {
	api := &fakeAPI{travel: aduc.View{
		Ad:     aduc.Ad{ID: "ad1", UserID: "traveler-1", Status: listing.StatusActive},
		Status: listing.StatusActive,
	}}

	p, err := Load(context.Background(), api, listing.KindTravel, "ad1", other)
	require.NoError(t, err)
	assert.Empty(t, p.Actions())

	err = p.Book(context.Background(), aduc.BookInput{Weight: decimal.NewFromInt(3)})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, listing.StatusActive, api.travel.Status)
}
