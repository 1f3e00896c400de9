package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/usecase/ad"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	"github.com/abyuwono/bagasi/internal/usecase/shopperad"
)

type memStore struct {
	mu       sync.Mutex
	payments map[string]*Payment
}

func newMemStore() *memStore { return &memStore{payments: map[string]*Payment{}} }

func (m *memStore) Create(_ context.Context, p Payment) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	m.payments[p.OrderID] = &p
	cp := p
	return &cp, nil
}

func (m *memStore) GetByOrderID(_ context.Context, orderID string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByProviderRef(_ context.Context, provider Provider, ref string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Provider == provider && p.ProviderRef != nil && *p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) SetProviderRef(_ context.Context, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[orderID].ProviderRef = &ref
	return nil
}

func (m *memStore) Settle(_ context.Context, orderID string, st Status) (*Payment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[orderID]
	if !ok {
		return nil, false, ErrNotFound
	}
	changed := st.Settles(p.Status)
	if changed {
		now := time.Now()
		p.Status = st
		p.SettledAt = &now
	}
	cp := *p
	return &cp, changed, nil
}

func (m *memStore) SetReference(_ context.Context, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[orderID].ReferenceID = &ref
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	status  Status
	calls   int
	checkFn func(CheckoutRequest) (*Checkout, error)
}

func (g *fakeGateway) Checkout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	if g.checkFn != nil {
		return g.checkFn(req)
	}
	return &Checkout{ProviderRef: "pi_" + req.OrderID, ClientSecret: "secret_" + req.OrderID}, nil
}

func (g *fakeGateway) Status(context.Context, *Payment) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.status, nil
}

func (g *fakeGateway) set(st Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = st
}

type fakeAds struct{ created []ad.CreateInput }

func (f *fakeAds) Create(_ context.Context, ownerID string, in ad.CreateInput) (*ad.Ad, error) {
	f.created = append(f.created, in)
	return &ad.Ad{ID: fmt.Sprintf("ad-%d", len(f.created)), UserID: ownerID}, nil
}

type fakeShopperAds struct {
	ad        shopperad.ShopperAd
	published int
}

func (f *fakeShopperAds) Get(_ context.Context, id string, _ shopperad.Viewer) (*shopperad.ShopperAd, error) {
	if id != f.ad.ID {
		return nil, shopperad.ErrNotFound
	}
	cp := f.ad
	return &cp, nil
}

func (f *fakeShopperAds) Publish(_ context.Context, _, _ string) (*shopperad.ShopperAd, error) {
	f.published++
	f.ad.Status = listing.StatusActive
	cp := f.ad
	return &cp, nil
}

type fakeMemberships struct{ grants map[string]int }

func (f *fakeMemberships) GrantMembership(_ context.Context, userID string, days int) (*authuc.User, error) {
	f.grants[userID] += days
	return &authuc.User{ID: userID}, nil
}

var prices = config.Payments{
	AdPostingFeeIDR:    decimal.NewFromInt(25000),
	MembershipPriceIDR: decimal.NewFromInt(95000),
	MembershipDays:     30,
}

type fixture struct {
	uc       *Usecase
	store    *memStore
	stripe   *fakeGateway
	midtrans *fakeGateway
	ads      *fakeAds
	sads     *fakeShopperAds
	members  *fakeMemberships
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemStore(),
		stripe:   &fakeGateway{status: StatusPending},
		midtrans: &fakeGateway{status: StatusPending},
		ads:      &fakeAds{},
		sads: &fakeShopperAds{ad: shopperad.ShopperAd{
			ID: "sa-1", UserID: "shopper", ProductName: "Tim Tam", Status: listing.StatusDraft,
			TotalPriceIDR: decimal.NewFromInt(500000),
			Commission:    shopperad.Commission{IDR: decimal.NewFromInt(50000)},
		}},
		members: &fakeMemberships{grants: map[string]int{}},
	}
	f.uc = New(f.store, map[Provider]Gateway{ProviderStripe: f.stripe, ProviderMidtrans: f.midtrans}, f.ads, f.sads, f.members, prices)
	return f
}

var (
	shopperViewer  = account.Viewer{ID: "shopper", Role: account.RoleShopper}
	travelerViewer = account.Viewer{ID: "traveler", Role: account.RoleTraveler}
)

func TestMembership_MidtransPollingSettlesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in, err := f.uc.CreateMembershipIntent(ctx, shopperViewer, ProviderMidtrans)
	require.NoError(t, err)
	require.True(t, in.Amount.Equal(decimal.NewFromInt(95000)))

	st, err := f.uc.Status(ctx, in.OrderID, "shopper")
	require.NoError(t, err)
	require.Equal(t, StatusPending, st.Status)

	f.midtrans.set(StatusSuccess)
	st, err = f.uc.Status(ctx, in.OrderID, "shopper")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)

	// settled orders are not refreshed again
	st, err = f.uc.Status(ctx, in.OrderID, "shopper")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, 2, f.midtrans.calls)

	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderMidtrans, OrderID: in.OrderID, Status: StatusSuccess}))
	require.Equal(t, 30, f.members.grants["shopper"])
}

func TestStatus_OtherUserSeesNotFound(t *testing.T) {
	f := newFixture()
	in, err := f.uc.CreateMembershipIntent(context.Background(), shopperViewer, ProviderStripe)
	require.NoError(t, err)

	_, err = f.uc.Status(context.Background(), in.OrderID, "someone-else")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdPosting_CreatesAdOnWebhook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	draft := ad.CreateInput{
		DepartureCity:   "Melbourne",
		ArrivalCity:     "Surabaya",
		DepartureDate:   time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		ExpiresAt:       time.Date(2026, 5, 8, 0, 0, 0, 0, time.UTC),
		AvailableWeight: decimal.NewFromInt(10),
		PricePerKg:      decimal.NewFromInt(15),
		Currency:        "AUD",
	}

	_, err := f.uc.CreateAdPostingIntent(ctx, shopperViewer, draft, ProviderStripe)
	require.ErrorIs(t, err, listing.ErrForbidden)

	in, err := f.uc.CreateAdPostingIntent(ctx, travelerViewer, draft, ProviderStripe)
	require.NoError(t, err)
	require.Equal(t, "secret_"+in.OrderID, in.ClientSecret)

	ev := ProviderEvent{Provider: ProviderStripe, ProviderRef: "pi_" + in.OrderID, Status: StatusSuccess}
	require.NoError(t, f.uc.HandleEvent(ctx, ev))
	require.NoError(t, f.uc.HandleEvent(ctx, ev))

	require.Len(t, f.ads.created, 1)
	assert.Equal(t, "Melbourne", f.ads.created[0].DepartureCity)

	st, err := f.uc.Status(ctx, in.OrderID, "traveler")
	require.NoError(t, err)
	require.NotNil(t, st.ReferenceID)
	require.Equal(t, "ad-1", *st.ReferenceID)
}

func TestShopperAdIntent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.CreatePaymentIntent(ctx, travelerViewer, "sa-1")
	require.ErrorIs(t, err, listing.ErrForbidden)

	in, err := f.uc.CreatePaymentIntent(ctx, shopperViewer, "sa-1")
	require.NoError(t, err)
	require.True(t, in.Amount.Equal(decimal.NewFromInt(550000)))
	require.Equal(t, ProviderStripe, in.Provider)

	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusFailed}))
	require.Zero(t, f.sads.published)

	in, err = f.uc.CreatePaymentIntent(ctx, shopperViewer, "sa-1")
	require.NoError(t, err)
	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusSuccess}))
	require.Equal(t, 1, f.sads.published)

	_, err = f.uc.CreatePaymentIntent(ctx, shopperViewer, "sa-1")
	require.ErrorIs(t, err, listing.ErrInvalidTransition)
}

func TestStripeDeclineThenRetrySucceeds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in, err := f.uc.CreatePaymentIntent(ctx, shopperViewer, "sa-1")
	require.NoError(t, err)

	// the decline lands first, then the customer retries the same intent
	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusFailed}))
	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusSuccess}))

	st, err := f.uc.Status(ctx, in.OrderID, "shopper")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, 1, f.sads.published)

	// a late failure does not undo the success
	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusFailed}))
	st, err = f.uc.Status(ctx, in.OrderID, "shopper")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)
	require.Equal(t, 1, f.sads.published)
}

func TestSettles(t *testing.T) {
	assert.True(t, StatusSuccess.Settles(StatusPending))
	assert.True(t, StatusFailed.Settles(StatusPending))
	assert.True(t, StatusSuccess.Settles(StatusFailed))
	assert.False(t, StatusCancel.Settles(StatusFailed))
	assert.False(t, StatusFailed.Settles(StatusSuccess))
	assert.False(t, StatusSuccess.Settles(StatusSuccess))
}

func TestStripeStatus_DeclineStaysOpen(t *testing.T) {
	declined := &stripe.PaymentIntent{
		Status:           stripe.PaymentIntentStatusRequiresPaymentMethod,
		LastPaymentError: &stripe.Error{Code: stripe.ErrorCodeCardDeclined},
	}
	assert.Equal(t, StatusPending, stripeStatus(declined))
	assert.Equal(t, StatusSuccess, stripeStatus(&stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}))
	assert.Equal(t, StatusCancel, stripeStatus(&stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}))
}

func TestStart_Rejects(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateMembershipIntent(context.Background(), shopperViewer, "paypal")
	require.ErrorIs(t, err, ErrInvalidInput)

	uc := New(newMemStore(), map[Provider]Gateway{}, nil, nil, nil, prices)
	_, err = uc.CreateMembershipIntent(context.Background(), shopperViewer, ProviderMidtrans)
	require.ErrorIs(t, err, ErrProviderDisabled)
}

func TestHub_DeliversSettlement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in, err := f.uc.CreateMembershipIntent(ctx, shopperViewer, ProviderStripe)
	require.NoError(t, err)

	ch, release := f.uc.Hub().Subscribe(in.OrderID)
	defer release()

	require.NoError(t, f.uc.HandleEvent(ctx, ProviderEvent{Provider: ProviderStripe, OrderID: in.OrderID, Status: StatusExpire}))

	select {
	case v := <-ch:
		require.Equal(t, StatusExpire, v.Status)
	case <-time.After(time.Second):
		t.Fatal("no status delivered")
	}
}

func TestMidtransNotification(t *testing.T) {
	g := NewMidtransGateway("SB-Mid-server-test", "sandbox")
	sum := sha512.Sum512([]byte("BGS-1" + "200" + "95000.00" + "SB-Mid-server-test"))
	body := fmt.Sprintf(`{"order_id":"BGS-1","status_code":"200","gross_amount":"95000.00","signature_key":"%s","transaction_status":"settlement"}`,
		hex.EncodeToString(sum[:]))

	ev, err := g.ParseNotification([]byte(body))
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, ev.Status)
	require.Equal(t, "BGS-1", ev.OrderID)

	_, err = g.ParseNotification([]byte(`{"order_id":"BGS-1","status_code":"200","gross_amount":"1.00","signature_key":"bad","transaction_status":"settlement"}`))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMidtransStatusMapping(t *testing.T) {
	cases := map[[2]string]Status{
		{"capture", "accept"}:    StatusSuccess,
		{"capture", "challenge"}: StatusPending,
		{"settlement", ""}:       StatusSuccess,
		{"pending", ""}:          StatusPending,
		{"deny", ""}:             StatusFailed,
		{"cancel", ""}:           StatusCancel,
		{"expire", ""}:           StatusExpire,
		{"refund", ""}:           StatusPending,
	}
	for in, want := range cases {
		assert.Equal(t, want, midtransStatus(in[0], in[1]), "%v", in)
	}
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(9500000), minorUnits(decimal.NewFromInt(95000)))
}
