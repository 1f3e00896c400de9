package ad

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/validation"
)

type memStore struct {
	mu  sync.Mutex
	ads map[string]*Ad
}

func newMemStore(ads ...*Ad) *memStore {
	m := &memStore{ads: map[string]*Ad{}}
	for _, a := range ads {
		m.ads[a.ID] = a
	}
	return m
}

func (m *memStore) Create(_ context.Context, ownerID string, in CreateInput) (*Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &Ad{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		DepartureCity:   in.DepartureCity,
		ArrivalCity:     in.ArrivalCity,
		DepartureDate:   in.DepartureDate,
		ExpiresAt:       in.ExpiresAt,
		AvailableWeight: in.AvailableWeight,
		PricePerKg:      in.PricePerKg,
		Currency:        listing.Currency(in.Currency),
		Status:          listing.StatusActive,
	}
	m.ads[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Ad
	for _, a := range m.ads {
		if f.Departure != "" && !strings.Contains(strings.ToLower(a.DepartureCity), strings.ToLower(f.Departure)) {
			continue
		}
		if f.Arrival != "" && !strings.Contains(strings.ToLower(a.ArrivalCity), strings.ToLower(f.Arrival)) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id string, in UpdateInput) (*Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ads[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.AvailableWeight != nil {
		a.AvailableWeight = *in.AvailableWeight
	}
	if in.PricePerKg != nil {
		a.PricePerKg = *in.PricePerKg
	}
	if in.Notes != nil {
		a.Notes = in.Notes
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Book(_ context.Context, id, shopperID string, weight decimal.Decimal) (*Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ads[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != listing.StatusActive {
		return nil, ErrConflict
	}
	a.Status = listing.StatusBooked
	a.BookedBy = &shopperID
	a.BookedWeight = &weight
	cp := *a
	return &cp, nil
}

func (m *memStore) ExpireDue(_ context.Context, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.ads {
		if a.Status == listing.StatusActive && today.After(dateOnly(a.ExpiresAt)) {
			a.Status = listing.StatusExpired
			n++
		}
	}
	return n, nil
}

type notifyCall struct {
	userID, kind, adID string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) Notify(_ context.Context, userID, kind, _, _, adID string) error {
	f.calls = append(f.calls, notifyCall{userID, kind, adID})
	return nil
}

var (
	fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ownerID  = "9d0c1f6e-1b0a-4e53-9d5c-3f7e2f1a0a01"
	shopper  = Viewer{ID: "2f6d3b1e-8a2c-4c1d-9d77-5e0b9c6a1b02", Role: account.RoleShopper}
)

func ptr(s string) *string { return &s }

func sampleAd() *Ad {
	return &Ad{
		ID:              "ad-1",
		UserID:          ownerID,
		DepartureCity:   "Sydney",
		ArrivalCity:     "Jakarta",
		DepartureDate:   fixedNow.AddDate(0, 0, 10),
		ExpiresAt:       fixedNow.AddDate(0, 0, 7),
		AvailableWeight: decimal.NewFromInt(5),
		PricePerKg:      decimal.NewFromInt(20),
		Currency:        listing.CurrencyAUD,
		Status:          listing.StatusActive,
		OwnerName:       "Ayu",
		OwnerPhone:      ptr("+61400000000"),
	}
}

func newUC(store Store, n Notifier) *Usecase {
	uc := New(store, n)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestCreate_Validation(t *testing.T) {
	uc := newUC(newMemStore(), nil)

	_, err := uc.Create(context.Background(), ownerID, CreateInput{
		DepartureCity:   "Sydney",
		ArrivalCity:     "Jakarta",
		DepartureDate:   fixedNow.AddDate(0, 0, 5),
		ExpiresAt:       fixedNow.AddDate(0, 0, 6),
		AvailableWeight: decimal.Zero,
		PricePerKg:      decimal.NewFromInt(10),
		Currency:        "AUD",
	})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)

	a, err := uc.Create(context.Background(), ownerID, CreateInput{
		DepartureCity:   " Sydney ",
		ArrivalCity:     "Jakarta",
		DepartureDate:   fixedNow.AddDate(0, 0, 5),
		ExpiresAt:       fixedNow.AddDate(0, 0, 4),
		AvailableWeight: decimal.NewFromInt(7),
		PricePerKg:      decimal.NewFromInt(10),
		Currency:        "aud",
	})
	require.NoError(t, err)
	require.Equal(t, "Sydney", a.DepartureCity)
	require.Equal(t, listing.CurrencyAUD, a.Currency)
}

func TestGet_ContactMasking(t *testing.T) {
	store := newMemStore(sampleAd())
	uc := newUC(store, nil)
	ctx := context.Background()

	v, err := uc.Get(ctx, "ad-1", shopper)
	require.NoError(t, err)
	assert.Nil(t, v.User.ContactNumber)
	assert.True(t, v.User.ContactLocked)
	assert.Equal(t, "Ayu", v.User.DisplayName)

	member := shopper
	member.Member = true
	v, err = uc.Get(ctx, "ad-1", member)
	require.NoError(t, err)
	require.NotNil(t, v.User.ContactNumber)
	assert.Equal(t, "+61400000000", *v.User.ContactNumber)

	v, err = uc.Get(ctx, "ad-1", Viewer{ID: ownerID, Role: account.RoleTraveler})
	require.NoError(t, err)
	require.NotNil(t, v.User.ContactNumber)
}

func TestGet_Overrides(t *testing.T) {
	a := sampleAd()
	a.CustomDisplayName = ptr("Kurir Ayu")
	a.CustomRating = ptr("4.9")
	a.CustomContactNumber = ptr("+6281234567")
	uc := newUC(newMemStore(a), nil)

	v, err := uc.Get(context.Background(), "ad-1", Viewer{ID: ownerID})
	require.NoError(t, err)
	assert.Equal(t, "Kurir Ayu", v.User.DisplayName)
	assert.Equal(t, "4.9", *v.User.Rating)
	assert.Equal(t, "+6281234567", *v.User.ContactNumber)
	assert.Nil(t, v.Ad.CustomContactNumber)
}

func TestList_FilterAndExpiry(t *testing.T) {
	expired := sampleAd()
	expired.ID = "ad-2"
	expired.ExpiresAt = fixedNow.AddDate(0, 0, -1)
	other := sampleAd()
	other.ID = "ad-3"
	other.ArrivalCity = "Denpasar"
	uc := newUC(newMemStore(sampleAd(), expired, other), nil)

	all, err := uc.List(context.Background(), ListFilter{Arrival: " jakarta "}, shopper)
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := uc.List(context.Background(), ListFilter{Arrival: "jakarta", Status: listing.StatusActive}, shopper)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "ad-1", active[0].ID)
}

func TestUpdate_OnlyOwner(t *testing.T) {
	uc := newUC(newMemStore(sampleAd()), nil)
	w := decimal.NewFromInt(3)

	_, err := uc.Update(context.Background(), "ad-1", shopper, UpdateInput{AvailableWeight: &w})
	require.ErrorIs(t, err, listing.ErrForbidden)

	v, err := uc.Update(context.Background(), "ad-1", Viewer{ID: ownerID}, UpdateInput{AvailableWeight: &w})
	require.NoError(t, err)
	require.True(t, v.AvailableWeight.Equal(w))
}

func TestBook(t *testing.T) {
	n := &fakeNotifier{}
	uc := newUC(newMemStore(sampleAd()), n)
	ctx := context.Background()

	_, err := uc.Book(ctx, "ad-1", Viewer{ID: "t2", Role: account.RoleTraveler}, BookInput{Weight: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, listing.ErrForbidden)

	_, err = uc.Book(ctx, "ad-1", shopper, BookInput{Weight: decimal.NewFromInt(6)})
	require.ErrorIs(t, err, ErrOverCapacity)

	v, err := uc.Book(ctx, "ad-1", shopper, BookInput{Weight: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.Equal(t, listing.StatusBooked, v.Status)
	require.Len(t, n.calls, 1)
	require.Equal(t, ownerID, n.calls[0].userID)

	_, err = uc.Book(ctx, "ad-1", shopper, BookInput{Weight: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, listing.ErrInvalidTransition)
}

func TestBook_ExpiredRejected(t *testing.T) {
	a := sampleAd()
	a.ExpiresAt = fixedNow.AddDate(0, 0, -2)
	uc := newUC(newMemStore(a), nil)

	_, err := uc.Book(context.Background(), "ad-1", shopper, BookInput{Weight: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, listing.ErrInvalidTransition)
}

func TestExpireDue(t *testing.T) {
	a := sampleAd()
	a.ExpiresAt = fixedNow.AddDate(0, 0, -1)
	store := newMemStore(a)
	uc := newUC(store, nil)

	n, err := uc.ExpireDue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, listing.StatusExpired, store.ads["ad-1"].Status)
}
