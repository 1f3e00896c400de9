package payment

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/account"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
)

const secret = "test-secret"

type memStore struct {
	mu       sync.Mutex
	payments map[string]*payuc.Payment
}

func (m *memStore) Create(_ context.Context, p payuc.Payment) (*payuc.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	m.payments[p.OrderID] = &p
	cp := p
	return &cp, nil
}

func (m *memStore) GetByOrderID(_ context.Context, orderID string) (*payuc.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[orderID]
	if !ok {
		return nil, payuc.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByProviderRef(context.Context, payuc.Provider, string) (*payuc.Payment, error) {
	return nil, payuc.ErrNotFound
}

func (m *memStore) SetProviderRef(context.Context, string, string) error { return nil }

func (m *memStore) Settle(_ context.Context, orderID string, st payuc.Status) (*payuc.Payment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[orderID]
	if !ok {
		return nil, false, payuc.ErrNotFound
	}
	changed := st.Settles(p.Status)
	if changed {
		p.Status = st
	}
	cp := *p
	return &cp, changed, nil
}

func (m *memStore) SetReference(context.Context, string, string) error { return nil }

// gateway reports pending and signals its first status check.
type gateway struct {
	once    sync.Once
	checked chan struct{}
}

func (g *gateway) Checkout(_ context.Context, req payuc.CheckoutRequest) (*payuc.Checkout, error) {
	return &payuc.Checkout{SnapToken: "snap-" + req.OrderID}, nil
}

func (g *gateway) Status(context.Context, *payuc.Payment) (payuc.Status, error) {
	g.once.Do(func() { close(g.checked) })
	return payuc.StatusPending, nil
}

type members struct{}

func (members) GrantMembership(_ context.Context, userID string, _ int) (*authuc.User, error) {
	return &authuc.User{ID: userID}, nil
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"typ":  "user",
		"role": "shopper",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type fixture struct {
	app *fiber.App
	uc  *payuc.Usecase
	gw  *gateway
}

func newFixture() *fixture {
	gw := &gateway{checked: make(chan struct{})}
	uc := payuc.New(&memStore{payments: map[string]*payuc.Payment{}},
		map[payuc.Provider]payuc.Gateway{payuc.ProviderMidtrans: gw},
		nil, nil, members{},
		config.Payments{MembershipPriceIDR: decimal.NewFromInt(95000), MembershipDays: 30})

	h := New(uc, nil, nil)
	app := fiber.New()
	app.Get("/payments/status/:orderId/stream", middleware.Auth(middleware.AuthConfig{Secret: secret}), h.Stream)
	return &fixture{app: app, uc: uc, gw: gw}
}

func (f *fixture) order(t *testing.T, userID string) string {
	t.Helper()
	in, err := f.uc.CreateMembershipIntent(context.Background(), account.Viewer{ID: userID, Role: account.RoleShopper}, payuc.ProviderMidtrans)
	require.NoError(t, err)
	return in.OrderID
}

func (f *fixture) stream(t *testing.T, orderID, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/payments/status/"+orderID+"/stream", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	// an open stream fails the test instead of hanging it
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

// frames returns the decoded data of every "status" event in order.
func frames(t *testing.T, resp *http.Response) []payuc.StatusView {
	t.Helper()
	var out []payuc.StatusView
	var event string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.Equal(t, "status", event)
			var v payuc.StatusView
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v))
			out = append(out, v)
		}
	}
	require.NoError(t, sc.Err())
	return out
}

func TestStream_SettledOrderSendsOneEvent(t *testing.T) {
	f := newFixture()
	orderID := f.order(t, "u1")
	require.NoError(t, f.uc.HandleEvent(context.Background(), payuc.ProviderEvent{
		Provider: payuc.ProviderMidtrans, OrderID: orderID, Status: payuc.StatusSuccess,
	}))

	resp := f.stream(t, orderID, token(t, "u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	got := frames(t, resp)
	require.Len(t, got, 1)
	assert.Equal(t, orderID, got[0].OrderID)
	assert.Equal(t, payuc.StatusSuccess, got[0].Status)
}

func TestStream_ClosesAfterSettlement(t *testing.T) {
	f := newFixture()
	orderID := f.order(t, "u1")

	go func() {
		<-f.gw.checked
		_ = f.uc.HandleEvent(context.Background(), payuc.ProviderEvent{
			Provider: payuc.ProviderMidtrans, OrderID: orderID, Status: payuc.StatusSuccess,
		})
	}()

	got := frames(t, f.stream(t, orderID, token(t, "u1")))
	require.NotEmpty(t, got)
	assert.Equal(t, payuc.StatusSuccess, got[len(got)-1].Status)
	for _, v := range got[:len(got)-1] {
		assert.Equal(t, payuc.StatusPending, v.Status)
	}
}

func TestStream_Rejects(t *testing.T) {
	f := newFixture()
	orderID := f.order(t, "u1")

	resp := f.stream(t, orderID, token(t, "u2"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.stream(t, "BGS-missing", token(t, "u1"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.stream(t, orderID, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
