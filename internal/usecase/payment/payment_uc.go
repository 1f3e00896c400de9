package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/usecase/ad"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	"github.com/abyuwono/bagasi/internal/usecase/shopperad"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("payment not found")
	ErrProviderDisabled = errors.New("payment provider not configured")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrProviderDown     = errors.New("payment provider unavailable")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type Store interface {
	Create(ctx context.Context, p Payment) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByProviderRef(ctx context.Context, provider Provider, ref string) (*Payment, error)
	SetProviderRef(ctx context.Context, orderID, ref string) error
	// Settle moves a payment to st when st.Settles its current status. changed is false otherwise.
	Settle(ctx context.Context, orderID string, st Status) (p *Payment, changed bool, err error)
	SetReference(ctx context.Context, orderID, referenceID string) error
}

type Gateway interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	Status(ctx context.Context, p *Payment) (Status, error)
}

type AdCreator interface {
	Create(ctx context.Context, ownerID string, in ad.CreateInput) (*ad.Ad, error)
}

type ShopperAds interface {
	Get(ctx context.Context, id string, viewer shopperad.Viewer) (*shopperad.ShopperAd, error)
	Publish(ctx context.Context, id, ownerID string) (*shopperad.ShopperAd, error)
}

type MembershipGranter interface {
	GrantMembership(ctx context.Context, userID string, days int) (*authuc.User, error)
}

type Usecase struct {
	store       Store
	gateways    map[Provider]Gateway
	ads         AdCreator
	shopperAds  ShopperAds
	memberships MembershipGranter
	prices      config.Payments
	hub         *Hub
	now         func() time.Time
}

func New(store Store, gateways map[Provider]Gateway, ads AdCreator, shopperAds ShopperAds, memberships MembershipGranter, prices config.Payments) *Usecase {
	return &Usecase{
		store:       store,
		gateways:    gateways,
		ads:         ads,
		shopperAds:  shopperAds,
		memberships: memberships,
		prices:      prices,
		hub:         NewHub(),
		now:         time.Now,
	}
}

func (u *Usecase) Hub() *Hub { return u.hub }

func (u *Usecase) MembershipPrice() MembershipPrice {
	return MembershipPrice{AmountIDR: u.prices.MembershipPriceIDR, Currency: "IDR", Days: u.prices.MembershipDays}
}

// CreatePaymentIntent charges the product price plus commission of a draft shopper ad.
// The ad is published when the payment settles.
func (u *Usecase) CreatePaymentIntent(ctx context.Context, viewer account.Viewer, shopperAdID string) (*Intent, error) {
	sa, err := u.shopperAds.Get(ctx, shopperAdID, viewer)
	if err != nil {
		return nil, err
	}
	if sa.UserID != viewer.ID {
		return nil, listing.ErrForbidden
	}
	if sa.Status != listing.StatusDraft {
		return nil, fmt.Errorf("%w: shopper ad is %s", listing.ErrInvalidTransition, sa.Status)
	}

	ref := sa.ID
	return u.start(ctx, Payment{
		UserID:      viewer.ID,
		Purpose:     PurposeShopperAd,
		Provider:    ProviderStripe,
		Amount:      sa.RefundAmount(),
		ReferenceID: &ref,
	}, "Bagasi jastip "+sa.ProductName)
}

// CreateAdPostingIntent validates the ad draft and keeps it on the payment; the ad is created on success.
func (u *Usecase) CreateAdPostingIntent(ctx context.Context, viewer account.Viewer, draft ad.CreateInput, provider Provider) (*Intent, error) {
	if viewer.Role != account.RoleTraveler {
		return nil, fmt.Errorf("%w: only travelers can post ads", listing.ErrForbidden)
	}
	if err := ad.ValidateCreate(draft); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	return u.start(ctx, Payment{
		UserID:   viewer.ID,
		Purpose:  PurposeAdPosting,
		Provider: provider,
		Amount:   u.prices.AdPostingFeeIDR,
		Payload:  payload,
	}, fmt.Sprintf("Bagasi iklan %s - %s", draft.DepartureCity, draft.ArrivalCity))
}

func (u *Usecase) CreateMembershipIntent(ctx context.Context, viewer account.Viewer, provider Provider) (*Intent, error) {
	if viewer.ID == "" {
		return nil, listing.ErrForbidden
	}
	return u.start(ctx, Payment{
		UserID:   viewer.ID,
		Purpose:  PurposeMembership,
		Provider: provider,
		Amount:   u.prices.MembershipPriceIDR,
	}, fmt.Sprintf("Bagasi membership %d hari", u.prices.MembershipDays))
}

func (u *Usecase) start(ctx context.Context, p Payment, description string) (*Intent, error) {
	if !p.Provider.Valid() {
		return nil, ErrInvalidInput
	}
	if !p.Amount.IsPositive() {
		return nil, ErrInvalidInput
	}
	gw, ok := u.gateways[p.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderDisabled, p.Provider)
	}

	p.OrderID = NewOrderID()
	p.Currency = "IDR"
	p.Status = StatusPending
	saved, err := u.store.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"order_id": saved.OrderID, "purpose": string(saved.Purpose), "user_id": saved.UserID}
	co, err := gw.Checkout(ctx, CheckoutRequest{
		OrderID:     saved.OrderID,
		Amount:      saved.Amount,
		Currency:    saved.Currency,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		// the order stays pending and is never picked up by a widget
		slog.WarnContext(ctx, "payment checkout failed", "order_id", saved.OrderID, "provider", saved.Provider, "err", err)
		return nil, err
	}
	if co.ProviderRef != "" {
		if err := u.store.SetProviderRef(ctx, saved.OrderID, co.ProviderRef); err != nil {
			return nil, err
		}
	}

	return &Intent{
		OrderID:      saved.OrderID,
		Provider:     saved.Provider,
		Amount:       saved.Amount,
		Currency:     saved.Currency,
		ClientSecret: co.ClientSecret,
		SnapToken:    co.SnapToken,
		RedirectURL:  co.RedirectURL,
	}, nil
}

// Status reports an order's status to its owner, refreshing from the provider while pending.
func (u *Usecase) Status(ctx context.Context, orderID, userID string) (*StatusView, error) {
	p, err := u.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotFound
	}

	if p.Status == StatusPending {
		if gw, ok := u.gateways[p.Provider]; ok {
			st, err := gw.Status(ctx, p)
			if err != nil {
				slog.WarnContext(ctx, "payment status refresh failed", "order_id", orderID, "err", err)
			} else if st.Terminal() {
				if p, err = u.settle(ctx, orderID, st); err != nil {
					return nil, err
				}
			}
		}
	}
	return view(p), nil
}

// HandleEvent settles a payment from a verified provider notification. Replays are no-ops.
func (u *Usecase) HandleEvent(ctx context.Context, ev ProviderEvent) error {
	if !ev.Status.Terminal() {
		return nil
	}
	orderID := ev.OrderID
	if orderID == "" {
		p, err := u.store.GetByProviderRef(ctx, ev.Provider, ev.ProviderRef)
		if err != nil {
			return fmt.Errorf("payment for %s ref %s: %w", ev.Provider, ev.ProviderRef, err)
		}
		orderID = p.OrderID
	}
	_, err := u.settle(ctx, orderID, ev.Status)
	return err
}

func (u *Usecase) settle(ctx context.Context, orderID string, st Status) (*Payment, error) {
	p, changed, err := u.store.Settle(ctx, orderID, st)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}

	slog.InfoContext(ctx, "payment settled", "order_id", orderID, "purpose", p.Purpose, "status", st)
	if st == StatusSuccess {
		if err := u.fulfil(ctx, p); err != nil {
			// settlement stays final; fulfilment is retried by hand
			slog.ErrorContext(ctx, "payment fulfilment failed", "order_id", orderID, "purpose", p.Purpose, "err", err)
		}
	}
	u.hub.Publish(*view(p))
	return p, nil
}

func (u *Usecase) fulfil(ctx context.Context, p *Payment) error {
	switch p.Purpose {
	case PurposeShopperAd:
		if p.ReferenceID == nil {
			return ErrInvalidInput
		}
		_, err := u.shopperAds.Publish(ctx, *p.ReferenceID, p.UserID)
		return err

	case PurposeAdPosting:
		var draft ad.CreateInput
		if err := json.Unmarshal(p.Payload, &draft); err != nil {
			return fmt.Errorf("decode ad draft: %w", err)
		}
		created, err := u.ads.Create(ctx, p.UserID, draft)
		if err != nil {
			return err
		}
		p.ReferenceID = &created.ID
		return u.store.SetReference(ctx, p.OrderID, created.ID)

	case PurposeMembership:
		_, err := u.memberships.GrantMembership(ctx, p.UserID, u.prices.MembershipDays)
		return err
	}
	return fmt.Errorf("unknown payment purpose %q", p.Purpose)
}

func view(p *Payment) *StatusView {
	return &StatusView{OrderID: p.OrderID, Status: p.Status, Purpose: p.Purpose, ReferenceID: p.ReferenceID}
}

func NewOrderID() string {
	return "BGS-" + uuid.NewString()
}

// minorUnits converts an IDR amount to the two-decimal integer Stripe expects.
func minorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
