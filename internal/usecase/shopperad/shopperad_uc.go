package shopperad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/events"
	"github.com/abyuwono/bagasi/internal/validation"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("shopper ad not found")
	// ErrConflict is returned when the stored status no longer matches the one the transition was resolved from.
	ErrConflict     = errors.New("shopper ad changed concurrently")
	ErrScrapeFailed = errors.New("could not read product page")
)

type Store interface {
	Create(ctx context.Context, ownerID string, in CreateInput, q FeeQuote) (*ShopperAd, error)
	GetByID(ctx context.Context, id string) (*ShopperAd, error)
	List(ctx context.Context, f ListFilter) ([]ShopperAd, error)
	ListMine(ctx context.Context, userID string) ([]ShopperAd, error)
	Update(ctx context.Context, id string, expected ShopperAd, in UpdateInput, q FeeQuote) (*ShopperAd, error)
	// Transition applies c only if the row is still in c.From; otherwise ErrConflict.
	Transition(ctx context.Context, id string, c Change) (*ShopperAd, error)
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (*Product, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, body, adID string) error
}

type Usecase struct {
	store    Store
	fees     *FeeCalculator
	scraper  Scraper
	notifier Notifier
	events   events.Publisher
	now      func() time.Time
}

func New(store Store, fees *FeeCalculator, scraper Scraper, notifier Notifier, pub events.Publisher) *Usecase {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Usecase{
		store:    store,
		fees:     fees,
		scraper:  scraper,
		notifier: notifier,
		events:   pub,
		now:      time.Now,
	}
}

// Create stores a draft. It is published once its posting payment settles.
func (u *Usecase) Create(ctx context.Context, viewer Viewer, in CreateInput) (*ShopperAd, error) {
	if viewer.ID == "" {
		return nil, listing.ErrForbidden
	}
	in.ProductName = strings.TrimSpace(in.ProductName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	q, err := u.fees.Quote(FeeInput{
		ProductPrice:    in.ProductPrice,
		ProductCurrency: in.ProductCurrency,
		Quantity:        in.Quantity,
		ProductWeight:   in.ProductWeight,
	})
	if err != nil {
		return nil, err
	}
	in.ProductCurrency = string(q.Commission.Currency)

	sa, err := u.store.Create(ctx, viewer.ID, in, q)
	if err != nil {
		return nil, err
	}
	masked := sa.MaskedFor(viewer.ID)
	return &masked, nil
}

func (u *Usecase) Get(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	sa, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sa.Status == listing.StatusDraft && sa.UserID != viewer.ID {
		return nil, ErrNotFound
	}
	masked := sa.MaskedFor(viewer.ID)
	return &masked, nil
}

// List returns published ads. Drafts only show up in ListMine.
func (u *Usecase) List(ctx context.Context, f ListFilter, viewer Viewer) ([]ShopperAd, error) {
	ads, err := u.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ShopperAd, 0, len(ads))
	for _, sa := range ads {
		if sa.Status == listing.StatusDraft {
			continue
		}
		out = append(out, sa.MaskedFor(viewer.ID))
	}
	return out, nil
}

// ListMine returns ads the user owns or is currently helping with.
func (u *Usecase) ListMine(ctx context.Context, viewer Viewer) ([]ShopperAd, error) {
	if viewer.ID == "" {
		return nil, listing.ErrForbidden
	}
	ads, err := u.store.ListMine(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	for i := range ads {
		ads[i] = ads[i].MaskedFor(viewer.ID)
	}
	return ads, nil
}

func (u *Usecase) Update(ctx context.Context, id string, viewer Viewer, in UpdateInput) (*ShopperAd, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	sa, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := listing.ShopperAdMachine.Next(sa.Status, listing.ActionEdit, listing.RelationOf(viewer.ID, sa)); err != nil {
		return nil, err
	}

	q := FeeQuote{TotalPriceIDR: sa.TotalPriceIDR, TotalWeight: sa.TotalWeight, Commission: sa.Commission}
	if in.Quantity != nil && *in.Quantity != sa.Quantity {
		q, err = u.fees.Quote(FeeInput{
			ProductPrice:    sa.ProductPrice,
			ProductCurrency: string(sa.ProductCurrency),
			Quantity:        *in.Quantity,
			ProductWeight:   sa.ProductWeight,
		})
		if err != nil {
			return nil, err
		}
	}

	updated, err := u.store.Update(ctx, id, *sa, in, q)
	if err != nil {
		return nil, err
	}
	masked := updated.MaskedFor(viewer.ID)
	return &masked, nil
}

// Publish activates a draft after its posting payment settled.
func (u *Usecase) Publish(ctx context.Context, id, ownerID string) (*ShopperAd, error) {
	return u.apply(ctx, id, Viewer{ID: ownerID}, listing.ActionPublish, nil)
}

// RequestHelp lets a traveler propose to carry an active ad.
func (u *Usecase) RequestHelp(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	if viewer.Role != account.RoleTraveler {
		return nil, fmt.Errorf("%w: only travelers can request to help", listing.ErrForbidden)
	}
	return u.apply(ctx, id, viewer, listing.ActionRequestHelp, nil)
}

func (u *Usecase) AcceptTraveler(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	return u.apply(ctx, id, viewer, listing.ActionAcceptTraveler, nil)
}

func (u *Usecase) RejectTraveler(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	return u.apply(ctx, id, viewer, listing.ActionRejectTraveler, nil)
}

// Ship records the tracking number and moves an accepted ad to shipped.
func (u *Usecase) Ship(ctx context.Context, id string, viewer Viewer, trackingNumber string) (*ShopperAd, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, ErrInvalidInput
	}
	return u.apply(ctx, id, viewer, listing.ActionShip, &trackingNumber)
}

func (u *Usecase) Complete(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	return u.apply(ctx, id, viewer, listing.ActionComplete, nil)
}

// Cancel is terminal for the owner and recycles the ad to active for the selected traveler.
func (u *Usecase) Cancel(ctx context.Context, id string, viewer Viewer) (*ShopperAd, error) {
	sa, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	action := listing.ActionShopperCancel
	if listing.RelationOf(viewer.ID, sa) == listing.RelationSelectedTraveler {
		action = listing.ActionTravelerCancel
	}
	return u.transition(ctx, sa, viewer, action, nil)
}

func (u *Usecase) CalculateFees(in FeeInput) (FeeQuote, error) {
	return u.fees.Quote(in)
}

func (u *Usecase) Scrape(ctx context.Context, rawURL string) (*Product, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrInvalidInput
	}
	return u.scraper.Scrape(ctx, rawURL)
}

func (u *Usecase) apply(ctx context.Context, id string, viewer Viewer, action listing.Action, tracking *string) (*ShopperAd, error) {
	sa, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.transition(ctx, sa, viewer, action, tracking)
}

func (u *Usecase) transition(ctx context.Context, sa *ShopperAd, viewer Viewer, action listing.Action, tracking *string) (*ShopperAd, error) {
	rel := listing.RelationOf(viewer.ID, sa)
	tr, err := listing.ShopperAdMachine.Next(sa.Status, action, rel)
	if err != nil {
		return nil, err
	}

	c := Change{
		From:           sa.Status,
		FromTraveler:   sa.SelectedTravelerID(),
		To:             tr.Target(sa.Status),
		ClearTraveler:  tr.ClearsTraveler,
		TrackingNumber: tracking,
	}
	if tr.SetsTraveler {
		c.SetTraveler = viewer.ID
	}
	if tr.Refund {
		c.Refund = &Refund{ShopperAdID: sa.ID, UserID: sa.UserID, AmountIDR: sa.RefundAmount()}
	}

	updated, err := u.store.Transition(ctx, sa.ID, c)
	if err != nil {
		return nil, err
	}

	events.PublishBestEffort(ctx, u.events, sa.ID, events.ListingEvent{
		Type:      "shopper_ad." + string(action),
		AdID:      sa.ID,
		AdKind:    string(listing.KindShopper),
		ActorID:   viewer.ID,
		From:      string(c.From),
		To:        string(c.To),
		Traveler:  updated.SelectedTravelerID(),
		OccuredAt: u.now(),
	})
	u.notifyCounterparty(ctx, sa, viewer.ID, action)

	masked := updated.MaskedFor(viewer.ID)
	return &masked, nil
}

var notices = map[listing.Action][2]string{
	listing.ActionRequestHelp:    {"Ada traveler yang ingin membantu", "Seorang traveler menawarkan bantuan untuk %s"},
	listing.ActionAcceptTraveler: {"Tawaran kamu diterima", "Pembeli menerima tawaranmu untuk %s"},
	listing.ActionRejectTraveler: {"Tawaran kamu ditolak", "Pembeli menolak tawaranmu untuk %s"},
	listing.ActionTravelerCancel: {"Traveler membatalkan", "Traveler membatalkan bantuan untuk %s, iklan aktif kembali"},
	listing.ActionShip:           {"Barang dikirim", "%s sudah dikirim"},
	listing.ActionComplete:       {"Pesanan selesai", "Pembeli mengonfirmasi %s sudah diterima"},
	listing.ActionShopperCancel:  {"Iklan dibatalkan", "Pembeli membatalkan %s"},
}

// notifyCounterparty tells the other side of the ad; sa is the state before the transition.
func (u *Usecase) notifyCounterparty(ctx context.Context, sa *ShopperAd, actorID string, action listing.Action) {
	if u.notifier == nil {
		return
	}
	n, ok := notices[action]
	if !ok {
		return
	}
	to := sa.UserID
	if actorID == sa.UserID {
		to = sa.SelectedTravelerID()
	}
	if to == "" {
		return
	}
	if err := u.notifier.Notify(ctx, to, "shopper_ad."+string(action), n[0], fmt.Sprintf(n[1], sa.ProductName), sa.ID); err != nil {
		slog.WarnContext(ctx, "notify failed", "shopper_ad_id", sa.ID, "action", action, "user_id", to, "err", err)
	}
}
