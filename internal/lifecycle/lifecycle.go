// Package lifecycle drives an ad detail screen: it loads the ad, works out how
// the viewer relates to it and which buttons to offer, and runs those actions
// one at a time per button.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

var ErrUnavailable = errors.New("action not available")

// Action is a button on the detail screen.
type Action string

const (
	Edit           Action = "edit"
	Pay            Action = "pay"
	Cancel         Action = "cancel"
	RequestHelp    Action = "request_help"
	AcceptTraveler Action = "accept_traveler"
	RejectTraveler Action = "reject_traveler"
	AttachTracking Action = "attach_tracking"
	Complete       Action = "complete"
	Book           Action = "book"
)

var buttons = map[listing.Action]Action{
	listing.ActionPublish:        Pay,
	listing.ActionEdit:           Edit,
	listing.ActionShopperCancel:  Cancel,
	listing.ActionTravelerCancel: Cancel,
	listing.ActionRequestHelp:    RequestHelp,
	listing.ActionAcceptTraveler: AcceptTraveler,
	listing.ActionRejectTraveler: RejectTraveler,
	listing.ActionShip:           AttachTracking,
	listing.ActionComplete:       Complete,
	listing.ActionBook:           Book,
}

type API interface {
	Ad(ctx context.Context, id string) (*aduc.View, error)
	BookAd(ctx context.Context, id string, in aduc.BookInput) (*aduc.View, error)

	ShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error)
	UpdateShopperAd(ctx context.Context, id string, in sauc.UpdateInput) (*sauc.ShopperAd, error)
	RequestHelp(ctx context.Context, id string) (*sauc.ShopperAd, error)
	AcceptTraveler(ctx context.Context, id string) (*sauc.ShopperAd, error)
	RejectTraveler(ctx context.Context, id string) (*sauc.ShopperAd, error)
	CancelShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error)
	CompleteShopperAd(ctx context.Context, id string) (*sauc.ShopperAd, error)
	AttachTrackingNumber(ctx context.Context, adID, number string) (*trackinguc.Tracking, error)
}

// Page is one loaded ad as seen by one viewer.
type Page struct {
	api    API
	kind   listing.Kind
	id     string
	viewer account.Viewer

	mu      sync.RWMutex
	shopper *sauc.ShopperAd
	travel  *aduc.View
	busy    map[Action]bool

	flight singleflight.Group
}

func Load(ctx context.Context, api API, kind listing.Kind, id string, viewer account.Viewer) (*Page, error) {
	p := &Page{api: api, kind: kind, id: id, viewer: viewer, busy: map[Action]bool{}}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) Refresh(ctx context.Context) error {
	if p.kind == listing.KindTravel {
		v, err := p.api.Ad(ctx, p.id)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.travel = v
		p.mu.Unlock()
		return nil
	}

	sa, err := p.api.ShopperAd(ctx, p.id)
	if err != nil {
		return err
	}
	p.setShopper(sa)
	return nil
}

func (p *Page) setShopper(sa *sauc.ShopperAd) {
	p.mu.Lock()
	p.shopper = sa
	p.mu.Unlock()
}

func (p *Page) Kind() listing.Kind { return p.kind }

func (p *Page) ShopperAd() *sauc.ShopperAd {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shopper
}

func (p *Page) TravelAd() *aduc.View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.travel
}

func (p *Page) current() listing.Listing {
	if p.kind == listing.KindTravel {
		return &p.travel.Ad
	}
	return p.shopper
}

func (p *Page) Status() listing.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.kind == listing.KindTravel {
		return p.travel.Status
	}
	return p.shopper.Status
}

func (p *Page) Relation() listing.Relation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return listing.RelationOf(p.viewer.ID, p.current())
}

// Actions lists the buttons to show, in status table order.
func (p *Page) Actions() []Action {
	p.mu.RLock()
	l := p.current()
	rel := listing.RelationOf(p.viewer.ID, l)
	from := l.CurrentStatus()
	if p.kind == listing.KindTravel {
		// the view carries the effective status of an expired ad
		from = p.travel.Status
	}
	p.mu.RUnlock()

	var out []Action
	seen := map[Action]bool{}
	for _, a := range listing.MachineFor(p.kind).Allowed(from, rel) {
		b, ok := buttons[a]
		if !ok || seen[b] || !p.permitted(a) {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// permitted applies the role checks the status table does not express.
func (p *Page) permitted(a listing.Action) bool {
	switch a {
	case listing.ActionRequestHelp:
		return p.viewer.ID != "" && p.viewer.Role == account.RoleTraveler
	case listing.ActionBook:
		return p.viewer.ID != "" && p.viewer.Role == account.RoleShopper
	}
	return true
}

func (p *Page) Offers(a Action) bool {
	for _, x := range p.Actions() {
		if x == a {
			return true
		}
	}
	return false
}

// VisibleAddress is the shipping address this viewer may see: the full address only
// for the selected traveler of an accepted ad.
func (p *Page) VisibleAddress() sauc.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.shopper == nil {
		return sauc.Address{}
	}
	addr := p.shopper.ShippingAddress
	if !listing.RevealsAddress(p.shopper.Status, p.viewer.ID, p.shopper.SelectedTravelerID()) {
		addr.FullAddress = ""
	}
	return addr
}

// Busy reports whether a button's request is in flight.
func (p *Page) Busy(a Action) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.busy[a]
}

// Run performs an action that takes no input.
func (p *Page) Run(ctx context.Context, a Action) error {
	calls := map[Action]func(context.Context, string) (*sauc.ShopperAd, error){
		RequestHelp:    p.api.RequestHelp,
		AcceptTraveler: p.api.AcceptTraveler,
		RejectTraveler: p.api.RejectTraveler,
		Cancel:         p.api.CancelShopperAd,
		Complete:       p.api.CompleteShopperAd,
	}
	call, ok := calls[a]
	if !ok || p.kind != listing.KindShopper {
		return fmt.Errorf("%w: %s", ErrUnavailable, a)
	}

	return p.do(ctx, a, func(ctx context.Context) error {
		sa, err := call(ctx, p.id)
		if err != nil {
			return err
		}
		p.setShopper(sa)
		return nil
	})
}

func (p *Page) Edit(ctx context.Context, in sauc.UpdateInput) error {
	if p.kind != listing.KindShopper {
		return fmt.Errorf("%w: %s", ErrUnavailable, Edit)
	}
	return p.do(ctx, Edit, func(ctx context.Context) error {
		sa, err := p.api.UpdateShopperAd(ctx, p.id, in)
		if err != nil {
			return err
		}
		p.setShopper(sa)
		return nil
	})
}

func (p *Page) AttachTracking(ctx context.Context, number string) error {
	return p.do(ctx, AttachTracking, func(ctx context.Context) error {
		if _, err := p.api.AttachTrackingNumber(ctx, p.id, number); err != nil {
			return err
		}
		return p.Refresh(ctx)
	})
}

func (p *Page) Book(ctx context.Context, in aduc.BookInput) error {
	return p.do(ctx, Book, func(ctx context.Context) error {
		v, err := p.api.BookAd(ctx, p.id, in)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.travel = v
		p.mu.Unlock()
		return nil
	})
}

// do collapses concurrent presses of the same button into one request.
func (p *Page) do(ctx context.Context, a Action, fn func(context.Context) error) error {
	if !p.Offers(a) {
		return fmt.Errorf("%w: %s", ErrUnavailable, a)
	}

	key := string(p.kind) + ":" + p.id + ":" + string(a)
	_, err, _ := p.flight.Do(key, func() (any, error) {
		p.setBusy(a, true)
		defer p.setBusy(a, false)
		return nil, fn(ctx)
	})
	return err
}

func (p *Page) setBusy(a Action, v bool) {
	p.mu.Lock()
	p.busy[a] = v
	p.mu.Unlock()
}
