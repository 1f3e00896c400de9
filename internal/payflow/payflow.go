// Package payflow runs a payment from intent to outcome. Card data never passes
// through here: the backend issues a client secret or Snap token and a provider
// widget does the rest.
package payflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/abyuwono/bagasi/internal/feed"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
)

var (
	ErrNoWidget  = errors.New("no payment widget for provider")
	ErrWidget    = errors.New("payment widget failed")
	ErrNoOutcome = errors.New("payment status unknown")
)

type API interface {
	CreatePaymentIntent(ctx context.Context, shopperAdID string) (*payuc.Intent, error)
	CreateAdPostingIntent(ctx context.Context, draft aduc.CreateInput, provider payuc.Provider) (*payuc.Intent, error)
	CreateMembershipIntent(ctx context.Context, provider payuc.Provider) (*payuc.Intent, error)
}

// Widget is a provider's own payment UI.
type Widget interface {
	Provider() payuc.Provider
	// Open hands the intent over. A terminal status is a synchronous outcome;
	// anything else means the result arrives on the status feed.
	Open(ctx context.Context, intent *payuc.Intent) (payuc.Status, error)
}

// Watcher opens the status feed of one order.
type Watcher func(orderID string) feed.Source[*payuc.StatusView]

type Result struct {
	OrderID     string
	Provider    payuc.Provider
	Status      payuc.Status
	ReferenceID *string
}

func (r Result) Paid() bool { return r.Status == payuc.StatusSuccess }

type Flow struct {
	api     API
	watch   Watcher
	widgets map[payuc.Provider]Widget
}

func New(api API, watch Watcher, widgets ...Widget) *Flow {
	f := &Flow{api: api, watch: watch, widgets: map[payuc.Provider]Widget{}}
	for _, w := range widgets {
		f.widgets[w.Provider()] = w
	}
	return f
}

// PayShopperAd publishes a draft shopper ad once paid.
func (f *Flow) PayShopperAd(ctx context.Context, shopperAdID string) (*Result, error) {
	intent, err := f.api.CreatePaymentIntent(ctx, shopperAdID)
	if err != nil {
		return nil, err
	}
	return f.complete(ctx, intent)
}

// PostAd pays the posting fee; the ad exists once the payment succeeds.
func (f *Flow) PostAd(ctx context.Context, draft aduc.CreateInput, provider payuc.Provider) (*Result, error) {
	intent, err := f.api.CreateAdPostingIntent(ctx, draft, provider)
	if err != nil {
		return nil, err
	}
	return f.complete(ctx, intent)
}

func (f *Flow) BuyMembership(ctx context.Context, provider payuc.Provider) (*Result, error) {
	intent, err := f.api.CreateMembershipIntent(ctx, provider)
	if err != nil {
		return nil, err
	}
	return f.complete(ctx, intent)
}

func (f *Flow) complete(ctx context.Context, intent *payuc.Intent) (*Result, error) {
	w, ok := f.widgets[intent.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoWidget, intent.Provider)
	}

	res := &Result{OrderID: intent.OrderID, Provider: intent.Provider, Status: payuc.StatusPending}

	st, err := w.Open(ctx, intent)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrWidget, err)
	}
	if st.Terminal() {
		res.Status = st
		return res, nil
	}

	for v := range f.watch(intent.OrderID).Watch(ctx) {
		slog.DebugContext(ctx, "payment status", "order_id", v.OrderID, "status", v.Status)
		if v.Status.Terminal() {
			res.Status = v.Status
			res.ReferenceID = v.ReferenceID
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, ErrNoOutcome
}

// PrintWidget is a terminal stand-in for the provider UI: it shows where to pay
// and leaves the outcome to the status feed.
type PrintWidget struct {
	For payuc.Provider
	Out io.Writer
}

func (w PrintWidget) Provider() payuc.Provider { return w.For }

func (w PrintWidget) Open(_ context.Context, in *payuc.Intent) (payuc.Status, error) {
	var err error
	switch {
	case in.RedirectURL != "":
		_, err = fmt.Fprintf(w.Out, "Complete the payment of %s %s at:\n  %s\n", in.Amount.StringFixed(0), in.Currency, in.RedirectURL)
	case in.ClientSecret != "":
		_, err = fmt.Fprintf(w.Out, "Confirm PaymentIntent for %s %s with client secret:\n  %s\n", in.Amount.StringFixed(0), in.Currency, in.ClientSecret)
	default:
		return "", errors.New("intent has no client secret or redirect url")
	}
	if err != nil {
		return "", err
	}
	_, err = fmt.Fprintf(w.Out, "Waiting for order %s...\n", in.OrderID)
	return payuc.StatusPending, err
}
