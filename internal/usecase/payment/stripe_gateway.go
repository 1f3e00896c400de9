package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway creates PaymentIntents confirmed by Stripe Elements on the client.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
}

func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{client: sc, webhookSecret: webhookSecret}
}

func (sg *StripeGateway) Checkout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	// one intent per order even if the request is repeated
	params.IdempotencyKey = stripe.String(req.OrderID)
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}
	params.Context = ctx

	pi, err := sg.client.PaymentIntents.New(params)
	if err != nil {
		return nil, sg.mapStripeError(err)
	}
	return &Checkout{ProviderRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (sg *StripeGateway) Status(ctx context.Context, p *Payment) (Status, error) {
	if p.ProviderRef == nil {
		return StatusPending, nil
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := sg.client.PaymentIntents.Get(*p.ProviderRef, params)
	if err != nil {
		return StatusPending, sg.mapStripeError(err)
	}
	return stripeStatus(pi), nil
}

func stripeStatus(pi *stripe.PaymentIntent) Status {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSuccess
	case stripe.PaymentIntentStatusCanceled:
		return StatusCancel
	}
	// a declined card leaves the intent open for another attempt
	return StatusPending
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event.
// Only succeeded and canceled intents are outcomes; payment_failed is a declined
// attempt on an intent that stays open, so it returns nil like any other event.
func (sg *StripeGateway) ParseWebhook(payload []byte, signature string) (*ProviderEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, sg.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var st Status
	switch event.Type {
	case "payment_intent.succeeded":
		st = StatusSuccess
	case "payment_intent.canceled":
		st = StatusCancel
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &ProviderEvent{
		Provider:    ProviderStripe,
		OrderID:     pi.Metadata["order_id"],
		ProviderRef: pi.ID,
		Status:      st,
	}, nil
}

func (sg *StripeGateway) mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeCardDeclined:
			return fmt.Errorf("%w: card was declined (%s)", ErrPaymentFailed, stripeErr.Msg)
		case stripe.ErrorCodeExpiredCard:
			return fmt.Errorf("%w: card has expired", ErrPaymentFailed)
		}
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return ErrProviderDown
		}
	}
	return fmt.Errorf("stripe: %w", err)
}
