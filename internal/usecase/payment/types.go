package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Purpose string

const (
	PurposeShopperAd  Purpose = "shopper_ad"
	PurposeAdPosting  Purpose = "ad_posting"
	PurposeMembership Purpose = "membership"
)

type Provider string

const (
	ProviderStripe   Provider = "stripe"
	ProviderMidtrans Provider = "midtrans"
)

func (p Provider) Valid() bool {
	return p == ProviderStripe || p == ProviderMidtrans
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusCancel  Status = "cancel"
	StatusExpire  Status = "expire"
)

// Terminal statuses end polling and settle the payment.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancel, StatusExpire:
		return true
	}
	return false
}

// Settles reports whether a payment currently in cur moves to s. A success
// still lands after a failed attempt, since providers let the customer retry.
func (s Status) Settles(cur Status) bool {
	return cur == StatusPending || (cur == StatusFailed && s == StatusSuccess)
}

type Payment struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	Purpose     Purpose         `json:"purpose"`
	Provider    Provider        `json:"provider"`
	ProviderRef *string         `json:"providerRef,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	ReferenceID *string         `json:"referenceId,omitempty"`
	// ad draft for ad_posting payments
	Payload   json.RawMessage `json:"-"`
	SettledAt *time.Time      `json:"settledAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Intent is what the client hands to the payment widget.
type Intent struct {
	OrderID      string          `json:"orderId"`
	Provider     Provider        `json:"provider"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ClientSecret string          `json:"clientSecret,omitempty"`
	SnapToken    string          `json:"token,omitempty"`
	RedirectURL  string          `json:"redirectUrl,omitempty"`
}

type StatusView struct {
	OrderID     string  `json:"orderId"`
	Status      Status  `json:"status"`
	Purpose     Purpose `json:"purpose"`
	ReferenceID *string `json:"referenceId,omitempty"`
}

type MembershipPrice struct {
	AmountIDR decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Days      int             `json:"days"`
}

type CheckoutRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    map[string]string
}

type Checkout struct {
	ProviderRef  string
	ClientSecret string
	SnapToken    string
	RedirectURL  string
}

// ProviderEvent is a webhook notification reduced to what settlement needs.
type ProviderEvent struct {
	Provider    Provider
	OrderID     string
	ProviderRef string
	Status      Status
}
