package shopperad

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
)

type Address struct {
	City        string `json:"city"`
	Country     string `json:"country"`
	FullAddress string `json:"fullAddress,omitempty"`
}

type Commission struct {
	IDR      decimal.Decimal  `json:"idr"`
	Native   decimal.Decimal  `json:"native"`
	Currency listing.Currency `json:"currency"`
}

type ShopperAd struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	ProductURL      string           `json:"productUrl"`
	ProductName     string           `json:"productName"`
	ProductImage    *string          `json:"productImage,omitempty"`
	ProductPrice    decimal.Decimal  `json:"productPrice"`
	ProductCurrency listing.Currency `json:"productCurrency"`
	ProductWeight   decimal.Decimal  `json:"productWeight"`
	Quantity        int              `json:"quantity"`

	TotalPriceIDR decimal.Decimal `json:"totalPriceIdr"`
	TotalWeight   decimal.Decimal `json:"totalWeight"`
	Commission    Commission      `json:"commission"`

	ShippingAddress Address `json:"shippingAddress"`
	LocalCourier    *string `json:"localCourier,omitempty"`
	Notes           *string `json:"notes,omitempty"`

	Status           listing.Status `json:"status"`
	SelectedTraveler *string        `json:"selectedTraveler,omitempty"`
	TrackingNumber   *string        `json:"trackingNumber,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *ShopperAd) ListingKind() listing.Kind { return listing.KindShopper }
func (s *ShopperAd) ListingID() string { return s.ID }
func (s *ShopperAd) Owner() string { return s.UserID }
func (s *ShopperAd) CurrentStatus() listing.Status { return s.Status }

func (s *ShopperAd) SelectedTravelerID() string {
	if s.SelectedTraveler == nil {
		return ""
	}
	return *s.SelectedTraveler
}

// MaskedFor returns a copy safe to show to viewerID.
func (s ShopperAd) MaskedFor(viewerID string) ShopperAd {
	if !listing.RevealsAddress(s.Status, viewerID, s.SelectedTravelerID()) {
		s.ShippingAddress.FullAddress = ""
	}
	return s
}

// RefundAmount is what the shopper gets back on a terminal cancellation.
func (s *ShopperAd) RefundAmount() decimal.Decimal {
	return s.TotalPriceIDR.Add(s.Commission.IDR)
}

type Viewer = account.Viewer

type CreateInput struct {
	ProductURL      string          `json:"productUrl" validate:"required,url"`
	ProductName     string          `json:"productName" validate:"required,max=200"`
	ProductImage    *string         `json:"productImage" validate:"omitempty,url"`
	ProductPrice    decimal.Decimal `json:"productPrice"`
	ProductCurrency string          `json:"productCurrency" validate:"required,currency"`
	ProductWeight   decimal.Decimal `json:"productWeight"`
	Quantity        int             `json:"quantity" validate:"required,gt=0,max=100"`
	ShippingAddress AddressInput    `json:"shippingAddress"`
	LocalCourier    *string         `json:"localCourier" validate:"omitempty,max=60"`
	Notes           *string         `json:"notes" validate:"omitempty,max=1000"`
}

type AddressInput struct {
	City        string `json:"city" validate:"required,max=80"`
	Country     string `json:"country" validate:"required,max=80"`
	FullAddress string `json:"fullAddress" validate:"required,max=500"`
}

type UpdateInput struct {
	ProductName     *string       `json:"productName" validate:"omitempty,max=200"`
	Quantity        *int          `json:"quantity" validate:"omitempty,gt=0,max=100"`
	ShippingAddress *AddressInput `json:"shippingAddress"`
	LocalCourier    *string       `json:"localCourier" validate:"omitempty,max=60"`
	Notes           *string       `json:"notes" validate:"omitempty,max=1000"`
}

type ListFilter struct {
	Status     listing.Status
	OwnerID    string
	TravelerID string
}

// Change is a status compare-and-swap applied by the store.
// Change is applied only while the ad still has status From and selected traveler
// FromTraveler ("" for none); otherwise the store returns ErrConflict.
type Change struct {
	From           listing.Status
	FromTraveler   string
	To             listing.Status
	SetTraveler    string
	ClearTraveler  bool
	TrackingNumber *string
	Refund         *Refund
}

type Refund struct {
	ShopperAdID string          `json:"shopperAdId"`
	UserID      string          `json:"userId"`
	AmountIDR   decimal.Decimal `json:"amountIdr"`
}

// FeeInput is the body of /shopper-ads/calculate-fees.
type FeeInput struct {
	ProductPrice    decimal.Decimal `json:"productPrice"`
	ProductCurrency string          `json:"productCurrency" validate:"required,currency"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	ProductWeight   decimal.Decimal `json:"productWeight"`
}

type FeeQuote struct {
	TotalPriceIDR decimal.Decimal `json:"totalPriceIdr"`
	TotalWeight   decimal.Decimal `json:"totalWeight"`
	Commission    Commission      `json:"commission"`
}

type Product struct {
	URL      string           `json:"url"`
	Name     string           `json:"name"`
	Image    string           `json:"image,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency listing.Currency `json:"currency,omitempty"`
}
