package ad

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
)

type Ad struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"userId"`
	DepartureCity       string           `json:"departureCity"`
	ArrivalCity         string           `json:"arrivalCity"`
	DepartureDate       time.Time        `json:"departureDate"`
	ExpiresAt           time.Time        `json:"expiresAt"`
	AvailableWeight     decimal.Decimal  `json:"availableWeight"`
	PricePerKg          decimal.Decimal  `json:"pricePerKg"`
	Currency            listing.Currency `json:"currency"`
	Status              listing.Status   `json:"status"`
	CustomDisplayName   *string          `json:"customDisplayName,omitempty"`
	CustomRating        *string          `json:"customRating,omitempty"`
	CustomContactNumber *string          `json:"customContactNumber,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
	BookedBy            *string          `json:"bookedBy,omitempty"`
	BookedWeight        *decimal.Decimal `json:"bookedWeight,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`

	// owner profile, joined on read
	OwnerName   string  `json:"-"`
	OwnerRating *string `json:"-"`
	OwnerPhone  *string `json:"-"`
}

func (a *Ad) ListingKind() listing.Kind { return listing.KindTravel }
func (a *Ad) ListingID() string { return a.ID }
func (a *Ad) Owner() string { return a.UserID }
func (a *Ad) CurrentStatus() listing.Status { return a.Status }
func (a *Ad) SelectedTravelerID() string { return "" }

// EffectiveStatus reports an active ad past its expiry date as expired before the sweep persists it.
func (a *Ad) EffectiveStatus(now time.Time) listing.Status {
	if a.Status == listing.StatusActive && dateOnly(now).After(dateOnly(a.ExpiresAt)) {
		return listing.StatusExpired
	}
	return a.Status
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PublicProfile is the owner as shown on a listing, after per-ad overrides.
type PublicProfile struct {
	DisplayName   string  `json:"displayName"`
	Rating        *string `json:"rating,omitempty"`
	ContactNumber *string `json:"contactNumber,omitempty"`
	ContactLocked bool    `json:"contactLocked"`
}

type View struct {
	Ad
	Status listing.Status `json:"status"`
	User   PublicProfile  `json:"user"`
}

type Viewer = account.Viewer

type CreateInput struct {
	DepartureCity       string          `json:"departureCity" validate:"required,max=80"`
	ArrivalCity         string          `json:"arrivalCity" validate:"required,max=80"`
	DepartureDate       time.Time       `json:"departureDate" validate:"required"`
	ExpiresAt           time.Time       `json:"expiresAt" validate:"required,ltefield=DepartureDate"`
	AvailableWeight     decimal.Decimal `json:"availableWeight"`
	PricePerKg          decimal.Decimal `json:"pricePerKg"`
	Currency            string          `json:"currency" validate:"required,currency"`
	CustomDisplayName   *string         `json:"customDisplayName" validate:"omitempty,max=80"`
	CustomRating        *string         `json:"customRating" validate:"omitempty,numeric"`
	CustomContactNumber *string         `json:"customContactNumber" validate:"omitempty,min=6,max=20"`
	Notes               *string         `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateInput struct {
	AvailableWeight     *decimal.Decimal `json:"availableWeight"`
	PricePerKg          *decimal.Decimal `json:"pricePerKg"`
	CustomDisplayName   *string          `json:"customDisplayName" validate:"omitempty,max=80"`
	CustomRating        *string          `json:"customRating" validate:"omitempty,numeric"`
	CustomContactNumber *string          `json:"customContactNumber" validate:"omitempty,min=6,max=20"`
	Notes               *string          `json:"notes" validate:"omitempty,max=1000"`
}

type BookInput struct {
	Weight decimal.Decimal `json:"weight"`
}

type ListFilter struct {
	Departure string
	Arrival   string
	Status    listing.Status
}
