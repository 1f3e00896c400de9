package listing

import (
	"errors"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("action not allowed for this user")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrNotFound          = errors.New("ad not found")
)

type Kind string

const (
	KindTravel  Kind = "travel"
	KindShopper Kind = "shopper"
)

type Status string

// travel ad
const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusBooked  Status = "booked"
)

// shopper ad (active shared with travel ads)
const (
	StatusDraft        Status = "draft"
	StatusInDiscussion Status = "in_discussion"
	StatusAccepted     Status = "accepted"
	StatusShipped      Status = "shipped"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

type Action string

const (
	ActionPublish        Action = "publish"
	ActionRequestHelp    Action = "request_help"
	ActionAcceptTraveler Action = "accept_traveler"
	ActionRejectTraveler Action = "reject_traveler"
	ActionTravelerCancel Action = "traveler_cancel"
	ActionShip           Action = "ship"
	ActionComplete       Action = "complete"
	ActionShopperCancel  Action = "shopper_cancel"
	ActionEdit           Action = "edit"
	ActionBook           Action = "book"
	ActionExpire         Action = "expire"
)

// Relation is how a viewer stands to a listing.
type Relation string

const (
	RelationOwner            Relation = "owner"
	RelationSelectedTraveler Relation = "selected_traveler"
	RelationOther            Relation = "other"
	RelationSystem           Relation = "system"
)

// Listing is implemented by both ad kinds.
type Listing interface {
	ListingKind() Kind
	ListingID() string
	Owner() string
	CurrentStatus() Status
	SelectedTravelerID() string
}

func RelationOf(viewerID string, l Listing) Relation {
	switch {
	case viewerID == "":
		return RelationOther
	case viewerID == l.Owner():
		return RelationOwner
	case l.SelectedTravelerID() != "" && viewerID == l.SelectedTravelerID():
		return RelationSelectedTraveler
	default:
		return RelationOther
	}
}

type Currency string

const (
	CurrencyAUD Currency = "AUD"
	CurrencyIDR Currency = "IDR"
	CurrencyUSD Currency = "USD"
	CurrencySGD Currency = "SGD"
	CurrencyKRW Currency = "KRW"
)

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CurrencyAUD, CurrencyIDR, CurrencyUSD, CurrencySGD, CurrencyKRW:
		return c, nil
	default:
		return "", ErrUnknownCurrency
	}
}

// RevealsAddress reports whether the full shipping address of a shopper ad may be shown to viewerID.
// Only the selected traveler of an accepted ad sees it; everyone else, the owner included, sees city and country.
func RevealsAddress(status Status, viewerID, selectedTravelerID string) bool {
	return status == StatusAccepted && viewerID != "" && viewerID == selectedTravelerID
}

// Parties identifies who takes part in an ad of either kind.
// Counterparty is the booker of a travel ad or the selected traveler of a shopper ad.
type Parties struct {
	Kind         Kind
	Status       Status
	OwnerID      string
	Counterparty string
}

func (p Parties) Includes(userID string) bool {
	return userID != "" && (userID == p.OwnerID || userID == p.Counterparty)
}

// Settled reports whether the ad reached the status after which reviews are accepted.
func (p Parties) Settled() bool {
	if p.Kind == KindTravel {
		return p.Status == StatusBooked
	}
	return p.Status == StatusCompleted
}
