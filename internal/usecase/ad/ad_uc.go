package ad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/validation"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("ad not found")
	ErrConflict     = errors.New("ad changed concurrently")
	ErrOverCapacity = errors.New("requested weight exceeds available weight")
)

type Store interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (*Ad, error)
	GetByID(ctx context.Context, id string) (*Ad, error)
	List(ctx context.Context, f ListFilter) ([]Ad, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Ad, error)
	// Book must only succeed while the row is still active (compare-and-swap on status).
	Book(ctx context.Context, id, shopperID string, weight decimal.Decimal) (*Ad, error)
	ExpireDue(ctx context.Context, today time.Time) (int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, body, adID string) error
}

type Usecase struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func New(store Store, notifier Notifier) *Usecase {
	return &Usecase{store: store, notifier: notifier, now: time.Now}
}

// Create persists a travel ad. It is called once the posting fee has been paid.
func (u *Usecase) Create(ctx context.Context, ownerID string, in CreateInput) (*Ad, error) {
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}
	in.DepartureCity = strings.TrimSpace(in.DepartureCity)
	in.ArrivalCity = strings.TrimSpace(in.ArrivalCity)
	c, _ := listing.ParseCurrency(in.Currency)
	in.Currency = string(c)
	return u.store.Create(ctx, ownerID, in)
}

// ValidateCreate runs the ad posting form schema; used before the posting payment is started.
func ValidateCreate(in CreateInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	var errs validation.Errors
	if !in.AvailableWeight.IsPositive() {
		errs = append(errs, validation.FieldError{Field: "availableWeight", Message: "must be greater than 0"})
	}
	if !in.PricePerKg.IsPositive() {
		errs = append(errs, validation.FieldError{Field: "pricePerKg", Message: "must be greater than 0"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (u *Usecase) Get(ctx context.Context, id string, viewer Viewer) (*View, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	a, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := u.view(a, viewer)
	return &v, nil
}

// List returns the full collection; the client paginates.
func (u *Usecase) List(ctx context.Context, f ListFilter, viewer Viewer) ([]View, error) {
	f.Departure = strings.TrimSpace(f.Departure)
	f.Arrival = strings.TrimSpace(f.Arrival)

	ads, err := u.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(ads))
	for i := range ads {
		v := u.view(&ads[i], viewer)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (u *Usecase) Update(ctx context.Context, id string, viewer Viewer, in UpdateInput) (*View, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.AvailableWeight != nil && !in.AvailableWeight.IsPositive() {
		return nil, ErrInvalidInput
	}
	if in.PricePerKg != nil && !in.PricePerKg.IsPositive() {
		return nil, ErrInvalidInput
	}

	a, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rel := listing.RelationOf(viewer.ID, a)
	if _, err := listing.TravelAdMachine.Next(a.EffectiveStatus(u.now()), listing.ActionEdit, rel); err != nil {
		return nil, err
	}

	updated, err := u.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	v := u.view(updated, viewer)
	return &v, nil
}

// Book reserves weight on an active ad for a shopper.
func (u *Usecase) Book(ctx context.Context, id string, viewer Viewer, in BookInput) (*View, error) {
	if !in.Weight.IsPositive() {
		return nil, ErrInvalidInput
	}
	if viewer.Role != account.RoleShopper {
		return nil, fmt.Errorf("%w: only shoppers can book", listing.ErrForbidden)
	}

	a, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rel := listing.RelationOf(viewer.ID, a)
	if _, err := listing.TravelAdMachine.Next(a.EffectiveStatus(u.now()), listing.ActionBook, rel); err != nil {
		return nil, err
	}
	if in.Weight.GreaterThan(a.AvailableWeight) {
		return nil, fmt.Errorf("%w: available=%s requested=%s", ErrOverCapacity, a.AvailableWeight, in.Weight)
	}

	booked, err := u.store.Book(ctx, id, viewer.ID, in.Weight)
	if err != nil {
		return nil, err
	}

	if u.notifier != nil {
		err := u.notifier.Notify(ctx, booked.UserID, "ad.booked", "Iklan kamu dipesan",
			fmt.Sprintf("%s kg dipesan untuk %s - %s", in.Weight, booked.DepartureCity, booked.ArrivalCity), booked.ID)
		if err != nil {
			slog.WarnContext(ctx, "notify failed", "ad_id", booked.ID, "user_id", booked.UserID, "err", err)
		}
	}

	v := u.view(booked, viewer)
	return &v, nil
}

// ExpireDue persists the expired status for ads whose expiry date has passed.
func (u *Usecase) ExpireDue(ctx context.Context) (int64, error) {
	return u.store.ExpireDue(ctx, dateOnly(u.now()))
}

func (u *Usecase) view(a *Ad, viewer Viewer) View {
	v := View{Ad: *a, Status: a.EffectiveStatus(u.now())}

	v.User.DisplayName = a.OwnerName
	if a.CustomDisplayName != nil && *a.CustomDisplayName != "" {
		v.User.DisplayName = *a.CustomDisplayName
	}
	v.User.Rating = a.OwnerRating
	if a.CustomRating != nil && *a.CustomRating != "" {
		v.User.Rating = a.CustomRating
	}

	contact := a.OwnerPhone
	if a.CustomContactNumber != nil && *a.CustomContactNumber != "" {
		contact = a.CustomContactNumber
	}
	if viewer.ID == a.UserID || viewer.Member {
		v.User.ContactNumber = contact
	} else {
		v.User.ContactLocked = contact != nil
	}

	// overrides are presentation only
	v.Ad.CustomContactNumber = nil
	if viewer.ID != a.UserID {
		v.Ad.BookedBy = nil
	}
	return v
}
