package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
)

type AdStoreAdapter struct {
	repo *AdRepo
}

func NewAdStoreAdapter(repo *AdRepo) *AdStoreAdapter {
	return &AdStoreAdapter{repo: repo}
}

func (a *AdStoreAdapter) Create(ctx context.Context, ownerID string, in aduc.CreateInput) (*aduc.Ad, error) {
	id, err := a.repo.Create(ctx, AdRow{
		UserID:              ownerID,
		DepartureCity:       in.DepartureCity,
		ArrivalCity:         in.ArrivalCity,
		DepartureDate:       in.DepartureDate,
		ExpiresAt:           in.ExpiresAt,
		AvailableWeight:     in.AvailableWeight.String(),
		PricePerKg:          in.PricePerKg.String(),
		Currency:            in.Currency,
		CustomDisplayName:   in.CustomDisplayName,
		CustomRating:        in.CustomRating,
		CustomContactNumber: in.CustomContactNumber,
		Notes:               in.Notes,
	})
	if err != nil {
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *AdStoreAdapter) GetByID(ctx context.Context, id string) (*aduc.Ad, error) {
	row, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aduc.ErrNotFound
		}
		return nil, err
	}
	return mapAd(row)
}

// List leaves the status filter to the usecase, which knows the effective status.
func (a *AdStoreAdapter) List(ctx context.Context, f aduc.ListFilter) ([]aduc.Ad, error) {
	rows, err := a.repo.List(ctx, f.Departure, f.Arrival)
	if err != nil {
		return nil, err
	}
	out := make([]aduc.Ad, 0, len(rows))
	for i := range rows {
		ad, err := mapAd(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *ad)
	}
	return out, nil
}

func (a *AdStoreAdapter) Update(ctx context.Context, id string, in aduc.UpdateInput) (*aduc.Ad, error) {
	row := AdRow{
		CustomDisplayName:   in.CustomDisplayName,
		CustomRating:        in.CustomRating,
		CustomContactNumber: in.CustomContactNumber,
		Notes:               in.Notes,
	}
	if in.AvailableWeight != nil {
		row.AvailableWeight = in.AvailableWeight.String()
	}
	if in.PricePerKg != nil {
		row.PricePerKg = in.PricePerKg.String()
	}
	if err := a.repo.Update(ctx, id, row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aduc.ErrConflict
		}
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *AdStoreAdapter) Book(ctx context.Context, id, shopperID string, weight decimal.Decimal) (*aduc.Ad, error) {
	if err := a.repo.Book(ctx, id, shopperID, weight.String()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aduc.ErrConflict
		}
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *AdStoreAdapter) ExpireDue(ctx context.Context, today time.Time) (int64, error) {
	return a.repo.ExpireDue(ctx, today)
}

func mapAd(r *AdRow) (*aduc.Ad, error) {
	weight, err := decimal.NewFromString(r.AvailableWeight)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(r.PricePerKg)
	if err != nil {
		return nil, err
	}

	out := &aduc.Ad{
		ID:                  r.ID,
		UserID:              r.UserID,
		DepartureCity:       r.DepartureCity,
		ArrivalCity:         r.ArrivalCity,
		DepartureDate:       r.DepartureDate,
		ExpiresAt:           r.ExpiresAt,
		AvailableWeight:     weight,
		PricePerKg:          price,
		Currency:            listing.Currency(r.Currency),
		Status:              listing.Status(r.Status),
		CustomDisplayName:   r.CustomDisplayName,
		CustomRating:        r.CustomRating,
		CustomContactNumber: r.CustomContactNumber,
		Notes:               r.Notes,
		BookedBy:            r.BookedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		OwnerName:           r.OwnerName,
		OwnerRating:         r.OwnerRating,
		OwnerPhone:          r.OwnerPhone,
	}
	if r.BookedWeight != nil {
		bw, err := decimal.NewFromString(*r.BookedWeight)
		if err != nil {
			return nil, err
		}
		out.BookedWeight = &bw
	}
	return out, nil
}

// Compile-time check
var _ aduc.Store = (*AdStoreAdapter)(nil)
