package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/domain/listing"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
)

type ShopperAdStoreAdapter struct {
	repo *ShopperAdRepo
}

func NewShopperAdStoreAdapter(repo *ShopperAdRepo) *ShopperAdStoreAdapter {
	return &ShopperAdStoreAdapter{repo: repo}
}

func (a *ShopperAdStoreAdapter) Create(ctx context.Context, ownerID string, in sauc.CreateInput, q sauc.FeeQuote) (*sauc.ShopperAd, error) {
	row, err := a.repo.Create(ctx, ShopperAdRow{
		UserID:           ownerID,
		ProductURL:       in.ProductURL,
		ProductName:      in.ProductName,
		ProductImage:     in.ProductImage,
		ProductPrice:     in.ProductPrice.String(),
		ProductCurrency:  in.ProductCurrency,
		ProductWeight:    in.ProductWeight.String(),
		Quantity:         in.Quantity,
		TotalPriceIDR:    q.TotalPriceIDR.String(),
		TotalWeight:      q.TotalWeight.String(),
		CommissionIDR:    q.Commission.IDR.String(),
		CommissionNative: q.Commission.Native.String(),
		CommissionCurr:   string(q.Commission.Currency),
		ShipCity:         in.ShippingAddress.City,
		ShipCountry:      in.ShippingAddress.Country,
		ShipFullAddress:  in.ShippingAddress.FullAddress,
		LocalCourier:     in.LocalCourier,
		Notes:            in.Notes,
	})
	if err != nil {
		return nil, err
	}
	return mapShopperAd(row)
}

func (a *ShopperAdStoreAdapter) GetByID(ctx context.Context, id string) (*sauc.ShopperAd, error) {
	row, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sauc.ErrNotFound
		}
		return nil, err
	}
	return mapShopperAd(row)
}

func (a *ShopperAdStoreAdapter) List(ctx context.Context, f sauc.ListFilter) ([]sauc.ShopperAd, error) {
	rows, err := a.repo.List(ctx, string(f.Status), f.OwnerID, f.TravelerID)
	if err != nil {
		return nil, err
	}
	return mapShopperAds(rows)
}

func (a *ShopperAdStoreAdapter) ListMine(ctx context.Context, userID string) ([]sauc.ShopperAd, error) {
	rows, err := a.repo.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapShopperAds(rows)
}

// Update merges in over expected and writes it back while the status is unchanged.
func (a *ShopperAdStoreAdapter) Update(ctx context.Context, id string, expected sauc.ShopperAd, in sauc.UpdateInput, q sauc.FeeQuote) (*sauc.ShopperAd, error) {
	row := ShopperAdRow{
		ProductName:      expected.ProductName,
		Quantity:         expected.Quantity,
		TotalPriceIDR:    q.TotalPriceIDR.String(),
		TotalWeight:      q.TotalWeight.String(),
		CommissionIDR:    q.Commission.IDR.String(),
		CommissionNative: q.Commission.Native.String(),
		ShipCity:         expected.ShippingAddress.City,
		ShipCountry:      expected.ShippingAddress.Country,
		ShipFullAddress:  expected.ShippingAddress.FullAddress,
		LocalCourier:     expected.LocalCourier,
		Notes:            expected.Notes,
	}
	if in.ProductName != nil {
		row.ProductName = *in.ProductName
	}
	if in.Quantity != nil {
		row.Quantity = *in.Quantity
	}
	if in.ShippingAddress != nil {
		row.ShipCity = in.ShippingAddress.City
		row.ShipCountry = in.ShippingAddress.Country
		row.ShipFullAddress = in.ShippingAddress.FullAddress
	}
	if in.LocalCourier != nil {
		row.LocalCourier = in.LocalCourier
	}
	if in.Notes != nil {
		row.Notes = in.Notes
	}

	out, err := a.repo.Update(ctx, id, string(expected.Status), row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, a.missingOrConflict(ctx, id)
		}
		return nil, err
	}
	return mapShopperAd(out)
}

// Transition moves the status and records a refund in one transaction.
func (a *ShopperAdStoreAdapter) Transition(ctx context.Context, id string, c sauc.Change) (*sauc.ShopperAd, error) {
	tx, err := a.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t := TransitionRow{
		From:           string(c.From),
		To:             string(c.To),
		ClearTraveler:  c.ClearTraveler,
		TrackingNumber: c.TrackingNumber,
	}
	if c.SetTraveler != "" {
		t.SetTraveler = &c.SetTraveler
	}
	if c.FromTraveler != "" {
		t.FromTraveler = &c.FromTraveler
	}

	if err := a.repo.TransitionTx(ctx, tx, id, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, a.missingOrConflict(ctx, id)
		}
		return nil, err
	}
	if c.Refund != nil {
		if err := a.repo.InsertRefundTx(ctx, tx, c.Refund.ShopperAdID, c.Refund.UserID, c.Refund.AmountIDR.String()); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a.GetByID(ctx, id)
}

func (a *ShopperAdStoreAdapter) missingOrConflict(ctx context.Context, id string) error {
	ok, err := a.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return sauc.ErrNotFound
	}
	return sauc.ErrConflict
}

func mapShopperAds(rows []ShopperAdRow) ([]sauc.ShopperAd, error) {
	out := make([]sauc.ShopperAd, 0, len(rows))
	for i := range rows {
		sa, err := mapShopperAd(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *sa)
	}
	return out, nil
}

func mapShopperAd(r *ShopperAdRow) (*sauc.ShopperAd, error) {
	out := &sauc.ShopperAd{
		ID:              r.ID,
		UserID:          r.UserID,
		ProductURL:      r.ProductURL,
		ProductName:     r.ProductName,
		ProductImage:    r.ProductImage,
		ProductCurrency: listing.Currency(r.ProductCurrency),
		Quantity:        r.Quantity,
		ShippingAddress: sauc.Address{
			City:        r.ShipCity,
			Country:     r.ShipCountry,
			FullAddress: r.ShipFullAddress,
		},
		LocalCourier:     r.LocalCourier,
		Notes:            r.Notes,
		Status:           listing.Status(r.Status),
		SelectedTraveler: r.SelectedTraveler,
		TrackingNumber:   r.TrackingNumber,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	out.Commission.Currency = listing.Currency(r.CommissionCurr)

	var err error
	if out.ProductPrice, err = decimal.NewFromString(r.ProductPrice); err != nil {
		return nil, err
	}
	if out.ProductWeight, err = decimal.NewFromString(r.ProductWeight); err != nil {
		return nil, err
	}
	if out.TotalPriceIDR, err = decimal.NewFromString(r.TotalPriceIDR); err != nil {
		return nil, err
	}
	if out.TotalWeight, err = decimal.NewFromString(r.TotalWeight); err != nil {
		return nil, err
	}
	if out.Commission.IDR, err = decimal.NewFromString(r.CommissionIDR); err != nil {
		return nil, err
	}
	if out.Commission.Native, err = decimal.NewFromString(r.CommissionNative); err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ sauc.Store = (*ShopperAdStoreAdapter)(nil)
