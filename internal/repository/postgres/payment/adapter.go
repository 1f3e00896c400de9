package postgres

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
)

type PaymentStoreAdapter struct {
	repo *PaymentRepo
}

func NewPaymentStoreAdapter(repo *PaymentRepo) *PaymentStoreAdapter {
	return &PaymentStoreAdapter{repo: repo}
}

func (a *PaymentStoreAdapter) Create(ctx context.Context, p payuc.Payment) (*payuc.Payment, error) {
	row, err := a.repo.Create(ctx, PaymentRow{
		OrderID:     p.OrderID,
		UserID:      p.UserID,
		Purpose:     string(p.Purpose),
		Provider:    string(p.Provider),
		Amount:      p.Amount.String(),
		Currency:    p.Currency,
		Status:      string(p.Status),
		ReferenceID: p.ReferenceID,
		Payload:     p.Payload,
	})
	if err != nil {
		return nil, err
	}
	return mapPayment(row)
}

func (a *PaymentStoreAdapter) GetByOrderID(ctx context.Context, orderID string) (*payuc.Payment, error) {
	row, err := a.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, payuc.ErrNotFound
		}
		return nil, err
	}
	return mapPayment(row)
}

func (a *PaymentStoreAdapter) GetByProviderRef(ctx context.Context, provider payuc.Provider, ref string) (*payuc.Payment, error) {
	row, err := a.repo.GetByProviderRef(ctx, string(provider), ref)
	if err != nil {
		if isNoRows(err) {
			return nil, payuc.ErrNotFound
		}
		return nil, err
	}
	return mapPayment(row)
}

func (a *PaymentStoreAdapter) SetProviderRef(ctx context.Context, orderID, ref string) error {
	if err := a.repo.SetProviderRef(ctx, orderID, ref); err != nil {
		if isNoRows(err) {
			return payuc.ErrNotFound
		}
		return err
	}
	return nil
}

func (a *PaymentStoreAdapter) SetReference(ctx context.Context, orderID, referenceID string) error {
	if err := a.repo.SetReference(ctx, orderID, referenceID); err != nil {
		if isNoRows(err) {
			return payuc.ErrNotFound
		}
		return err
	}
	return nil
}

func (a *PaymentStoreAdapter) Settle(ctx context.Context, orderID string, st payuc.Status) (*payuc.Payment, bool, error) {
	row, changed, err := a.repo.Settle(ctx, orderID, string(st), func(cur string) bool {
		return st.Settles(payuc.Status(cur))
	})
	if err != nil {
		if isNoRows(err) {
			return nil, false, payuc.ErrNotFound
		}
		return nil, false, err
	}
	p, err := mapPayment(row)
	if err != nil {
		return nil, false, err
	}
	return p, changed, nil
}

func mapPayment(r *PaymentRow) (*payuc.Payment, error) {
	amt, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, err
	}
	out := &payuc.Payment{
		ID:          r.ID,
		OrderID:     r.OrderID,
		UserID:      r.UserID,
		Purpose:     payuc.Purpose(r.Purpose),
		Provider:    payuc.Provider(r.Provider),
		ProviderRef: r.ProviderRef,
		Amount:      amt,
		Currency:    r.Currency,
		Status:      payuc.Status(r.Status),
		ReferenceID: r.ReferenceID,
		SettledAt:   r.SettledAt,
		CreatedAt:   r.CreatedAt,
	}
	if len(r.Payload) > 0 {
		out.Payload = json.RawMessage(r.Payload)
	}
	return out, nil
}

// Compile-time check
var _ payuc.Store = (*PaymentStoreAdapter)(nil)
