package shopperad

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	"github.com/abyuwono/bagasi/internal/validation"
)

// FeeCalculator converts product prices to IDR and derives the traveler commission.
type FeeCalculator struct {
	rate   decimal.Decimal
	minIDR decimal.Decimal
	rates  map[listing.Currency]decimal.Decimal
}

func NewFeeCalculator(f config.Fees) *FeeCalculator {
	rates := make(map[listing.Currency]decimal.Decimal, len(f.Rates))
	for k, v := range f.Rates {
		c, err := listing.ParseCurrency(k)
		if err != nil {
			continue
		}
		rates[c] = v
	}
	rates[listing.CurrencyIDR] = decimal.NewFromInt(1)
	return &FeeCalculator{rate: f.CommissionRate, minIDR: f.CommissionMinIDR, rates: rates}
}

func (c *FeeCalculator) Quote(in FeeInput) (FeeQuote, error) {
	if err := validation.Struct(in); err != nil {
		return FeeQuote{}, err
	}
	if !in.ProductPrice.IsPositive() || !in.ProductWeight.IsPositive() {
		return FeeQuote{}, ErrInvalidInput
	}
	cur, _ := listing.ParseCurrency(in.ProductCurrency)
	rate, ok := c.rates[cur]
	if !ok {
		return FeeQuote{}, fmt.Errorf("%w: no exchange rate for %s", listing.ErrUnknownCurrency, cur)
	}

	qty := decimal.NewFromInt(int64(in.Quantity))
	totalIDR := in.ProductPrice.Mul(qty).Mul(rate).Round(0)

	commissionIDR := totalIDR.Mul(c.rate).Round(0)
	if commissionIDR.LessThan(c.minIDR) {
		commissionIDR = c.minIDR
	}

	return FeeQuote{
		TotalPriceIDR: totalIDR,
		TotalWeight:   in.ProductWeight.Mul(qty),
		Commission: Commission{
			IDR:      commissionIDR,
			Native:   commissionIDR.Div(rate).Round(2),
			Currency: cur,
		},
	}, nil
}
