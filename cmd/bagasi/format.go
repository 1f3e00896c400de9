package main

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// money formats an amount the way Indonesian users read prices, e.g. "Rp 150.000".
func money(d decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return d.StringFixed(2) + " " + code
	}
	scale, _ := currency.Standard.Rounding(unit)
	return printer.Sprint(currency.Symbol(unit.Amount(d.Round(int32(scale)).InexactFloat64())))
}
