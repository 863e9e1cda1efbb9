package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the in-game currency amounts are displayed in.
const DefaultCurrency = money.USD

// Format renders an amount with currency symbol and grouping, e.g. "$1,500.00".
func Format(amount decimal.Decimal) string {
	return FormatIn(amount, DefaultCurrency)
}

func FormatIn(amount decimal.Decimal, currency string) string {
	minor := amount.Shift(2).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// Amount is the JSON shape used for monetary values in API responses.
type Amount struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d.StringFixed(2), Formatted: Format(d)}
}
