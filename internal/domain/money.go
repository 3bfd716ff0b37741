package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Format renders m prefixed with its currency symbol as used in tag,
// e.g. "R$ 10.00" for BRL.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(m.Currency.Amount(m.Amount.InexactFloat64())))
}
