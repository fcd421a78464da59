package domain

import (
	folio_errors "folio/internal"
)

type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Currencies is the fixed priority order used when a sell has to be matched
// against lots recorded in a different currency.
var Currencies = []Currency{RUB, USD, EUR}

func (c Currency) Supported() bool {
	return c == RUB || c == USD || c == EUR
}

func ParseCurrency(s string) (Currency, error) {
	// broker reports write RUR for the pre-1998 code
	if s == "RUR" {
		s = "RUB"
	}
	c := Currency(s)
	if !c.Supported() {
		return "", folio_errors.ErrUnsupportedCurrency{Currency: s}
	}
	return c, nil
}
