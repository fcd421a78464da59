package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
)

// converter turns prices into RUB terms using the USD and EUR quote series,
// carrying the last observed quote forward across non-trading days. The
// carry-forward state is threaded day by day: Observe must be called for
// every calendar day in order before Rate is asked about that day.
type converter struct {
	usd  *domain.Quotes
	eur  *domain.Quotes
	prev map[domain.Currency]decimal.Decimal
}

func newConverter(usd, eur *domain.Quotes) *converter {
	return &converter{
		usd:  usd,
		eur:  eur,
		prev: map[domain.Currency]decimal.Decimal{},
	}
}

func (c *converter) Observe(day time.Time) {
	if p, ok := c.usd.Get(day); ok {
		c.prev[domain.USD] = p
	}
	if p, ok := c.eur.Get(day); ok {
		c.prev[domain.EUR] = p
	}
}

// Rate is the RUB price of one unit of cur on day: the same-day quote when
// the board traded, otherwise the most recent known one.
func (c *converter) Rate(cur domain.Currency, day time.Time) (decimal.Decimal, error) {
	var quotes *domain.Quotes
	switch cur {
	case domain.RUB:
		return decimal.NewFromInt(1), nil
	case domain.USD:
		quotes = c.usd
	case domain.EUR:
		quotes = c.eur
	default:
		return decimal.Zero, folio_errors.ErrUnsupportedCurrency{Currency: string(cur)}
	}

	if p, ok := quotes.Get(day); ok {
		return p, nil
	}
	if p, ok := c.prev[cur]; ok {
		return p, nil
	}
	return decimal.Zero, folio_errors.ErrDataGap{Instrument: string(cur), Want: day}
}

// Convert reprices an amount from one currency into another on day.
func (c *converter) Convert(amount decimal.Decimal, from, to domain.Currency, day time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	r1, err := c.Rate(from, day)
	if err != nil {
		return decimal.Zero, err
	}
	r2, err := c.Rate(to, day)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(r1).Div(r2), nil
}
