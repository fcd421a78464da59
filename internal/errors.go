package folio_errors

import (
	"fmt"
	"time"
)

// ErrNegativePosition means the ledger implies a short sale: replaying the
// security orders drove some instrument's running quantity below zero.
type ErrNegativePosition struct {
	Instrument string
	Date       time.Time
}

func (e ErrNegativePosition) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("ledger implies negative position for %s", e.Instrument)
	}
	return fmt.Sprintf("ledger implies negative position for %s on %s", e.Instrument, e.Date.Format("2006-01-02"))
}

// ErrEmptyLedger means there is no transaction to seed a valuation range from.
type ErrEmptyLedger struct {
	PortfolioID int64
}

func (e ErrEmptyLedger) Error() string {
	return fmt.Sprintf("portfolio %d has no transactions", e.PortfolioID)
}

type ErrUnsupportedCurrency struct {
	Currency string
}

func (e ErrUnsupportedCurrency) Error() string {
	return fmt.Sprintf("unsupported currency %q", e.Currency)
}

// ErrDataGap means the quote history could not be extended to cover the
// requested range, even after fetching from the market-data source.
type ErrDataGap struct {
	Instrument string
	Have       time.Time
	Want       time.Time
}

func (e ErrDataGap) Error() string {
	return fmt.Sprintf("quote history for %s ends %s, need %s",
		e.Instrument, e.Have.Format("2006-01-02"), e.Want.Format("2006-01-02"))
}

// ErrInconsistentSeries is a logic bug: two series meant to be date-aligned
// differ in length or keys.
type ErrInconsistentSeries struct {
	Left  string
	Right string
}

func (e ErrInconsistentSeries) Error() string {
	return fmt.Sprintf("series %q and %q are not aligned", e.Left, e.Right)
}
