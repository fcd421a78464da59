package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is either a security Order or a CashMovement. The ledger is
// append-only; these are read-only views of what the broker reports recorded.
type Transaction interface {
	TransactionDate() time.Time
}

// Order is a security buy (positive Quantity) or sell (negative Quantity).
// Amount carries the settlement cost or proceeds; the replay engine only
// trusts its magnitude and derives the cash direction from Quantity.
type Order struct {
	Date        time.Time
	ISIN        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Amount      decimal.Decimal
	Currency    Currency
	Market      string
	PortfolioID int64
	BrokerID    int64
}

func (o Order) TransactionDate() time.Time { return o.Date }

type CashCategory string

const (
	CashOperating  CashCategory = "money"
	CashDividend   CashCategory = "dividends"
	CashCommission CashCategory = "commission"
)

// CashMovement is a deposit, withdrawal, dividend or commission, depending on
// which sub-ledger it was read from.
type CashMovement struct {
	Date        time.Time
	Currency    Currency
	Amount      decimal.Decimal
	Category    CashCategory
	Comment     string
	PortfolioID int64
	BrokerID    int64
}

func (m CashMovement) TransactionDate() time.Time { return m.Date }

// Security is the stored metadata for an instrument.
type Security struct {
	ISIN      string
	Ticker    string
	Name      string
	Currency  Currency
	Type      string
	FaceValue decimal.Decimal
	FIGI      string
}
