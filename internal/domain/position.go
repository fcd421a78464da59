package domain

import "github.com/shopspring/decimal"

// PositionKey scopes a holding by the currency it was acquired in. Cash
// balances live under (currency, currency) pseudo-instruments.
type PositionKey struct {
	Instrument string
	Currency   Currency
}

func CashKey(c Currency) PositionKey {
	return PositionKey{Instrument: string(c), Currency: c}
}

func (k PositionKey) IsCash() bool {
	return k.Instrument == string(k.Currency)
}

// Positions maps (instrument, acquisition currency) to a signed quantity.
// For cash keys the quantity is the balance in that currency.
type Positions map[PositionKey]decimal.Decimal

func (p Positions) Add(key PositionKey, qty decimal.Decimal) {
	p[key] = p[key].Add(qty)
}

// Rename carries the balance of an old instrument identifier forward under a
// new one (fixed corporate-action remaps, e.g. bond ISIN changes). Only
// applies when the old key holds a balance and the new one does not yet.
func (p Positions) Rename(from, to PositionKey) {
	if _, ok := p[to]; ok {
		return
	}
	if qty, ok := p[from]; ok {
		p[to] = qty
		delete(p, from)
	}
}
