package portfolio

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
)

// PositionState is one line of the current holdings listing.
type PositionState struct {
	Ticker   string
	Name     string
	Quantity decimal.Decimal
	Currency domain.Currency
	Native   decimal.Decimal // value in the settlement currency
	Value    decimal.Decimal // value in RUB
}

// Snapshot is the portfolio right now, valued with live prices.
type Snapshot struct {
	Total      decimal.Decimal
	Active     decimal.Decimal // total minus idle cash
	Allocation map[domain.Currency]decimal.Decimal // percent of total by exposure currency
	Cash       map[domain.Currency]decimal.Decimal
	Positions  []PositionState
}

// Snapshot replays the full ledger to now and values every position at the
// live last-traded price.
func (s *Service) Snapshot(ctx context.Context, portfolioID int64, brokerID *int64) (*Snapshot, error) {
	led, err := s.loadLedger(ctx, portfolioID, brokerID, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := led.validate(); err != nil {
		return nil, err
	}

	positions := domain.Positions{}
	for _, tx := range led.transactions {
		if err := led.apply(positions, tx); err != nil {
			return nil, err
		}
	}

	live := map[string]decimal.Decimal{}
	currentPrice := func(instrument string) (decimal.Decimal, error) {
		if p, ok := live[instrument]; ok {
			return p, nil
		}
		p, err := s.quotes.Current(ctx, instrument)
		if err != nil {
			return decimal.Zero, err
		}
		live[instrument] = p
		return p, nil
	}

	liveRate := func(cur domain.Currency) (decimal.Decimal, error) {
		switch cur {
		case domain.RUB:
			return decimal.NewFromInt(1), nil
		case domain.USD, domain.EUR:
			return currentPrice(string(cur))
		default:
			return decimal.Zero, folio_errors.ErrUnsupportedCurrency{Currency: string(cur)}
		}
	}

	snap := &Snapshot{
		Allocation: map[domain.Currency]decimal.Decimal{},
		Cash:       map[domain.Currency]decimal.Decimal{},
	}

	for key, qty := range positions {
		if qty.IsZero() {
			continue
		}

		var state PositionState
		exposure := key.Currency

		if key.IsCash() {
			rate, err := liveRate(key.Currency)
			if err != nil {
				return nil, err
			}
			state = PositionState{
				Ticker:   key.Instrument,
				Name:     key.Instrument,
				Quantity: qty,
				Currency: key.Currency,
				Native:   qty,
				Value:    qty.Mul(rate),
			}
			snap.Cash[key.Currency] = snap.Cash[key.Currency].Add(qty)
		} else {
			price, err := currentPrice(key.Instrument)
			if err != nil {
				return nil, err
			}
			sec, err := s.quotes.Security(ctx, key.Instrument)
			if err != nil {
				return nil, err
			}
			rate, err := liveRate(sec.Currency)
			if err != nil {
				return nil, err
			}
			state = PositionState{
				Ticker:   sec.Ticker,
				Name:     sec.Name,
				Quantity: qty,
				Currency: sec.Currency,
				Native:   price.Mul(qty),
				Value:    price.Mul(rate).Mul(qty),
			}
			exposure = sec.Currency
			if _, ok := s.usdFunds[key.Instrument]; ok {
				// RUB-settled funds holding USD assets count as USD exposure
				exposure = domain.USD
			}
			snap.Active = snap.Active.Add(state.Value)
		}

		snap.Total = snap.Total.Add(state.Value)
		snap.Allocation[exposure] = snap.Allocation[exposure].Add(state.Value)
		snap.Positions = append(snap.Positions, state)
	}

	if snap.Total.IsPositive() {
		for cur := range snap.Allocation {
			snap.Allocation[cur] = snap.Allocation[cur].Div(snap.Total).Mul(hundred)
		}
	}

	sort.Slice(snap.Positions, func(i, j int) bool {
		return snap.Positions[i].Ticker < snap.Positions[j].Ticker
	})
	return snap, nil
}
