package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
)

// ledger is the merged, chronologically sorted view of security orders and
// operating cash movements. Same-day entries keep their original order.
type ledger struct {
	transactions []domain.Transaction
	byDay        map[string][]domain.Transaction
	firstDay     time.Time
	changes      map[string]string
}

func buildLedger(orders []domain.Order, cash []domain.CashMovement, changes map[string]string) (*ledger, error) {
	merged := make([]domain.Transaction, 0, len(orders)+len(cash))
	for _, o := range orders {
		merged = append(merged, o)
	}
	for _, m := range cash {
		merged = append(merged, m)
	}
	if len(merged) == 0 {
		return nil, folio_errors.ErrEmptyLedger{}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TransactionDate().Before(merged[j].TransactionDate())
	})

	l := &ledger{
		transactions: merged,
		byDay:        map[string][]domain.Transaction{},
		firstDay:     domain.Day(merged[0].TransactionDate()),
		changes:      changes,
	}
	for _, tx := range merged {
		key := domain.DayKey(tx.TransactionDate())
		l.byDay[key] = append(l.byDay[key], tx)
	}
	return l, nil
}

// canonical maps an instrument identifier through the corporate-action remap
// table, so positions recorded under a retired identifier keep accruing
// under the current one.
func (l *ledger) canonical(isin string) string {
	if to, ok := l.changes[isin]; ok {
		return to
	}
	return isin
}

// validate replays only the security orders, checking that no instrument's
// running quantity ever goes negative. It runs fully before any day is
// valued. It also reports, per instrument, the last day a position was open,
// which bounds how far its quote history is needed.
func (l *ledger) validate() (map[string]time.Time, error) {
	running := map[string]decimal.Decimal{}
	lastHeld := map[string]time.Time{}

	for _, tx := range l.transactions {
		order, ok := tx.(domain.Order)
		if !ok {
			continue
		}
		isin := l.canonical(order.ISIN)
		total := running[isin].Add(order.Quantity)
		if total.IsNegative() {
			return nil, folio_errors.ErrNegativePosition{
				Instrument: isin,
				Date:       domain.Day(order.Date),
			}
		}
		running[isin] = total
		if total.IsPositive() {
			lastHeld[isin] = domain.Day(order.Date)
		}
	}
	return lastHeld, nil
}

// apply replays one transaction into the position map.
//
// A buy or sell moves the (instrument, currency) quantity and the matching
// (currency, currency) cash entry by the trade's cash amount; only the
// amount's magnitude is trusted, the direction follows the trade. A sell
// that finds its own (instrument, currency) bucket empty is matched against
// the other currency buckets in fixed priority order; any residual means the
// ledger is inconsistent.
func (l *ledger) apply(p domain.Positions, tx domain.Transaction) error {
	switch t := tx.(type) {
	case domain.Order:
		isin := l.canonical(t.ISIN)
		key := domain.PositionKey{Instrument: isin, Currency: t.Currency}
		if isin != t.ISIN {
			p.Rename(domain.PositionKey{Instrument: t.ISIN, Currency: t.Currency}, key)
		}

		if t.Quantity.IsNegative() && p[key].IsZero() {
			q := t.Quantity.Abs()
			for _, cur := range domain.Currencies {
				bucket := domain.PositionKey{Instrument: isin, Currency: cur}
				if !p[bucket].IsPositive() {
					continue
				}
				sub := decimal.Min(p[bucket], q)
				p.Add(bucket, sub.Neg())
				q = q.Sub(sub)
			}
			if q.IsPositive() {
				return folio_errors.ErrNegativePosition{Instrument: isin, Date: domain.Day(t.Date)}
			}
		} else {
			p.Add(key, t.Quantity)
		}

		direction := decimal.NewFromInt(1)
		if t.Quantity.IsNegative() {
			direction = decimal.NewFromInt(-1)
		}
		p.Add(domain.CashKey(t.Currency), direction.Neg().Mul(t.Amount.Abs()))

	case domain.CashMovement:
		p.Add(domain.CashKey(t.Currency), t.Amount)
	}
	return nil
}

// applyDay replays every transaction of one calendar day.
func (l *ledger) applyDay(p domain.Positions, day time.Time) error {
	for _, tx := range l.byDay[domain.DayKey(day)] {
		if err := l.apply(p, tx); err != nil {
			return err
		}
	}
	return nil
}
