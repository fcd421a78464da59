package portfolio

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
)

// ValueHistory reconstructs the portfolio's total value for every calendar
// day of rng, expressed in currency. The ledger is replayed from its first
// transaction; only days inside rng are emitted.
func (s *Service) ValueHistory(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	if !currency.Supported() {
		return nil, folio_errors.ErrUnsupportedCurrency{Currency: string(currency)}
	}

	led, err := s.loadLedger(ctx, portfolioID, brokerID, rng.End)
	if err != nil {
		return nil, err
	}
	lastHeld, err := led.validate()
	if err != nil {
		return nil, err
	}

	conv, err := s.currencyConverter(ctx, led.firstDay, rng.EndDay())
	if err != nil {
		return nil, err
	}

	emitStart := emissionStart(rng, led.firstDay)
	positions := domain.Positions{}
	prices := newPriceTracker(s, led, lastHeld, rng.EndDay())
	out := domain.NewValueList("value")

	for _, day := range domain.NewTimeRange(led.firstDay, rng.EndDay()).Days() {
		if err := led.applyDay(positions, day); err != nil {
			return nil, err
		}
		conv.Observe(day)
		if err := prices.Observe(ctx, positions, day); err != nil {
			return nil, err
		}
		if day.Before(emitStart) {
			continue
		}

		total := decimal.Zero
		for key, qty := range positions {
			if qty.IsZero() {
				continue
			}
			if key.IsCash() {
				rate, err := conv.Rate(key.Currency, day)
				if err != nil {
					return nil, err
				}
				total = total.Add(qty.Mul(rate))
				continue
			}

			price, err := prices.Price(key.Instrument, day)
			if err != nil {
				return nil, err
			}
			sec, err := prices.Security(ctx, key.Instrument)
			if err != nil {
				return nil, err
			}
			rate, err := conv.Rate(sec.Currency, day)
			if err != nil {
				return nil, err
			}
			total = total.Add(price.Mul(rate).Mul(qty))
		}

		report, err := conv.Rate(currency, day)
		if err != nil {
			return nil, err
		}
		out.Append(day, total.Div(report))
	}
	return out, nil
}

// priceTracker lazily loads each held instrument's quote series and threads
// the last known price forward across days without a session. Quote history
// is requested only through the last day the instrument is held, so a
// long-sold position does not demand quotes it never needs.
type priceTracker struct {
	svc      *Service
	led      *ledger
	lastHeld map[string]time.Time
	end      time.Time
	series   map[string]*domain.Quotes
	secs     map[string]domain.Security
	prev     map[string]decimal.Decimal
}

func newPriceTracker(svc *Service, led *ledger, lastHeld map[string]time.Time, end time.Time) *priceTracker {
	return &priceTracker{
		svc:      svc,
		led:      led,
		lastHeld: lastHeld,
		end:      end,
		series:   map[string]*domain.Quotes{},
		secs:     map[string]domain.Security{},
		prev:     map[string]decimal.Decimal{},
	}
}

func (t *priceTracker) quotes(ctx context.Context, instrument string) (*domain.Quotes, error) {
	if q, ok := t.series[instrument]; ok {
		return q, nil
	}
	end := t.end
	if held, ok := t.lastHeld[instrument]; ok && held.Before(end) {
		end = held
	}
	q, err := t.svc.quotes.Quotes(ctx, instrument, domain.NewTimeRange(t.led.firstDay, end))
	if err != nil {
		return nil, err
	}
	t.series[instrument] = q
	return q, nil
}

func (t *priceTracker) Security(ctx context.Context, instrument string) (domain.Security, error) {
	if sec, ok := t.secs[instrument]; ok {
		return sec, nil
	}
	sec, err := t.svc.quotes.Security(ctx, instrument)
	if err != nil {
		return domain.Security{}, err
	}
	t.secs[instrument] = sec
	return sec, nil
}

// Observe pulls same-day quotes of every open position into the
// carry-forward state.
func (t *priceTracker) Observe(ctx context.Context, positions domain.Positions, day time.Time) error {
	for key, qty := range positions {
		if key.IsCash() || qty.IsZero() {
			continue
		}
		q, err := t.quotes(ctx, key.Instrument)
		if err != nil {
			return err
		}
		if p, ok := q.Get(day); ok {
			t.prev[key.Instrument] = p
		}
	}
	return nil
}

// Price is the instrument's close on day, or the carried-forward last close.
func (t *priceTracker) Price(instrument string, day time.Time) (decimal.Decimal, error) {
	if q, ok := t.series[instrument]; ok {
		if p, ok := q.Get(day); ok {
			return p, nil
		}
	}
	if p, ok := t.prev[instrument]; ok {
		return p, nil
	}
	return decimal.Zero, folio_errors.ErrDataGap{Instrument: instrument, Want: day}
}
