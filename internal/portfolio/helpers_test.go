package portfolio

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/config"
	"folio/internal/domain"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(domain.DayLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func inRange(date time.Time, rng domain.TimeRange) bool {
	if rng.HasStart() && date.Before(rng.Start) {
		return false
	}
	if rng.HasEnd() && date.After(rng.End) {
		return false
	}
	return true
}

type fakeOrders struct {
	orders []domain.Order
}

func (f *fakeOrders) List(_ context.Context, portfolioID int64, rng domain.TimeRange, _ *int64) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range f.orders {
		if o.PortfolioID == portfolioID && inRange(o.Date, rng) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Upsert(_ context.Context, orders []domain.Order) error {
	f.orders = append(f.orders, orders...)
	return nil
}

type fakeCash struct {
	category  domain.CashCategory
	movements []domain.CashMovement
}

func (f *fakeCash) Category() domain.CashCategory { return f.category }

func (f *fakeCash) List(_ context.Context, portfolioID int64, rng domain.TimeRange, _ *int64) ([]domain.CashMovement, error) {
	out := []domain.CashMovement{}
	for _, m := range f.movements {
		if m.PortfolioID == portfolioID && inRange(m.Date, rng) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCash) Upsert(_ context.Context, movements []domain.CashMovement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

// fakeQuoteSource serves pre-seeded series and live prices, ignoring ranges.
type fakeQuoteSource struct {
	series  map[string]*domain.Quotes
	secs    map[string]domain.Security
	current map[string]decimal.Decimal
}

func newFakeQuoteSource() *fakeQuoteSource {
	return &fakeQuoteSource{
		series:  map[string]*domain.Quotes{},
		secs:    map[string]domain.Security{},
		current: map[string]decimal.Decimal{},
	}
}

func (f *fakeQuoteSource) put(instrument, date string, price float64) {
	q, ok := f.series[instrument]
	if !ok {
		q = domain.NewQuotes()
		f.series[instrument] = q
	}
	q.Put(day(date), dec(price))
}

func (f *fakeQuoteSource) Quotes(_ context.Context, instrument string, _ domain.TimeRange) (*domain.Quotes, error) {
	if q, ok := f.series[instrument]; ok {
		return q, nil
	}
	return domain.NewQuotes(), nil
}

func (f *fakeQuoteSource) Current(_ context.Context, instrument string) (decimal.Decimal, error) {
	return f.current[instrument], nil
}

func (f *fakeQuoteSource) Security(_ context.Context, instrument string) (domain.Security, error) {
	if sec, ok := f.secs[instrument]; ok {
		return sec, nil
	}
	return domain.Security{
		ISIN:     instrument,
		Ticker:   instrument,
		Name:     instrument,
		Currency: domain.RUB,
	}, nil
}

type fixture struct {
	orders      *fakeOrders
	money       *fakeCash
	dividends   *fakeCash
	commissions *fakeCash
	quotes      *fakeQuoteSource
	cfg         *config.Config
}

func newFixture() *fixture {
	return &fixture{
		orders:      &fakeOrders{},
		money:       &fakeCash{category: domain.CashOperating},
		dividends:   &fakeCash{category: domain.CashDividend},
		commissions: &fakeCash{category: domain.CashCommission},
		quotes:      newFakeQuoteSource(),
		cfg: &config.Config{
			Rates: config.Rates{Base: 6.5},
		},
	}
}

func (f *fixture) service() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(f.orders, f.money, f.dividends, f.commissions, f.quotes, f.cfg, logger)
}

func (f *fixture) deposit(date string, amount float64, cur domain.Currency) {
	f.money.movements = append(f.money.movements, domain.CashMovement{
		Date:        day(date),
		Currency:    cur,
		Amount:      dec(amount),
		Category:    domain.CashOperating,
		PortfolioID: 1,
	})
}

func (f *fixture) order(date, isin string, qty, price, amount float64, cur domain.Currency) {
	f.orders.orders = append(f.orders.orders, domain.Order{
		Date:        day(date),
		ISIN:        isin,
		Quantity:    dec(qty),
		Price:       dec(price),
		Amount:      dec(amount),
		Currency:    cur,
		PortfolioID: 1,
	})
}
