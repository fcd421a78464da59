package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/repository"
)

// QuoteSource is what the valuation engine needs from the quote cache.
type QuoteSource interface {
	Quotes(ctx context.Context, instrument string, rng domain.TimeRange) (*domain.Quotes, error)
	Current(ctx context.Context, instrument string) (decimal.Decimal, error)
	Security(ctx context.Context, instrument string) (domain.Security, error)
}

// RateTable is the piecewise-constant annual bank rate: the base rate applies
// until the first dated change, each change applies from its day onward.
type RateTable struct {
	base    decimal.Decimal
	changes map[string]decimal.Decimal
}

func NewRateTable(cfg config.Rates) RateTable {
	t := RateTable{
		base:    decimal.NewFromFloat(cfg.Base),
		changes: map[string]decimal.Decimal{},
	}
	for day, rate := range cfg.Changes {
		t.changes[day] = decimal.NewFromFloat(rate)
	}
	return t
}

func (t RateTable) Base() decimal.Decimal { return t.base }

// Update returns the rate effective on day, given the rate carried in from
// the previous day.
func (t RateTable) Update(day time.Time, current decimal.Decimal) decimal.Decimal {
	if r, ok := t.changes[domain.DayKey(day)]; ok {
		return r
	}
	return current
}

// Service reconstructs daily portfolio value and its comparison baselines
// from the transaction ledger and the quote cache.
type Service struct {
	orders      repository.OrderRepository
	money       repository.CashRepository
	dividends   repository.CashRepository
	commissions repository.CashRepository
	quotes      QuoteSource
	rates       RateTable
	changes     map[string]string
	usdFunds    map[string]struct{}
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	orders repository.OrderRepository,
	money repository.CashRepository,
	dividends repository.CashRepository,
	commissions repository.CashRepository,
	quotes QuoteSource,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	usdFunds := map[string]struct{}{}
	for _, isin := range cfg.Engine.USDFunds {
		usdFunds[isin] = struct{}{}
	}
	return &Service{
		orders:      orders,
		money:       money,
		dividends:   dividends,
		commissions: commissions,
		quotes:      quotes,
		rates:       NewRateTable(cfg.Rates),
		changes:     cfg.Engine.InstrumentChanges,
		usdFunds:    usdFunds,
		logger:      logger,
		now:         time.Now,
	}
}

// loadLedger reads every order and operating cash movement up to and
// including end, merged chronologically.
func (s *Service) loadLedger(ctx context.Context, portfolioID int64, brokerID *int64, end time.Time) (*ledger, error) {
	rng := domain.Until(end)
	orders, err := s.orders.List(ctx, portfolioID, rng, brokerID)
	if err != nil {
		return nil, err
	}
	cash, err := s.money.List(ctx, portfolioID, rng, brokerID)
	if err != nil {
		return nil, err
	}
	led, err := buildLedger(orders, cash, s.changes)
	if err != nil {
		if _, ok := err.(folio_errors.ErrEmptyLedger); ok {
			return nil, folio_errors.ErrEmptyLedger{PortfolioID: portfolioID}
		}
		return nil, err
	}
	return led, nil
}

// seedDay is the portfolio's first transaction date; every derived series is
// emitted from max(requested start, seedDay) so that all of them share one
// date-key sequence.
func (s *Service) seedDay(ctx context.Context, portfolioID int64, brokerID *int64, end time.Time) (time.Time, error) {
	led, err := s.loadLedger(ctx, portfolioID, brokerID, end)
	if err != nil {
		return time.Time{}, err
	}
	return led.firstDay, nil
}

func emissionStart(rng domain.TimeRange, seed time.Time) time.Time {
	start := rng.StartDay()
	if seed.After(start) {
		return seed
	}
	return start
}

// currencyConverter builds the carry-forward converter over the full
// computation range (seed day through range end).
func (s *Service) currencyConverter(ctx context.Context, seed time.Time, end time.Time) (*converter, error) {
	rng := domain.NewTimeRange(seed, end)
	usd, err := s.quotes.Quotes(ctx, string(domain.USD), rng)
	if err != nil {
		return nil, err
	}
	eur, err := s.quotes.Quotes(ctx, string(domain.EUR), rng)
	if err != nil {
		return nil, err
	}
	return newConverter(usd, eur), nil
}
