package portfolio

import (
	"context"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/domain"
	"folio/internal/repository"
)

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromFloat(365.5)
)

// CashHistory is the cumulative net cash contributed to the portfolio, per
// day, in the reporting currency. Each movement is converted at its own
// date; the running total is not revalued afterwards.
func (s *Service) CashHistory(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	return s.cashLedgerHistory(ctx, s.money, portfolioID, brokerID, rng, currency)
}

// DividendHistory is the cumulative dividend and coupon income per day.
func (s *Service) DividendHistory(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	return s.cashLedgerHistory(ctx, s.dividends, portfolioID, brokerID, rng, currency)
}

// CommissionHistory is the cumulative broker commission paid per day.
func (s *Service) CommissionHistory(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	return s.cashLedgerHistory(ctx, s.commissions, portfolioID, brokerID, rng, currency)
}

func (s *Service) cashLedgerHistory(ctx context.Context, repo repository.CashRepository, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	if !currency.Supported() {
		return nil, folio_errors.ErrUnsupportedCurrency{Currency: string(currency)}
	}

	seed, err := s.seedDay(ctx, portfolioID, brokerID, rng.End)
	if err != nil {
		return nil, err
	}
	movements, err := repo.List(ctx, portfolioID, domain.Until(rng.End), brokerID)
	if err != nil {
		return nil, err
	}

	calcStart := seed
	if len(movements) > 0 && domain.Day(movements[0].Date).Before(calcStart) {
		calcStart = domain.Day(movements[0].Date)
	}
	conv, err := s.currencyConverter(ctx, calcStart, rng.EndDay())
	if err != nil {
		return nil, err
	}

	byDay := groupByDay(movements)
	emitStart := emissionStart(rng, seed)
	total := decimal.Zero
	out := domain.NewValueList(string(repo.Category()))

	for _, day := range domain.NewTimeRange(calcStart, rng.EndDay()).Days() {
		conv.Observe(day)
		for _, m := range byDay[domain.DayKey(day)] {
			v, err := conv.Convert(m.Amount, m.Currency, currency, day)
			if err != nil {
				return nil, err
			}
			total = total.Add(v)
		}
		if day.Before(emitStart) {
			continue
		}
		out.Append(day, total)
	}
	return out, nil
}

// RateHistory is the bank-rate baseline: what the deposited cash would be
// worth accruing the central-bank rate instead of being invested. Interest
// accrues once per calendar day as balance * rate/100/365.5 on the previous
// day's principal, into an accumulator kept apart from the principal; the
// accumulator compounds on itself before the day's principal accrual is
// added.
func (s *Service) RateHistory(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*domain.ValueList, error) {
	if !currency.Supported() {
		return nil, folio_errors.ErrUnsupportedCurrency{Currency: string(currency)}
	}

	seed, err := s.seedDay(ctx, portfolioID, brokerID, rng.End)
	if err != nil {
		return nil, err
	}
	movements, err := s.money.List(ctx, portfolioID, domain.Until(rng.End), brokerID)
	if err != nil {
		return nil, err
	}
	conv, err := s.currencyConverter(ctx, seed, rng.EndDay())
	if err != nil {
		return nil, err
	}

	byDay := groupByDay(movements)
	emitStart := emissionStart(rng, seed)
	out := domain.NewValueList("cbr")

	rate := s.rates.Base()
	principal := decimal.Zero
	prev := decimal.Zero
	interest := decimal.Zero

	for _, day := range domain.NewTimeRange(seed, rng.EndDay()).Days() {
		conv.Observe(day)
		for _, m := range byDay[domain.DayKey(day)] {
			v, err := conv.Convert(m.Amount, m.Currency, domain.RUB, day)
			if err != nil {
				return nil, err
			}
			principal = principal.Add(v)
		}

		rate = s.rates.Update(day, rate)
		daily := rate.Div(hundred).Div(daysInYear)
		interest = interest.Add(interest.Mul(daily))
		interest = interest.Add(prev.Mul(daily))

		if !day.Before(emitStart) {
			report, err := conv.Rate(currency, day)
			if err != nil {
				return nil, err
			}
			out.Append(day, principal.Add(interest).Div(report))
		}
		prev = principal
	}
	return out, nil
}

func groupByDay(movements []domain.CashMovement) map[string][]domain.CashMovement {
	out := map[string][]domain.CashMovement{}
	for _, m := range movements {
		key := domain.DayKey(m.Date)
		out[key] = append(out[key], m)
	}
	return out
}

// Report bundles the five aligned series of one chart request and asserts
// their alignment.
type Report struct {
	Value       *domain.ValueList
	Rate        *domain.ValueList
	Cash        *domain.ValueList
	Dividends   *domain.ValueList
	Commissions *domain.ValueList
}

func (s *Service) Report(ctx context.Context, portfolioID int64, brokerID *int64, rng domain.TimeRange, currency domain.Currency) (*Report, error) {
	value, err := s.ValueHistory(ctx, portfolioID, brokerID, rng, currency)
	if err != nil {
		return nil, err
	}
	rate, err := s.RateHistory(ctx, portfolioID, brokerID, rng, currency)
	if err != nil {
		return nil, err
	}
	cash, err := s.CashHistory(ctx, portfolioID, brokerID, rng, currency)
	if err != nil {
		return nil, err
	}
	dividends, err := s.DividendHistory(ctx, portfolioID, brokerID, rng, currency)
	if err != nil {
		return nil, err
	}
	commissions, err := s.CommissionHistory(ctx, portfolioID, brokerID, rng, currency)
	if err != nil {
		return nil, err
	}
	if err := domain.Aligned(value, rate, cash, dividends, commissions); err != nil {
		return nil, err
	}
	return &Report{
		Value:       value,
		Rate:        rate,
		Cash:        cash,
		Dividends:   dividends,
		Commissions: commissions,
	}, nil
}
