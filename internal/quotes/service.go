package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/marketdata"
	"folio/internal/repository"
)

// Service is the quote cache: stored daily closes, extended on demand from
// the market-data source, with the live last-traded price overriding the
// stored close for the current day. Results are memoized in a size-bounded
// TTL cache; Invalidate drops the memo after ledger or quote writes.
type Service struct {
	repo       repository.QuoteRepository
	securities repository.SecurityRepository
	provider   marketdata.Provider
	memo       *bigcache.BigCache
	tickers    map[string]string
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	repo repository.QuoteRepository,
	securities repository.SecurityRepository,
	provider marketdata.Provider,
	cfg config.Cache,
	tickers map[string]string,
	logger *slog.Logger,
) (*Service, error) {
	memoCfg := bigcache.DefaultConfig(cfg.TTL)
	memoCfg.HardMaxCacheSize = cfg.MaxMB
	memo, err := bigcache.New(context.Background(), memoCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init quote memo cache: %w", err)
	}
	return &Service{
		repo:       repo,
		securities: securities,
		provider:   provider,
		memo:       memo,
		tickers:    tickers,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Quotes returns the ordered date -> close mapping for every day in rng with
// a known price. The stored tail is extended by fetching and persisting new
// candles first; a tail that still falls short of the range end is a hard
// ErrDataGap, never a silent degrade.
func (s *Service) Quotes(ctx context.Context, instrument string, rng domain.TimeRange) (*domain.Quotes, error) {
	memoKey := fmt.Sprintf("%s|%s|%s", instrument, domain.DayKey(rng.StartDay()), domain.DayKey(rng.EndDay()))
	if data, err := s.memo.Get(memoKey); err == nil {
		cached := domain.NewQuotes()
		if err := json.Unmarshal(data, cached); err == nil {
			return cached, nil
		}
	}

	today := domain.Day(s.now())
	end := rng.EndDay()
	if end.After(today) {
		end = today
	}
	liveToday := end.Equal(today)

	storedEnd := end
	if liveToday {
		storedEnd = today.AddDate(0, 0, -1)
	}
	storedRange := domain.NewTimeRange(rng.StartDay(), storedEnd)

	result, err := s.repo.List(ctx, instrument, storedRange)
	if err != nil {
		return nil, err
	}

	if result.LastDay().Before(storedEnd) {
		if err := s.extend(ctx, instrument, result, storedRange); err != nil {
			return nil, err
		}
	}

	if liveToday {
		price, err := s.Current(ctx, instrument)
		if err != nil {
			return nil, err
		}
		result.Put(today, price)
	}

	if result.Len() == 0 || result.LastDay().Before(end) {
		return nil, folio_errors.ErrDataGap{
			Instrument: instrument,
			Have:       result.LastDay(),
			Want:       end,
		}
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.memo.Set(memoKey, data); err != nil {
			s.logger.Warn("failed to memoize quotes", "instrument", instrument, "err", err)
		}
	}
	return result, nil
}

// extend fetches the missing tail from the market-data source, persists it,
// and merges candles inside the range into result.
func (s *Service) extend(ctx context.Context, instrument string, result *domain.Quotes, rng domain.TimeRange) error {
	fetchFrom := rng.StartDay()
	if last := result.LastDay(); !last.IsZero() {
		fetchFrom = last.AddDate(0, 0, 1)
	}
	figi, err := s.resolveFIGI(ctx, instrument)
	if err != nil {
		return err
	}

	candles, err := s.provider.History(ctx, figi, domain.NewTimeRange(fetchFrom, rng.EndDay()))
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return nil
	}

	if err := s.repo.Upsert(ctx, instrument, figi, candles); err != nil {
		return err
	}
	s.logger.Info("extended quote history",
		"instrument", instrument,
		"candles", len(candles),
		"through", domain.DayKey(candles[len(candles)-1].Date))

	for _, c := range candles {
		if domain.Day(c.Date).After(rng.EndDay()) {
			break
		}
		result.Put(c.Date, c.Price)
	}
	return nil
}

// Current returns the live last-traded price.
func (s *Service) Current(ctx context.Context, instrument string) (decimal.Decimal, error) {
	figi, err := s.resolveFIGI(ctx, instrument)
	if err != nil {
		return decimal.Zero, err
	}
	return s.provider.Current(ctx, figi)
}

// Security resolves instrument metadata, going through the board ticker for
// currency pseudo-instruments.
func (s *Service) Security(ctx context.Context, instrument string) (domain.Security, error) {
	if ticker, ok := s.tickers[instrument]; ok {
		return s.securities.GetByTicker(ctx, ticker)
	}
	return s.securities.GetByISIN(ctx, instrument)
}

func (s *Service) resolveFIGI(ctx context.Context, instrument string) (string, error) {
	sec, err := s.Security(ctx, instrument)
	if err != nil {
		return "", err
	}
	if sec.FIGI == "" {
		return "", fmt.Errorf("security %s has no FIGI", instrument)
	}
	return sec.FIGI, nil
}

// Invalidate drops every memoized range. Importers call it after writing.
func (s *Service) Invalidate() error {
	return s.memo.Reset()
}
