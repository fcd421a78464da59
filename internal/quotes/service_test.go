package quotes

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	folio_errors "folio/internal"
	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/marketdata"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(domain.DayLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

type fakeQuoteRepo struct {
	stored    map[string]*domain.Quotes
	listCalls int
	upserts   int
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{stored: map[string]*domain.Quotes{}}
}

func (f *fakeQuoteRepo) put(isin, date string, price float64) {
	q, ok := f.stored[isin]
	if !ok {
		q = domain.NewQuotes()
		f.stored[isin] = q
	}
	q.Put(day(date), dec(price))
}

func (f *fakeQuoteRepo) List(_ context.Context, isin string, rng domain.TimeRange) (*domain.Quotes, error) {
	f.listCalls++
	out := domain.NewQuotes()
	stored, ok := f.stored[isin]
	if !ok {
		return out, nil
	}
	for _, d := range stored.Days() {
		if d.Before(rng.Start) || d.After(rng.End) {
			continue
		}
		p, _ := stored.Get(d)
		out.Put(d, p)
	}
	return out, nil
}

func (f *fakeQuoteRepo) Upsert(_ context.Context, isin, figi string, candles []domain.Candle) error {
	f.upserts++
	for _, c := range candles {
		q, ok := f.stored[isin]
		if !ok {
			q = domain.NewQuotes()
			f.stored[isin] = q
		}
		q.Put(c.Date, c.Price)
	}
	return nil
}

type fakeSecurities struct{}

func (fakeSecurities) GetByISIN(_ context.Context, isin string) (domain.Security, error) {
	return domain.Security{ISIN: isin, Ticker: isin, FIGI: "FIGI-" + isin}, nil
}

func (fakeSecurities) GetByTicker(_ context.Context, ticker string) (domain.Security, error) {
	return domain.Security{ISIN: ticker, Ticker: ticker, FIGI: "FIGI-" + ticker}, nil
}

func (fakeSecurities) Upsert(_ context.Context, _ domain.Security) error { return nil }

func newTestService(t *testing.T, repo *fakeQuoteRepo, provider marketdata.Provider, now string) *Service {
	t.Helper()
	svc, err := NewService(
		repo,
		fakeSecurities{},
		provider,
		config.Cache{TTL: time.Minute, MaxMB: 8},
		map[string]string{"USD": "USD000UTSTOM"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return day(now) }
	return svc
}

func Test_Quotes_ServedFromStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	provider := marketdata.NewMockProvider(ctrl)

	repo := newFakeQuoteRepo()
	repo.put("X", "2020-01-02", 100)
	repo.put("X", "2020-01-03", 110)
	svc := newTestService(t, repo, provider, "2020-06-01")

	out, err := svc.Quotes(context.Background(), "X",
		domain.NewTimeRange(day("2020-01-02"), day("2020-01-03")))
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	p, ok := out.Get(day("2020-01-03"))
	require.True(t, ok)
	require.True(t, p.Equal(dec(110)))
}

func Test_Quotes_ExtendsMissingTail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	provider := marketdata.NewMockProvider(ctrl)
	provider.EXPECT().
		History(gomock.Any(), "FIGI-X", domain.NewTimeRange(day("2020-01-04"), day("2020-01-06"))).
		Return([]domain.Candle{
			{Date: day("2020-01-04"), Price: dec(120)},
			{Date: day("2020-01-06"), Price: dec(125)},
		}, nil)

	repo := newFakeQuoteRepo()
	repo.put("X", "2020-01-02", 100)
	repo.put("X", "2020-01-03", 110)
	svc := newTestService(t, repo, provider, "2020-06-01")

	out, err := svc.Quotes(context.Background(), "X",
		domain.NewTimeRange(day("2020-01-02"), day("2020-01-06")))
	require.NoError(t, err)

	require.Equal(t, 1, repo.upserts)
	require.Equal(t, 4, out.Len())
	require.Equal(t, "2020-01-06", domain.DayKey(out.LastDay()))
}

func Test_Quotes_TailStillShortIsAGap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	provider := marketdata.NewMockProvider(ctrl)
	provider.EXPECT().
		History(gomock.Any(), "FIGI-X", gomock.Any()).
		Return(nil, nil)

	repo := newFakeQuoteRepo()
	repo.put("X", "2020-01-02", 100)
	svc := newTestService(t, repo, provider, "2020-06-01")

	_, err := svc.Quotes(context.Background(), "X",
		domain.NewTimeRange(day("2020-01-02"), day("2020-01-06")))

	var gap folio_errors.ErrDataGap
	require.ErrorAs(t, err, &gap)
	require.Equal(t, "X", gap.Instrument)
}

func Test_Quotes_LiveToday(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	provider := marketdata.NewMockProvider(ctrl)
	provider.EXPECT().
		Current(gomock.Any(), "FIGI-X").
		Return(dec(95), nil)

	repo := newFakeQuoteRepo()
	repo.put("X", "2020-01-09", 90)
	svc := newTestService(t, repo, provider, "2020-01-10")

	out, err := svc.Quotes(context.Background(), "X",
		domain.NewTimeRange(day("2020-01-09"), day("2020-01-10")))
	require.NoError(t, err)

	p, ok := out.Get(day("2020-01-10"))
	require.True(t, ok)
	require.True(t, p.Equal(dec(95)))
}

func Test_Quotes_Memoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	provider := marketdata.NewMockProvider(ctrl)

	repo := newFakeQuoteRepo()
	repo.put("X", "2020-01-02", 100)
	svc := newTestService(t, repo, provider, "2020-06-01")
	rng := domain.NewTimeRange(day("2020-01-02"), day("2020-01-02"))

	_, err := svc.Quotes(context.Background(), "X", rng)
	require.NoError(t, err)
	_, err = svc.Quotes(context.Background(), "X", rng)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	require.NoError(t, svc.Invalidate())
	_, err = svc.Quotes(context.Background(), "X", rng)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}

func Test_Security_CurrencyGoesThroughTicker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := newTestService(t, newFakeQuoteRepo(), marketdata.NewMockProvider(ctrl), "2020-06-01")

	sec, err := svc.Security(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, "USD000UTSTOM", sec.Ticker)
}
