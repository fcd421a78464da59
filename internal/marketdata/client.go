package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"folio/internal/config"
	"folio/internal/domain"
)

// Provider fetches daily candles and live quotes from the market-data API.
// Instruments are addressed by FIGI here; callers resolve ISIN -> FIGI
// through the securities collection.
type Provider interface {
	History(ctx context.Context, figi string, rng domain.TimeRange) ([]domain.Candle, error)
	Current(ctx context.Context, figi string) (decimal.Decimal, error)
}

type client struct {
	http *resty.Client
}

func NewClient(cfg config.MarketData) Provider {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.Token)
	return &client{http: http}
}

// exchange timestamps are Moscow-local
var exchangeZone = time.FixedZone("MSK", 3*60*60)

type candlesResponse struct {
	Payload struct {
		Candles []struct {
			Time  string  `json:"time"`
			Close float64 `json:"c"`
		} `json:"candles"`
	} `json:"payload"`
}

func (c *client) History(ctx context.Context, figi string, rng domain.TimeRange) ([]domain.Candle, error) {
	from := time.Date(rng.Start.Year(), rng.Start.Month(), rng.Start.Day(), 0, 0, 0, 0, exchangeZone)
	to := time.Date(rng.End.Year(), rng.End.Month(), rng.End.Day(), 23, 59, 59, 0, exchangeZone)

	out := candlesResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"figi":     figi,
			"from":     from.Format(time.RFC3339),
			"to":       to.Format(time.RFC3339),
			"interval": "day",
		}).
		SetResult(&out).
		Get("/market/candles")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", figi, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("candle request for %s returned %s", figi, resp.Status())
	}

	candles := make([]domain.Candle, 0, len(out.Payload.Candles))
	for _, raw := range out.Payload.Candles {
		t, err := time.Parse("2006-01-02T15:04:05Z", raw.Time)
		if err != nil {
			return nil, fmt.Errorf("bad candle time %q for %s: %w", raw.Time, figi, err)
		}
		candles = append(candles, domain.Candle{
			Date:  domain.Day(t),
			Price: decimal.NewFromFloat(raw.Close),
		})
	}
	return candles, nil
}

type orderbookResponse struct {
	Payload struct {
		LastPrice float64 `json:"lastPrice"`
	} `json:"payload"`
}

func (c *client) Current(ctx context.Context, figi string) (decimal.Decimal, error) {
	out := orderbookResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"figi": figi, "depth": "1"}).
		SetResult(&out).
		Get("/market/orderbook")
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch last price for %s: %w", figi, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("orderbook request for %s returned %s", figi, resp.Status())
	}
	return decimal.NewFromFloat(out.Payload.LastPrice), nil
}
