package portfolio

import (
	"testing"

	"github.com/stretchr/testify/require"

	folio_errors "folio/internal"
	"folio/internal/domain"
)

func Test_buildLedger(t *testing.T) {
	t.Run("empty ledger is an error", func(t *testing.T) {
		_, err := buildLedger(nil, nil, nil)
		require.ErrorAs(t, err, &folio_errors.ErrEmptyLedger{})
	})

	t.Run("merges and sorts orders with cash", func(t *testing.T) {
		orders := []domain.Order{
			{Date: day("2020-01-03"), ISIN: "X", Quantity: dec(1)},
		}
		cash := []domain.CashMovement{
			{Date: day("2020-01-01"), Currency: domain.RUB, Amount: dec(1000)},
			{Date: day("2020-01-05"), Currency: domain.RUB, Amount: dec(-500)},
		}
		led, err := buildLedger(orders, cash, nil)
		require.NoError(t, err)
		require.Equal(t, day("2020-01-01"), led.firstDay)
		require.Len(t, led.transactions, 3)
		require.Len(t, led.byDay["2020-01-03"], 1)
	})
}

func Test_ledger_validate(t *testing.T) {
	t.Run("short sale fails before any valuation", func(t *testing.T) {
		led, err := buildLedger([]domain.Order{
			{Date: day("2020-01-02"), ISIN: "X", Quantity: dec(-5)},
			{Date: day("2020-01-03"), ISIN: "X", Quantity: dec(10)},
		}, nil, nil)
		require.NoError(t, err)

		_, err = led.validate()
		var negative folio_errors.ErrNegativePosition
		require.ErrorAs(t, err, &negative)
		require.Equal(t, "X", negative.Instrument)
		require.Equal(t, day("2020-01-02"), negative.Date)
	})

	t.Run("remapped identifiers share one running quantity", func(t *testing.T) {
		led, err := buildLedger([]domain.Order{
			{Date: day("2020-01-02"), ISIN: "OLD", Quantity: dec(10)},
			{Date: day("2020-01-03"), ISIN: "NEW", Quantity: dec(-10)},
		}, nil, map[string]string{"OLD": "NEW"})
		require.NoError(t, err)

		_, err = led.validate()
		require.NoError(t, err)
	})

	t.Run("last held day stops when the position is closed", func(t *testing.T) {
		led, err := buildLedger([]domain.Order{
			{Date: day("2020-01-01"), ISIN: "X", Quantity: dec(4)},
			{Date: day("2020-01-02"), ISIN: "X", Quantity: dec(6)},
			{Date: day("2020-01-04"), ISIN: "X", Quantity: dec(-10)},
		}, nil, nil)
		require.NoError(t, err)

		lastHeld, err := led.validate()
		require.NoError(t, err)
		require.Equal(t, day("2020-01-02"), lastHeld["X"])
	})
}

func Test_ledger_apply(t *testing.T) {
	led := &ledger{}

	t.Run("buy moves cash down regardless of amount sign", func(t *testing.T) {
		for _, amount := range []float64{10000, -10000} {
			p := domain.Positions{}
			err := led.apply(p, domain.Order{
				Date: day("2020-01-02"), ISIN: "X",
				Quantity: dec(10), Amount: dec(amount), Currency: domain.RUB,
			})
			require.NoError(t, err)
			require.True(t, p[domain.PositionKey{Instrument: "X", Currency: domain.RUB}].Equal(dec(10)))
			require.True(t, p[domain.CashKey(domain.RUB)].Equal(dec(-10000)))
		}
	})

	t.Run("sell moves cash up", func(t *testing.T) {
		p := domain.Positions{
			{Instrument: "X", Currency: domain.RUB}: dec(10),
		}
		err := led.apply(p, domain.Order{
			Date: day("2020-01-03"), ISIN: "X",
			Quantity: dec(-10), Amount: dec(11000), Currency: domain.RUB,
		})
		require.NoError(t, err)
		require.True(t, p[domain.PositionKey{Instrument: "X", Currency: domain.RUB}].IsZero())
		require.True(t, p[domain.CashKey(domain.RUB)].Equal(dec(11000)))
	})

	t.Run("sell drains other currency buckets in priority order", func(t *testing.T) {
		p := domain.Positions{
			{Instrument: "X", Currency: domain.RUB}: dec(4),
			{Instrument: "X", Currency: domain.USD}: dec(8),
		}
		err := led.apply(p, domain.Order{
			Date: day("2020-01-03"), ISIN: "X",
			Quantity: dec(-10), Amount: dec(700), Currency: domain.EUR,
		})
		require.NoError(t, err)
		require.True(t, p[domain.PositionKey{Instrument: "X", Currency: domain.RUB}].IsZero())
		require.True(t, p[domain.PositionKey{Instrument: "X", Currency: domain.USD}].Equal(dec(2)))
		require.True(t, p[domain.CashKey(domain.EUR)].Equal(dec(700)))
	})

	t.Run("residual after draining every bucket is fatal", func(t *testing.T) {
		p := domain.Positions{
			{Instrument: "X", Currency: domain.RUB}: dec(4),
		}
		err := led.apply(p, domain.Order{
			Date: day("2020-01-03"), ISIN: "X",
			Quantity: dec(-10), Amount: dec(700), Currency: domain.EUR,
		})
		require.ErrorAs(t, err, &folio_errors.ErrNegativePosition{})
	})

	t.Run("buy under a retired identifier lands on the current one", func(t *testing.T) {
		remapped := &ledger{changes: map[string]string{"OLD": "NEW"}}
		p := domain.Positions{
			{Instrument: "OLD", Currency: domain.RUB}: dec(3),
		}
		err := remapped.apply(p, domain.Order{
			Date: day("2020-01-03"), ISIN: "OLD",
			Quantity: dec(2), Amount: dec(2000), Currency: domain.RUB,
		})
		require.NoError(t, err)
		_, oldExists := p[domain.PositionKey{Instrument: "OLD", Currency: domain.RUB}]
		require.False(t, oldExists)
		require.True(t, p[domain.PositionKey{Instrument: "NEW", Currency: domain.RUB}].Equal(dec(5)))
	})
}
