package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	"folio/internal/domain"
)

func Test_Client_History(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/market/candles", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		gotQuery = map[string]string{
			"figi":     r.URL.Query().Get("figi"),
			"interval": r.URL.Query().Get("interval"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payload":{"candles":[
			{"time":"2020-01-02T00:00:00Z","c":100.5},
			{"time":"2020-01-03T00:00:00Z","c":101.25}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(config.MarketData{
		BaseURL: server.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})

	candles, err := client.History(context.Background(), "BBG000B9XRY4",
		domain.NewTimeRange(
			time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
		))
	require.NoError(t, err)

	require.Equal(t, "BBG000B9XRY4", gotQuery["figi"])
	require.Equal(t, "day", gotQuery["interval"])
	require.Len(t, candles, 2)
	require.Equal(t, "2020-01-02", domain.DayKey(candles[0].Date))
	require.True(t, candles[0].Price.Equal(decimal.NewFromFloat(100.5)))
}

func Test_Client_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/market/orderbook", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("depth"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payload":{"lastPrice":95.4}}`))
	}))
	defer server.Close()

	client := NewClient(config.MarketData{BaseURL: server.URL, Timeout: 5 * time.Second})

	price, err := client.Current(context.Background(), "BBG000B9XRY4")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromFloat(95.4)))
}

func Test_Client_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(config.MarketData{BaseURL: server.URL, Timeout: 5 * time.Second})

	_, err := client.History(context.Background(), "X", domain.NewTimeRange(
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
	))
	require.ErrorContains(t, err, "500")
}
