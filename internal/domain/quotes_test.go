package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_Quotes_PutOverridesInPlace(t *testing.T) {
	q := NewQuotes()
	q.Put(day("2020-01-01"), decimal.NewFromInt(100))
	q.Put(day("2020-01-02"), decimal.NewFromInt(110))
	q.Put(day("2020-01-02"), decimal.NewFromInt(115))

	require.Equal(t, 2, q.Len())
	p, ok := q.Get(day("2020-01-02"))
	require.True(t, ok)
	require.True(t, p.Equal(decimal.NewFromInt(115)))
	require.Equal(t, "2020-01-02", DayKey(q.LastDay()))
}

func Test_Quotes_LastDayEmpty(t *testing.T) {
	require.True(t, NewQuotes().LastDay().IsZero())
}

func Test_Quotes_JSONRoundTrip(t *testing.T) {
	q := NewQuotes()
	q.Put(day("2020-01-01"), decimal.NewFromFloat(73.5))
	q.Put(day("2020-01-03"), decimal.NewFromFloat(74.1))

	data, err := json.Marshal(q)
	require.NoError(t, err)

	back := NewQuotes()
	require.NoError(t, json.Unmarshal(data, back))
	require.Equal(t, q.Len(), back.Len())
	p, ok := back.Get(day("2020-01-03"))
	require.True(t, ok)
	require.True(t, p.Equal(decimal.NewFromFloat(74.1)))
}
