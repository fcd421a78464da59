package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	folio_errors "folio/internal"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func list(title string, from string, values ...float64) *ValueList {
	l := NewValueList(title)
	d := day(from)
	for i, v := range values {
		l.Append(d.AddDate(0, 0, i), decimal.NewFromFloat(v))
	}
	return l
}

func Test_ValueList_MinMax(t *testing.T) {
	l := list("value", "2020-01-01", 10, -3, 42, 7)

	require.Equal(t, 4, l.Len())
	require.True(t, l.Min().Equal(decimal.NewFromInt(-3)))
	require.True(t, l.Max().Equal(decimal.NewFromInt(42)))
	require.True(t, l.Last().Value.Equal(decimal.NewFromInt(7)))
}

func Test_ValueList_Arithmetic(t *testing.T) {
	a := list("a", "2020-01-01", 10, 20, 30)
	b := list("b", "2020-01-01", 1, 2, 3)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.True(t, sum.At(2).Value.Equal(decimal.NewFromInt(33)))

	back, err := sum.Sub(b)
	require.NoError(t, err)
	for i := 0; i < a.Len(); i++ {
		require.True(t, back.At(i).Value.Equal(a.At(i).Value))
		require.True(t, back.At(i).Date.Equal(a.At(i).Date))
	}

	ratio, err := a.Div(b)
	require.NoError(t, err)
	require.True(t, ratio.At(1).Value.Equal(decimal.NewFromInt(10)))

	doubled := a.Scale(decimal.NewFromInt(2))
	require.True(t, doubled.At(0).Value.Equal(decimal.NewFromInt(20)))
	require.True(t, doubled.Max().Equal(decimal.NewFromInt(60)))
}

func Test_ValueList_Inconsistent(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		a := list("a", "2020-01-01", 1, 2)
		b := list("b", "2020-01-01", 1)
		_, err := a.Add(b)
		require.ErrorAs(t, err, &folio_errors.ErrInconsistentSeries{})
	})

	t.Run("date mismatch", func(t *testing.T) {
		a := list("a", "2020-01-01", 1, 2)
		b := list("b", "2020-01-02", 1, 2)
		_, err := a.Sub(b)
		require.ErrorAs(t, err, &folio_errors.ErrInconsistentSeries{})
	})
}

func Test_Aligned(t *testing.T) {
	a := list("a", "2020-01-01", 1, 2, 3)
	b := list("b", "2020-01-01", 4, 5, 6)
	require.NoError(t, Aligned(a, b))

	c := list("c", "2020-01-02", 4, 5, 6)
	require.ErrorAs(t, Aligned(a, b, c), &folio_errors.ErrInconsistentSeries{})
}
