package domain

import (
	"time"

	"github.com/shopspring/decimal"

	folio_errors "folio/internal"
)

// Value is one day of a series.
type Value struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// ValueList is an ordered, date-keyed series. Insertion order is
// chronological order; it is built once per report request and read-only
// afterwards. Binary operations require both operands to carry the exact
// same date sequence.
type ValueList struct {
	Title  string
	values []Value
	min    decimal.Decimal
	max    decimal.Decimal
}

func NewValueList(title string) *ValueList {
	return &ValueList{Title: title}
}

func (l *ValueList) Append(day time.Time, v decimal.Decimal) {
	if len(l.values) == 0 || v.LessThan(l.min) {
		l.min = v
	}
	if len(l.values) == 0 || v.GreaterThan(l.max) {
		l.max = v
	}
	l.values = append(l.values, Value{Date: Day(day), Value: v})
}

func (l *ValueList) Len() int        { return len(l.values) }
func (l *ValueList) Values() []Value { return l.values }
func (l *ValueList) At(i int) Value  { return l.values[i] }

func (l *ValueList) Last() Value { return l.values[len(l.values)-1] }

// Min and Max track the running extremes for chart scaling.
func (l *ValueList) Min() decimal.Decimal { return l.min }
func (l *ValueList) Max() decimal.Decimal { return l.max }

func (l *ValueList) zipWith(other *ValueList, title string, f func(a, b decimal.Decimal) decimal.Decimal) (*ValueList, error) {
	if l.Len() != other.Len() {
		return nil, folio_errors.ErrInconsistentSeries{Left: l.Title, Right: other.Title}
	}
	out := NewValueList(title)
	for i, a := range l.values {
		b := other.values[i]
		if !a.Date.Equal(b.Date) {
			return nil, folio_errors.ErrInconsistentSeries{Left: l.Title, Right: other.Title}
		}
		out.Append(a.Date, f(a.Value, b.Value))
	}
	return out, nil
}

func (l *ValueList) Add(other *ValueList) (*ValueList, error) {
	return l.zipWith(other, l.Title+"+"+other.Title, decimal.Decimal.Add)
}

func (l *ValueList) Sub(other *ValueList) (*ValueList, error) {
	return l.zipWith(other, l.Title+"-"+other.Title, decimal.Decimal.Sub)
}

func (l *ValueList) Div(other *ValueList) (*ValueList, error) {
	return l.zipWith(other, l.Title+"/"+other.Title, func(a, b decimal.Decimal) decimal.Decimal {
		return a.Div(b)
	})
}

// Scale multiplies every value by k.
func (l *ValueList) Scale(k decimal.Decimal) *ValueList {
	out := NewValueList(k.String() + "*" + l.Title)
	for _, v := range l.values {
		out.Append(v.Date, v.Value.Mul(k))
	}
	return out
}

// Aligned reports whether every list carries the same date sequence as the
// first one. Builders use it as the final consistency assertion.
func Aligned(lists ...*ValueList) error {
	if len(lists) < 2 {
		return nil
	}
	first := lists[0]
	for _, l := range lists[1:] {
		if l.Len() != first.Len() {
			return folio_errors.ErrInconsistentSeries{Left: first.Title, Right: l.Title}
		}
		for i := range l.values {
			if !l.values[i].Date.Equal(first.values[i].Date) {
				return folio_errors.ErrInconsistentSeries{Left: first.Title, Right: l.Title}
			}
		}
	}
	return nil
}
