package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one stored daily close.
type Candle struct {
	Date  time.Time
	Price decimal.Decimal
}

// Quotes is an ordered calendar-day -> closing-price mapping for one
// instrument. Days without a trading session simply have no entry.
type Quotes struct {
	days  []time.Time
	price map[string]decimal.Decimal
}

func NewQuotes() *Quotes {
	return &Quotes{price: map[string]decimal.Decimal{}}
}

// Put records the price for a day. Re-putting a day overwrites in place and
// keeps the original order, which is how a live quote overrides a stale close.
func (q *Quotes) Put(day time.Time, price decimal.Decimal) {
	day = Day(day)
	key := DayKey(day)
	if _, ok := q.price[key]; !ok {
		q.days = append(q.days, day)
	}
	q.price[key] = price
}

func (q *Quotes) Get(day time.Time) (decimal.Decimal, bool) {
	p, ok := q.price[DayKey(day)]
	return p, ok
}

func (q *Quotes) Len() int { return len(q.days) }

func (q *Quotes) Days() []time.Time { return q.days }

// LastDay is the newest day with a price, or the zero time when empty.
func (q *Quotes) LastDay() time.Time {
	if len(q.days) == 0 {
		return time.Time{}
	}
	return q.days[len(q.days)-1]
}

type quoteEntry struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

func (q *Quotes) MarshalJSON() ([]byte, error) {
	entries := make([]quoteEntry, 0, len(q.days))
	for _, d := range q.days {
		entries = append(entries, quoteEntry{Date: DayKey(d), Price: q.price[DayKey(d)]})
	}
	return json.Marshal(entries)
}

func (q *Quotes) UnmarshalJSON(data []byte) error {
	entries := []quoteEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	q.days = nil
	q.price = map[string]decimal.Decimal{}
	for _, e := range entries {
		day, err := time.ParseInLocation(DayLayout, e.Date, time.UTC)
		if err != nil {
			return err
		}
		q.Put(day, e.Price)
	}
	return nil
}
