package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/domain"
)

type QuoteRepository interface {
	List(ctx context.Context, isin string, rng domain.TimeRange) (*domain.Quotes, error)
	Upsert(ctx context.Context, isin, figi string, candles []domain.Candle) error
}

type quoteRepositoryHandler struct {
	store *Store
}

func NewQuoteRepository(store *Store) QuoteRepository {
	return quoteRepositoryHandler{store: store}
}

type quoteDoc struct {
	Time  time.Time `bson:"time"`
	Price float64   `bson:"price"`
	ISIN  string    `bson:"isin"`
	FIGI  string    `bson:"figi,omitempty"`
}

func (h quoteRepositoryHandler) List(ctx context.Context, isin string, rng domain.TimeRange) (*domain.Quotes, error) {
	q := NewQuery(
		Eq("isin", isin),
		InRange("time", rng),
	).SortBy("time")

	cursor, err := h.store.collection("quotes").Find(ctx, q.selector(), q.findOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes for %s: %w", isin, err)
	}
	docs := []quoteDoc{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode quotes for %s: %w", isin, err)
	}

	out := domain.NewQuotes()
	for _, d := range docs {
		out.Put(d.Time, decimal.NewFromFloat(d.Price))
	}
	return out, nil
}

func (h quoteRepositoryHandler) Upsert(ctx context.Context, isin, figi string, candles []domain.Candle) error {
	coll := h.store.collection("quotes")
	for _, c := range candles {
		doc := quoteDoc{
			Time:  domain.Day(c.Date),
			Price: c.Price.InexactFloat64(),
			ISIN:  isin,
			FIGI:  figi,
		}
		key := bson.M{"isin": isin, "time": doc.Time}
		_, err := coll.UpdateOne(ctx, key, bson.M{"$set": doc}, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to upsert quote %s %s: %w", isin, domain.DayKey(c.Date), err)
		}
	}
	return nil
}
