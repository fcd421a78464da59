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

type OrderRepository interface {
	List(ctx context.Context, portfolioID int64, rng domain.TimeRange, brokerID *int64) ([]domain.Order, error)
	Upsert(ctx context.Context, orders []domain.Order) error
}

type orderRepositoryHandler struct {
	store *Store
}

func NewOrderRepository(store *Store) OrderRepository {
	return orderRepositoryHandler{store: store}
}

type orderDoc struct {
	Date        time.Time `bson:"date"`
	ISIN        string    `bson:"isin"`
	Quantity    float64   `bson:"quantity"`
	Price       float64   `bson:"price"`
	Sum         float64   `bson:"sum"`
	Currency    string    `bson:"cur"`
	Market      string    `bson:"market"`
	PortfolioID int64     `bson:"portfolio"`
	BrokerID    int64     `bson:"broker"`
}

func (h orderRepositoryHandler) List(ctx context.Context, portfolioID int64, rng domain.TimeRange, brokerID *int64) ([]domain.Order, error) {
	filters := []Filter{
		Eq("portfolio", portfolioID),
		InRange("date", rng),
	}
	if brokerID != nil {
		filters = append(filters, Eq("broker", *brokerID))
	}
	q := NewQuery(filters...).SortBy("date")

	cursor, err := h.store.collection("orders").Find(ctx, q.selector(), q.findOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	docs := []orderDoc{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := orderFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Upsert is idempotent on the order's natural key so re-importing the same
// broker report is safe.
func (h orderRepositoryHandler) Upsert(ctx context.Context, orders []domain.Order) error {
	coll := h.store.collection("orders")
	for _, o := range orders {
		doc := orderToDoc(o)
		key := bson.M{
			"date":      doc.Date,
			"isin":      doc.ISIN,
			"quantity":  doc.Quantity,
			"sum":       doc.Sum,
			"portfolio": doc.PortfolioID,
			"broker":    doc.BrokerID,
		}
		_, err := coll.UpdateOne(ctx, key, bson.M{"$set": doc}, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to upsert order: %w", err)
		}
	}
	return nil
}

func orderFromDoc(d orderDoc) (domain.Order, error) {
	cur, err := domain.ParseCurrency(d.Currency)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		Date:        domain.Day(d.Date),
		ISIN:        d.ISIN,
		Quantity:    decimal.NewFromFloat(d.Quantity),
		Price:       decimal.NewFromFloat(d.Price),
		Amount:      decimal.NewFromFloat(d.Sum),
		Currency:    cur,
		Market:      d.Market,
		PortfolioID: d.PortfolioID,
		BrokerID:    d.BrokerID,
	}, nil
}

func orderToDoc(o domain.Order) orderDoc {
	return orderDoc{
		Date:        domain.Day(o.Date),
		ISIN:        o.ISIN,
		Quantity:    o.Quantity.InexactFloat64(),
		Price:       o.Price.InexactFloat64(),
		Sum:         o.Amount.InexactFloat64(),
		Currency:    string(o.Currency),
		Market:      o.Market,
		PortfolioID: o.PortfolioID,
		BrokerID:    o.BrokerID,
	}
}
