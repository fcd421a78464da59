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

// CashRepository reads one cash sub-ledger: operating money, dividends or
// commissions. Each category is its own collection and its own independent
// ledger.
type CashRepository interface {
	Category() domain.CashCategory
	List(ctx context.Context, portfolioID int64, rng domain.TimeRange, brokerID *int64) ([]domain.CashMovement, error)
	Upsert(ctx context.Context, movements []domain.CashMovement) error
}

type cashRepositoryHandler struct {
	store    *Store
	category domain.CashCategory
}

func NewCashRepository(store *Store, category domain.CashCategory) CashRepository {
	return cashRepositoryHandler{store: store, category: category}
}

type cashDoc struct {
	Date        time.Time `bson:"date"`
	Currency    string    `bson:"cur"`
	Sum         float64   `bson:"sum"`
	Comment     string    `bson:"comment,omitempty"`
	PortfolioID int64     `bson:"portfolio"`
	BrokerID    int64     `bson:"broker"`
}

func (h cashRepositoryHandler) Category() domain.CashCategory { return h.category }

func (h cashRepositoryHandler) List(ctx context.Context, portfolioID int64, rng domain.TimeRange, brokerID *int64) ([]domain.CashMovement, error) {
	filters := []Filter{
		Eq("portfolio", portfolioID),
		InRange("date", rng),
	}
	if brokerID != nil {
		filters = append(filters, Eq("broker", *brokerID))
	}
	q := NewQuery(filters...).SortBy("date")

	cursor, err := h.store.collection(string(h.category)).Find(ctx, q.selector(), q.findOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", h.category, err)
	}
	docs := []cashDoc{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", h.category, err)
	}

	out := make([]domain.CashMovement, 0, len(docs))
	for _, d := range docs {
		m, err := h.movementFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (h cashRepositoryHandler) Upsert(ctx context.Context, movements []domain.CashMovement) error {
	coll := h.store.collection(string(h.category))
	for _, m := range movements {
		doc := h.movementToDoc(m)
		key := bson.M{
			"date":      doc.Date,
			"cur":       doc.Currency,
			"sum":       doc.Sum,
			"portfolio": doc.PortfolioID,
			"broker":    doc.BrokerID,
		}
		_, err := coll.UpdateOne(ctx, key, bson.M{"$set": doc}, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", h.category, err)
		}
	}
	return nil
}

func (h cashRepositoryHandler) movementFromDoc(d cashDoc) (domain.CashMovement, error) {
	cur, err := domain.ParseCurrency(d.Currency)
	if err != nil {
		return domain.CashMovement{}, err
	}
	return domain.CashMovement{
		Date:        domain.Day(d.Date),
		Currency:    cur,
		Amount:      decimal.NewFromFloat(d.Sum),
		Category:    h.category,
		Comment:     d.Comment,
		PortfolioID: d.PortfolioID,
		BrokerID:    d.BrokerID,
	}, nil
}

func (h cashRepositoryHandler) movementToDoc(m domain.CashMovement) cashDoc {
	return cashDoc{
		Date:        domain.Day(m.Date),
		Currency:    string(m.Currency),
		Sum:         m.Amount.InexactFloat64(),
		Comment:     m.Comment,
		PortfolioID: m.PortfolioID,
		BrokerID:    m.BrokerID,
	}
}
