package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/domain"
)

type SecurityRepository interface {
	GetByISIN(ctx context.Context, isin string) (domain.Security, error)
	GetByTicker(ctx context.Context, ticker string) (domain.Security, error)
	Upsert(ctx context.Context, sec domain.Security) error
}

type securityRepositoryHandler struct {
	store *Store
}

func NewSecurityRepository(store *Store) SecurityRepository {
	return securityRepositoryHandler{store: store}
}

type securityDoc struct {
	ISIN      string  `bson:"isin"`
	Ticker    string  `bson:"ticker"`
	Name      string  `bson:"name"`
	Currency  string  `bson:"currency"`
	Type      string  `bson:"type,omitempty"`
	FaceValue float64 `bson:"facevalue,omitempty"`
	FIGI      string  `bson:"figi,omitempty"`
}

func (h securityRepositoryHandler) GetByISIN(ctx context.Context, isin string) (domain.Security, error) {
	return h.findOne(ctx, Eq("isin", isin))
}

func (h securityRepositoryHandler) GetByTicker(ctx context.Context, ticker string) (domain.Security, error) {
	return h.findOne(ctx, Eq("ticker", ticker))
}

func (h securityRepositoryHandler) findOne(ctx context.Context, f Filter) (domain.Security, error) {
	q := NewQuery(f)
	doc := securityDoc{}
	err := h.store.collection("securities").FindOne(ctx, q.selector()).Decode(&doc)
	if err != nil {
		return domain.Security{}, fmt.Errorf("failed to get security: %w", err)
	}
	return securityFromDoc(doc)
}

func (h securityRepositoryHandler) Upsert(ctx context.Context, sec domain.Security) error {
	doc := securityToDoc(sec)
	_, err := h.store.collection("securities").UpdateOne(ctx,
		bson.M{"isin": doc.ISIN},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", sec.ISIN, err)
	}
	return nil
}

func securityFromDoc(d securityDoc) (domain.Security, error) {
	cur, err := domain.ParseCurrency(d.Currency)
	if err != nil {
		return domain.Security{}, err
	}
	return domain.Security{
		ISIN:      d.ISIN,
		Ticker:    d.Ticker,
		Name:      d.Name,
		Currency:  cur,
		Type:      d.Type,
		FaceValue: decimal.NewFromFloat(d.FaceValue),
		FIGI:      d.FIGI,
	}, nil
}

func securityToDoc(s domain.Security) securityDoc {
	return securityDoc{
		ISIN:      s.ISIN,
		Ticker:    s.Ticker,
		Name:      s.Name,
		Currency:  string(s.Currency),
		Type:      s.Type,
		FaceValue: s.FaceValue.InexactFloat64(),
		FIGI:      s.FIGI,
	}
}
