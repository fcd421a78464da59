package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"folio/internal/domain"
	"folio/internal/repository"
)

// CacheInvalidator drops memoized valuation inputs after the ledger changes.
type CacheInvalidator interface {
	Invalidate() error
}

type Parser func(content []byte, portfolioID, brokerID int64) ([]domain.CashMovement, error)

// Parsers maps broker codes to their report parser.
var Parsers = map[string]Parser{
	"alfa": ParseAlfaReport,
	"vtb":  ParseVTBReport,
}

// Service imports broker reports into the cash sub-ledgers. Upserts are
// idempotent, so re-importing an overlapping report is safe.
type Service struct {
	money       repository.CashRepository
	dividends   repository.CashRepository
	commissions repository.CashRepository
	cache       CacheInvalidator
	logger      *slog.Logger
}

func NewService(
	money repository.CashRepository,
	dividends repository.CashRepository,
	commissions repository.CashRepository,
	cache CacheInvalidator,
	logger *slog.Logger,
) *Service {
	return &Service{
		money:       money,
		dividends:   dividends,
		commissions: commissions,
		cache:       cache,
		logger:      logger,
	}
}

// ImportReport parses one broker report and upserts every movement found.
// It returns the import batch ID and the number of movements written.
func (s *Service) ImportReport(ctx context.Context, broker string, portfolioID, brokerID int64, content []byte) (uuid.UUID, int, error) {
	parse, ok := Parsers[broker]
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("unknown broker %q", broker)
	}

	movements, err := parse(content, portfolioID, brokerID)
	if err != nil {
		return uuid.Nil, 0, err
	}

	byCategory := map[domain.CashCategory][]domain.CashMovement{}
	for _, m := range movements {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	repos := map[domain.CashCategory]repository.CashRepository{
		domain.CashOperating:  s.money,
		domain.CashDividend:   s.dividends,
		domain.CashCommission: s.commissions,
	}
	for category, batch := range byCategory {
		if err := repos[category].Upsert(ctx, batch); err != nil {
			return uuid.Nil, 0, err
		}
	}

	if err := s.cache.Invalidate(); err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to invalidate cache after import: %w", err)
	}

	batchID := uuid.New()
	s.logger.Info("imported broker report",
		"batch", batchID,
		"broker", broker,
		"movements", len(movements))
	return batchID, len(movements), nil
}
