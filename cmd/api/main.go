package main

import (
	"context"
	"log"

	"folio/internal/api"
	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/ingest"
	"folio/internal/logging"
	"folio/internal/marketdata"
	"folio/internal/portfolio"
	"folio/internal/quotes"
	"folio/internal/repository"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.Log)

	ctx := context.Background()
	store, err := repository.NewStore(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close(ctx)

	orderRepository := repository.NewOrderRepository(store)
	moneyRepository := repository.NewCashRepository(store, domain.CashOperating)
	dividendRepository := repository.NewCashRepository(store, domain.CashDividend)
	commissionRepository := repository.NewCashRepository(store, domain.CashCommission)
	securityRepository := repository.NewSecurityRepository(store)
	quoteRepository := repository.NewQuoteRepository(store)

	quoteService, err := quotes.NewService(
		quoteRepository,
		securityRepository,
		marketdata.NewClient(cfg.MarketData),
		cfg.Cache,
		cfg.Engine.CurrencyTickers,
		logger,
	)
	if err != nil {
		log.Fatal(err)
	}

	portfolioService := portfolio.NewService(
		orderRepository,
		moneyRepository,
		dividendRepository,
		commissionRepository,
		quoteService,
		cfg,
		logger,
	)
	ingestService := ingest.NewService(
		moneyRepository,
		dividendRepository,
		commissionRepository,
		quoteService,
		logger,
	)

	server := api.NewServer(portfolioService, ingestService, logger)
	logger.Info("listening", "addr", cfg.ListenAddr)
	if err := server.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
