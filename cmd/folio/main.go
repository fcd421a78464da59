package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

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

// app is everything a subcommand can need, wired once in PersistentPreRunE.
type app struct {
	cfg       *config.Config
	store     *repository.Store
	portfolio *portfolio.Service
	ingest    *ingest.Service
	server    *api.Server
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log)

	store, err := repository.NewStore(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

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
		store.Close(ctx)
		return nil, err
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

	return &app{
		cfg:       cfg,
		store:     store,
		portfolio: portfolioService,
		ingest:    ingestService,
		server:    api.NewServer(portfolioService, ingestService, logger),
	}, nil
}

func main() {
	var (
		a           *app
		configPath  string
		portfolioID int64
		brokerID    int64
		currency    string
		from        string
		to          string
	)
	ctx := context.Background()

	root := &cobra.Command{
		Use:          "folio",
		Short:        "portfolio valuation from the trade ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(ctx, configPath)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.store.Close(ctx)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "directory holding folio.yaml")
	root.PersistentFlags().Int64Var(&portfolioID, "portfolio", 1, "portfolio id")
	root.PersistentFlags().Int64Var(&brokerID, "broker", 0, "broker id (0 = all brokers)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "current positions valued at live prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.portfolio.Snapshot(ctx, portfolioID, optionalBroker(brokerID))
			if err != nil {
				return err
			}
			printSnapshot(snap)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "daily portfolio value and baselines over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}
			report, err := a.portfolio.Report(ctx, portfolioID, optionalBroker(brokerID),
				rng, domain.Currency(currency))
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
	historyCmd.Flags().StringVar(&from, "from", "", "start date (2006-01-02)")
	historyCmd.Flags().StringVar(&to, "to", "", "end date (2006-01-02, default today)")
	historyCmd.Flags().StringVar(&currency, "currency", "RUB", "report currency")

	importCmd := &cobra.Command{
		Use:   "import <broker> <report.xml>",
		Short: "load cash movements from a broker report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			batch, count, err := a.ingest.ImportReport(ctx, args[0], portfolioID, brokerID, content)
			if err != nil {
				return err
			}
			fmt.Printf("batch %s: %d movements\n", batch, count)
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.server.Router().Run(a.cfg.ListenAddr)
		},
	}

	root.AddCommand(snapshotCmd, historyCmd, importCmd, serveCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func optionalBroker(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func parseRange(from, to string) (domain.TimeRange, error) {
	start, err := time.Parse(domain.DayLayout, from)
	if err != nil {
		return domain.TimeRange{}, fmt.Errorf("bad --from date: %w", err)
	}
	end := time.Now()
	if to != "" {
		end, err = time.Parse(domain.DayLayout, to)
		if err != nil {
			return domain.TimeRange{}, fmt.Errorf("bad --to date: %w", err)
		}
	}
	return domain.NewTimeRange(start, end), nil
}

func printSnapshot(snap *portfolio.Snapshot) {
	fmt.Printf("total  %s RUB\n", snap.Total.StringFixed(2))
	fmt.Printf("active %s RUB\n\n", snap.Active.StringFixed(2))
	for _, p := range snap.Positions {
		fmt.Printf("%-12s %10s x %-6s %14s %s (%s RUB)\n",
			p.Ticker, p.Quantity.String(), p.Currency,
			p.Native.StringFixed(2), p.Currency, p.Value.StringFixed(2))
	}
	fmt.Println()
	for _, cur := range domain.Currencies {
		if amount, ok := snap.Cash[cur]; ok {
			fmt.Printf("cash %s %s\n", cur, amount.StringFixed(2))
		}
	}
	allocated := make([]domain.Currency, 0, len(snap.Allocation))
	for cur := range snap.Allocation {
		allocated = append(allocated, cur)
	}
	sort.Slice(allocated, func(i, j int) bool { return allocated[i] < allocated[j] })
	for _, cur := range allocated {
		fmt.Printf("allocation %s %s%%\n", cur, snap.Allocation[cur].StringFixed(1))
	}
}

func printReport(report *portfolio.Report) {
	lists := []*domain.ValueList{
		report.Value, report.Rate, report.Cash, report.Dividends, report.Commissions,
	}
	fmt.Printf("%-12s", "date")
	for _, l := range lists {
		fmt.Printf(" %14s", l.Title)
	}
	fmt.Println()
	for i := 0; i < report.Value.Len(); i++ {
		fmt.Printf("%-12s", domain.DayKey(report.Value.At(i).Date))
		for _, l := range lists {
			fmt.Printf(" %14s", l.At(i).Value.StringFixed(2))
		}
		fmt.Println()
	}
}
