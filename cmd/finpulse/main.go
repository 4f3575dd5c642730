package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/assistant"
	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/logger"
	"github.com/finpulse/finpulse/internal/provider"
	"github.com/finpulse/finpulse/internal/stats"
	"github.com/finpulse/finpulse/internal/store"
	bqstore "github.com/finpulse/finpulse/internal/store/bigquery"
	"github.com/finpulse/finpulse/internal/syncer"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		runSync(log)
	case "range":
		runRange(log)
	case "stats":
		runStats(log)
	case "ask":
		runAsk(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FinPulse CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  finpulse <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync      Run an incremental transaction sync for a user")
	fmt.Println("  range     Fetch a full transaction history window for a user")
	fmt.Println("  stats     Compute analytics for one transaction")
	fmt.Println("  ask       Ask the assistant a question")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'finpulse <command> -h' for more information on a command.")
}

func setup(log zerolog.Logger) (*config.Config, store.DocumentStore, *syncer.Coordinator, func()) {
	cfg, err := config.Load(os.Getenv("FINPULSE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.BigQuery.ProjectID == "" {
		log.Fatal().Msg("bigquery.project_id is required for CLI use (set FINPULSE_BIGQUERY_PROJECT_ID)")
	}

	ctx := context.Background()
	docs, err := bqstore.NewStore(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}

	source := provider.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.ClientID,
		cfg.Provider.Secret,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	)
	coordinator := syncer.New(source, docs, nil, log)

	return cfg, docs, coordinator, func() { docs.Close() }
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to sync")
	fs.Parse(os.Args[2:])

	_, _, coordinator, cleanup := setup(log)
	defer cleanup()

	result, err := coordinator.Sync(context.Background(), *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	log.Info().
		Int("added", len(result.Added)).
		Int("modified", len(result.Modified)).
		Int("removed", len(result.RemovedIDs)).
		Msg("Sync complete")
}

func runRange(log zerolog.Logger) {
	fs := flag.NewFlagSet("range", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	start := fs.String("start", "", "Start date (YYYY-MM-DD)")
	end := fs.String("end", time.Now().Format("2006-01-02"), "End date (YYYY-MM-DD)")
	fs.Parse(os.Args[2:])

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatal().Str("start", *start).Msg("start must be YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatal().Str("end", *end).Msg("end must be YYYY-MM-DD")
	}

	_, _, coordinator, cleanup := setup(log)
	defer cleanup()

	result, err := coordinator.FetchRange(context.Background(), *userID, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Range fetch failed")
	}

	log.Info().
		Int("transactions", len(result.Transactions)).
		Int("accounts", len(result.Accounts)).
		Msg("Range fetch complete")
}

func runStats(log zerolog.Logger) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	txID := fs.String("tx", "", "Transaction ID to analyze")
	fs.Parse(os.Args[2:])

	_, docs, _, cleanup := setup(log)
	defer cleanup()

	txs, err := docs.ListTransactions(context.Background(), *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	for i := range txs {
		if txs[i].ID == *txID {
			result := stats.Compute(&txs[i], txs, time.Now())
			fmt.Printf("%s: total %.2f over %d transactions, monthly %.2f, annual pacing %.2f",
				result.Merchant.MerchantName,
				result.Merchant.TotalAbsAmount,
				result.Merchant.Count,
				result.Merchant.MonthlyAverage,
				result.Merchant.AnnualPacing)
			if result.Merchant.Rank > 0 {
				fmt.Printf(" (rank %d of %d)", result.Merchant.Rank, result.Merchant.TotalPeers)
			}
			fmt.Printf("\n%.1f%% of annual income (%.2f)\n", result.PercentOfIncome, result.Income.AnnualIncome)
			return
		}
	}
	log.Fatal().Str("tx", *txID).Msg("Transaction not found")
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	question := fs.String("q", "", "Question for the assistant")
	fs.Parse(os.Args[2:])

	cfg, docs, _, cleanup := setup(log)
	defer cleanup()

	ctx := context.Background()
	txs, err := docs.ListTransactions(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	asst := assistant.NewService(
		assistant.NewAssembler(assistant.NewGate(cfg.Assistant.Keywords)),
		assistant.NewGeminiCompleter(cfg.Assistant.Model),
		log,
	)

	reply, err := asst.Reply(ctx, []assistant.Message{{Role: "user", Content: *question}}, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Assistant reply failed")
	}
	fmt.Println(reply)
}
