package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-rebalancer/internal/drift"
	"solana-rebalancer/internal/engine"
	"solana-rebalancer/internal/executor"
	"solana-rebalancer/internal/holdings"
	"solana-rebalancer/internal/ledger"
	"solana-rebalancer/internal/observability"
	"solana-rebalancer/internal/pricing"
	"solana-rebalancer/internal/scheduler"
	"solana-rebalancer/internal/storage"
	chstore "solana-rebalancer/internal/storage/clickhouse"
	"solana-rebalancer/internal/storage/memory"
	pgstore "solana-rebalancer/internal/storage/postgres"
	"solana-rebalancer/internal/vault"
	"solana-rebalancer/internal/venue"
)

func main() {
	// Load .env file if present; system env vars take precedence
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	mode := flag.String("mode", "pass", "Run mode: once (single bot), pass (one pass over all bots), or daemon")
	botID := flag.String("bot", "", "Bot ID for --mode=once")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (for confirmation)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to skip allocation history)")
	venueURL := flag.String("venue-url", os.Getenv("VENUE_BASE_URL"), "Swap venue API base URL (empty for default)")
	threshold := flag.Float64("threshold", drift.DefaultThreshold, "Drift threshold in percentage points")
	slippageBps := flag.Int("slippage-bps", venue.DefaultSlippageBps, "Swap slippage tolerance in basis points")
	confirm := flag.Bool("confirm", false, "Wait for on-chain confirmation of each trade")
	checkInterval := flag.Duration("check-interval", 10*time.Minute, "Scheduler check interval for --mode=daemon")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[rebalance] ", log.LstdFlags)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, options{
		mode:          *mode,
		botID:         *botID,
		rpcEndpoint:   *rpcEndpoint,
		wsEndpoint:    *wsEndpoint,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		venueURL:      *venueURL,
		threshold:     *threshold,
		slippageBps:   *slippageBps,
		confirm:       *confirm,
		checkInterval: *checkInterval,
		useMemory:     *useMemory,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type options struct {
	mode          string
	botID         string
	rpcEndpoint   string
	wsEndpoint    string
	postgresDSN   string
	clickhouseDSN string
	venueURL      string
	threshold     float64
	slippageBps   int
	confirm       bool
	checkInterval time.Duration
	useMemory     bool
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	if opts.rpcEndpoint == "" {
		return fmt.Errorf("--rpc-endpoint is required")
	}

	secret := os.Getenv("WALLET_ENCRYPTION_KEY")
	v, err := vault.New(secret)
	if err != nil {
		return fmt.Errorf("WALLET_ENCRYPTION_KEY: %w", err)
	}

	// Require --postgres-dsn unless --use-memory is explicitly set
	if !opts.useMemory && opts.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var botStore storage.BotStore = memory.NewBotStore()
	var walletStore storage.WalletStore = memory.NewWalletStore()
	var txStore storage.TransactionStore = memory.NewTransactionStore()
	var snapshotStore storage.AllocationSnapshotStore

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		botStore = pgstore.NewBotStore(pool)
		walletStore = pgstore.NewWalletStore(pool)
		txStore = pgstore.NewTransactionStore(pool)
	}

	if opts.clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		snapshotStore = chstore.NewAllocationSnapshotStore(conn)
	}

	rpc := ledger.NewHTTPClient(opts.rpcEndpoint)

	var confirmer executor.Confirmer
	if opts.confirm {
		if opts.wsEndpoint == "" {
			return fmt.Errorf("--ws-endpoint is required with --confirm")
		}
		confirmer = ledger.NewWSConfirmer(opts.wsEndpoint, nil)
	}

	venueOpts := []venue.Option{venue.WithSlippageBps(opts.slippageBps)}
	if opts.venueURL != "" {
		venueOpts = append(venueOpts, venue.WithBaseURL(opts.venueURL))
	}
	venueClient := venue.NewClient(venueOpts...)

	exec, err := executor.New(executor.Options{
		Venue:     venueClient,
		Ledger:    rpc,
		Confirmer: confirmer,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	eng, err := engine.New(engine.Options{
		BotStore:         botStore,
		WalletStore:      walletStore,
		TransactionStore: txStore,
		SnapshotStore:    snapshotStore,
		Reader:           holdings.NewReader(rpc, logger),
		Valuer:           pricing.NewValuer(venueClient, logger),
		Calculator:       drift.NewCalculator(opts.threshold),
		Executor:         exec,
		Vault:            v,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	switch opts.mode {
	case "once":
		if opts.botID == "" {
			return fmt.Errorf("--bot is required for --mode=once")
		}
		result, err := eng.RunCycle(ctx, opts.botID)
		if err != nil {
			return err
		}
		logger.Printf("Cycle %s: %s intents=%d traded=%d failed=%d",
			result.CycleID, result.State, result.Intents, result.Traded, result.Failed)
		for _, msg := range result.Errors {
			logger.Printf("  error: %s", msg)
		}
		return nil

	case "pass":
		sched := scheduler.New(botStore, eng, logger)
		result, err := sched.RunPass(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Printf("Pass complete: checked=%d due=%d ran=%d errors=%d",
			result.Checked, result.Due, result.Ran, len(result.Errors))
		for _, msg := range result.Errors {
			logger.Printf("  error: %s", msg)
		}
		return nil

	case "daemon":
		sched := scheduler.New(botStore, eng, logger)
		return sched.Run(ctx, opts.checkInterval)

	default:
		return fmt.Errorf("unknown mode: %s", opts.mode)
	}
}
