// Package engine runs rebalance cycles. A cycle snapshots a bot's
// wallet, values it, computes drift against the bot's targets, and
// executes the resulting trades, recording one transaction per intent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/drift"
	"solana-rebalancer/internal/observability"
	"solana-rebalancer/internal/pricing"
	"solana-rebalancer/internal/storage"
	"solana-rebalancer/internal/vault"
)

// targetSumTolerance is how far a bot's target percentages may stray
// from 100 before the cycle aborts as a configuration error.
const targetSumTolerance = 0.5

var (
	// ErrCycleInProgress is returned when another cycle already holds
	// the bot's lock.
	ErrCycleInProgress = errors.New("cycle already in progress")

	// ErrWalletNotFound is returned when the bot's user has no
	// custodial wallet.
	ErrWalletNotFound = errors.New("custodial wallet not found")

	// ErrBadTargets is returned when a bot's target allocations do not
	// sum to 100.
	ErrBadTargets = errors.New("target allocations do not sum to 100")
)

// Cycle states as recorded in CycleResult.
const (
	StateDone    = "done"
	StateAborted = "aborted"
)

// HoldingsReader captures a wallet's current balances.
type HoldingsReader interface {
	Snapshot(ctx context.Context, pubkey string) (map[string]domain.TokenHolding, error)
}

// Valuer prices a holdings snapshot.
type Valuer interface {
	Value(ctx context.Context, holdings map[string]domain.TokenHolding) pricing.Valuation
}

// TradeExecutor carries out one trade intent.
type TradeExecutor interface {
	Execute(ctx context.Context, key *vault.SigningKey, intent domain.TradeIntent, valuation pricing.Valuation, holdings map[string]domain.TokenHolding) (string, error)
}

// Engine coordinates rebalance cycles.
type Engine struct {
	botStore      storage.BotStore
	walletStore   storage.WalletStore
	txStore       storage.TransactionStore
	snapshotStore storage.AllocationSnapshotStore

	reader     HoldingsReader
	valuer     Valuer
	calculator *drift.Calculator
	executor   TradeExecutor
	vault      *vault.Vault
	quoteMint  string

	locks  *lockRegistry
	logger *log.Logger
}

// Options for creating Engine.
type Options struct {
	// Required stores
	BotStore         storage.BotStore
	WalletStore      storage.WalletStore
	TransactionStore storage.TransactionStore

	// SnapshotStore is optional. When set, each cycle appends its
	// allocation points to the allocation_history timeseries.
	SnapshotStore storage.AllocationSnapshotStore

	// Required collaborators
	Reader     HoldingsReader
	Valuer     Valuer
	Calculator *drift.Calculator
	Executor   TradeExecutor
	Vault      *vault.Vault

	// QuoteMint is the asset every trade settles against. Intents for
	// this mint are satisfied by the opposite legs of the other intents
	// and are never executed directly. Defaults to USDC.
	QuoteMint string

	Logger *log.Logger
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.BotStore == nil:
		return nil, errors.New("bot store is required")
	case opts.WalletStore == nil:
		return nil, errors.New("wallet store is required")
	case opts.TransactionStore == nil:
		return nil, errors.New("transaction store is required")
	case opts.Reader == nil:
		return nil, errors.New("holdings reader is required")
	case opts.Valuer == nil:
		return nil, errors.New("valuer is required")
	case opts.Executor == nil:
		return nil, errors.New("executor is required")
	case opts.Vault == nil:
		return nil, errors.New("vault is required")
	}

	calculator := opts.Calculator
	if calculator == nil {
		calculator = drift.NewCalculator(drift.DefaultThreshold)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	quoteMint := opts.QuoteMint
	if quoteMint == "" {
		quoteMint = pricing.USDCMint
	}

	return &Engine{
		botStore:      opts.BotStore,
		walletStore:   opts.WalletStore,
		txStore:       opts.TransactionStore,
		snapshotStore: opts.SnapshotStore,
		reader:        opts.Reader,
		valuer:        opts.Valuer,
		calculator:    calculator,
		executor:      opts.Executor,
		vault:         opts.Vault,
		quoteMint:     quoteMint,
		locks:         newLockRegistry(),
		logger:        logger,
	}, nil
}

// CycleResult summarizes one rebalance cycle.
type CycleResult struct {
	BotID   string
	CycleID string
	State   string // done | aborted
	Intents int
	Traded  int
	Failed  int
	Errors  []string
}

// RunCycle executes one rebalance cycle for the bot. Aborts, before
// any trade, on: a concurrent cycle, an unknown bot, malformed targets,
// a missing wallet, an unreachable ledger, or an undecryptable key.
// The key is only decrypted when there are trades to sign, so a cycle
// with nothing to do completes without touching the encrypted blob.
// Once trading starts, per-intent failures are recorded and the cycle
// continues with the remaining intents.
func (e *Engine) RunCycle(ctx context.Context, botID string) (*CycleResult, error) {
	if !e.locks.TryAcquire(botID) {
		return nil, fmt.Errorf("bot %s: %w", botID, ErrCycleInProgress)
	}
	defer e.locks.Release(botID)

	started := time.Now()
	result := &CycleResult{
		BotID:   botID,
		CycleID: uuid.NewString(),
		State:   StateAborted,
	}

	bot, err := e.botStore.GetByID(ctx, botID)
	if err != nil {
		observability.RecordCycle("aborted", time.Since(started).Seconds())
		return result, fmt.Errorf("load bot %s: %w", botID, err)
	}

	if sum := bot.TargetSum(); math.Abs(sum-100) > targetSumTolerance {
		observability.RecordCycle("aborted", time.Since(started).Seconds())
		return result, fmt.Errorf("bot %s: %w: sum=%.2f", botID, ErrBadTargets, sum)
	}

	wallet, err := e.walletStore.GetByUserID(ctx, bot.UserID)
	if err != nil {
		observability.RecordCycle("aborted", time.Since(started).Seconds())
		if errors.Is(err, storage.ErrNotFound) {
			return result, fmt.Errorf("bot %s: %w", botID, ErrWalletNotFound)
		}
		return result, fmt.Errorf("load wallet for bot %s: %w", botID, err)
	}

	holdings, err := e.reader.Snapshot(ctx, wallet.PublicKey)
	if err != nil {
		observability.RecordCycle("aborted", time.Since(started).Seconds())
		return result, fmt.Errorf("snapshot bot %s: %w", botID, err)
	}

	valuation := e.valuer.Value(ctx, holdings)
	observability.RecordPortfolioValue(botID, valuation.Total)

	intents := e.executableIntents(e.calculator.ComputeIntents(valuation.Allocations, bot.TargetAllocations))
	result.Intents = len(intents)

	e.recordSnapshots(ctx, bot, result.CycleID, valuation.Allocations)

	e.logger.Printf("cycle %s: bot=%s value=%.2f intents=%d",
		result.CycleID, botID, valuation.Total, len(intents))

	now := time.Now()
	if len(intents) > 0 {
		// The key is decrypted only when there is something to sign
		// and is wiped as soon as the cycle ends.
		key, err := e.vault.Unlock(wallet.EncryptedPrivateKey)
		if err != nil {
			observability.RecordCycle("aborted", time.Since(started).Seconds())
			return result, fmt.Errorf("unlock wallet for bot %s: %w", botID, err)
		}
		defer key.Wipe()

		for _, intent := range intents {
			observability.RecordDrift(intent.Drift)

			signature, execErr := e.executor.Execute(ctx, key, intent, valuation, holdings)
			record := buildRecord(botID, intent, signature, execErr)

			if execErr != nil {
				result.Failed++
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s %s: %v", intent.Action, intent.Mint, execErr))
				observability.RecordTrade(intent.Action, domain.TxStatusError)
			} else {
				result.Traded++
				observability.RecordTrade(intent.Action, domain.TxStatusSuccess)
			}

			if err := e.txStore.Insert(ctx, record); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("record %s %s: %v", intent.Action, intent.Mint, err))
			}
		}
	}

	if err := e.botStore.SetLastRunAt(ctx, botID, now); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("set last run: %v", err))
	}

	result.State = StateDone
	observability.RecordCycle("done", time.Since(started).Seconds())
	observability.DefaultMetrics.LastCycleRun.Set(float64(now.Unix()))

	e.logger.Printf("cycle %s: done traded=%d failed=%d", result.CycleID, result.Traded, result.Failed)
	return result, nil
}

// executableIntents drops intents for the quote asset. Every venue
// route trades against the quote asset, so its balance moves as the
// opposite leg of each other trade and it never needs an order of its
// own.
func (e *Engine) executableIntents(intents []domain.TradeIntent) []domain.TradeIntent {
	out := intents[:0]
	for _, intent := range intents {
		if intent.Mint == e.quoteMint {
			continue
		}
		out = append(out, intent)
	}
	return out
}

// buildRecord turns one trade attempt into its append-only record.
// Failed attempts without a ledger signature get a synthetic one so the
// record still has a unique handle.
func buildRecord(botID string, intent domain.TradeIntent, signature string, execErr error) *domain.Transaction {
	executedAt := time.Now()

	record := &domain.Transaction{
		ID:          uuid.NewString(),
		BotID:       botID,
		TxSignature: signature,
		ExecutedAt:  executedAt,
	}

	if execErr != nil {
		if record.TxSignature == "" {
			record.TxSignature = fmt.Sprintf("error_%d", executedAt.UnixMilli())
		}
		record.Status = domain.TxStatusError
		record.Details = &domain.TransactionDetails{
			Error: &domain.ErrorDetails{Message: execErr.Error()},
		}
		return record
	}

	record.Status = domain.TxStatusSuccess
	record.Details = &domain.TransactionDetails{
		Trade: &domain.TradeDetails{
			Action:         intent.Action,
			TokenMint:      intent.Mint,
			FromAllocation: intent.CurrentAllocation,
			ToAllocation:   intent.TargetAllocation,
		},
	}
	return record
}

// recordSnapshots appends the cycle's allocation points. Best effort:
// the timeseries is diagnostic, a write failure never stops a cycle.
func (e *Engine) recordSnapshots(ctx context.Context, bot *domain.Bot, cycleID string, current map[string]float64) {
	if e.snapshotStore == nil {
		return
	}

	now := time.Now().UnixMilli()
	points := make([]*domain.AllocationSnapshot, 0, len(bot.TargetAllocations))
	for mint, target := range bot.TargetAllocations {
		cur := current[mint]
		points = append(points, &domain.AllocationSnapshot{
			BotID:       bot.ID,
			CycleID:     cycleID,
			Mint:        mint,
			CurrentPct:  cur,
			TargetPct:   target,
			DriftPct:    math.Abs(cur - target),
			TimestampMs: now,
		})
	}
	if len(points) == 0 {
		return
	}

	if err := e.snapshotStore.InsertBulk(ctx, points); err != nil {
		e.logger.Printf("cycle %s: allocation history write failed: %v", cycleID, err)
	}
}
