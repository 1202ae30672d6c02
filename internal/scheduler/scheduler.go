// Package scheduler decides which bots are due for a rebalance and
// dispatches their cycles.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-rebalancer/internal/domain"
	"solana-rebalancer/internal/engine"
	"solana-rebalancer/internal/observability"
	"solana-rebalancer/internal/storage"
)

// Rebalance intervals per frequency class.
const (
	IntervalHourly = time.Hour
	IntervalDaily  = 24 * time.Hour
	IntervalWeekly = 7 * 24 * time.Hour
)

// frequencies is the dispatch order of a pass.
var frequencies = []string{
	domain.FrequencyHourly,
	domain.FrequencyDaily,
	domain.FrequencyWeekly,
}

// Interval returns the rebalance interval for a frequency class, or an
// error for an unknown one.
func Interval(frequency string) (time.Duration, error) {
	switch frequency {
	case domain.FrequencyHourly:
		return IntervalHourly, nil
	case domain.FrequencyDaily:
		return IntervalDaily, nil
	case domain.FrequencyWeekly:
		return IntervalWeekly, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", frequency)
	}
}

// Due reports whether a bot is due at now given when it last completed
// a cycle. A bot that has never run is always due. Unknown frequencies
// are never due.
func Due(now time.Time, lastRunAt *time.Time, frequency string) bool {
	interval, err := Interval(frequency)
	if err != nil {
		return false
	}
	if lastRunAt == nil {
		return true
	}
	return now.Sub(*lastRunAt) >= interval
}

// CycleRunner is the engine surface the scheduler needs.
type CycleRunner interface {
	RunCycle(ctx context.Context, botID string) (*engine.CycleResult, error)
}

// Scheduler runs periodic passes over all bots.
type Scheduler struct {
	bots   storage.BotStore
	runner CycleRunner
	logger *log.Logger
}

// New creates a new Scheduler.
func New(bots storage.BotStore, runner CycleRunner, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{bots: bots, runner: runner, logger: logger}
}

// PassResult summarizes one scheduler pass.
type PassResult struct {
	Checked int
	Due     int
	Ran     int
	Errors  []string
}

// RunPass checks every bot once and runs a cycle for each that is due.
// Cycles run sequentially; one bot's failure does not stop the pass. A
// bot already mid-cycle is skipped, not an error.
func (s *Scheduler) RunPass(ctx context.Context, now time.Time) (*PassResult, error) {
	result := &PassResult{}

	for _, frequency := range frequencies {
		bots, err := s.bots.GetByFrequency(ctx, frequency)
		if err != nil {
			return result, fmt.Errorf("load %s bots: %w", frequency, err)
		}

		for _, bot := range bots {
			result.Checked++
			if !Due(now, bot.LastRunAt, bot.Frequency) {
				continue
			}
			result.Due++

			cycle, err := s.runner.RunCycle(ctx, bot.ID)
			if err != nil {
				if errors.Is(err, engine.ErrCycleInProgress) {
					s.logger.Printf("pass: bot %s still mid-cycle, skipping", bot.ID)
					continue
				}
				result.Errors = append(result.Errors, fmt.Sprintf("bot %s: %v", bot.ID, err))
				continue
			}

			result.Ran++
			s.logger.Printf("pass: bot %s cycle %s traded=%d failed=%d",
				bot.ID, cycle.CycleID, cycle.Traded, cycle.Failed)
		}
	}

	observability.RecordSchedulerPass(result.Due)
	return result, nil
}

// Run keeps running passes at the check interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	s.logger.Printf("scheduler started, checking every %s", checkInterval)

	for {
		if _, err := s.RunPass(ctx, time.Now()); err != nil {
			s.logger.Printf("pass failed: %v", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Printf("scheduler stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
