// Package chomp is the reduction engine: it captures a baseline, then runs
// rounds of candidate strategies, keeping every blanking that leaves the
// command's exit code, stdout and stderr unchanged, until a round commits
// nothing.
package chomp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chompie/internal/filestate"
	"chompie/internal/logging"
	"chompie/internal/strategy"
)

// Options configures an Engine.
type Options struct {
	// Strategies run in order every round.
	Strategies []strategy.Strategy

	// Memoize skips candidates that recreate a state already seen to fail.
	Memoize bool

	// MaxRounds stops the run after this many rounds; 0 runs to fixpoint.
	MaxRounds int

	Progress Progress
	Guard    Guard
}

// Engine owns the tracked files and the baseline for one run.
type Engine struct {
	set    *filestate.Set
	runner Runner
	opts   Options
}

// NewEngine creates an engine over set that verifies with runner.
func NewEngine(set *filestate.Set, runner Runner, opts Options) *Engine {
	if opts.Progress == nil {
		opts.Progress = NopProgress{}
	}
	return &Engine{set: set, runner: runner, opts: opts}
}

// Run captures the baseline and reduces until fixpoint. The returned Stats
// are valid even when err is non-nil. Cancelling ctx stops the run after the
// current evaluation has been committed or reverted; Run then returns the
// context's error.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	names := make([]string, len(e.opts.Strategies))
	for i, s := range e.opts.Strategies {
		names[i] = s.Name()
	}
	stats := newStats(e.set, names)
	defer stats.finish(e.set)

	if len(e.opts.Strategies) == 0 {
		return stats, errors.New("no strategies configured")
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	logging.Audit(logging.AuditEvent{
		Type:    logging.AuditRunStart,
		Message: fmt.Sprintf("%d files, %d non-blank lines", e.set.Len(), stats.InitialNonBlank),
	})

	base, err := CaptureBaseline(ctx, e.runner)
	if err != nil {
		return stats, err
	}

	ev := &evaluator{
		set:      e.set,
		runner:   e.runner,
		oracle:   NewOracle(base),
		guard:    e.opts.Guard,
		stats:    stats,
		progress: e.opts.Progress,
	}
	if e.opts.Memoize {
		ev.memo = newMemo()
	}

	e.opts.Progress.RunStarted(stats)
	err = e.rounds(ctx, ev, stats)
	stats.finish(e.set)
	e.opts.Progress.RunFinished(stats)

	logging.Audit(logging.AuditEvent{
		Type:       logging.AuditRunEnd,
		Round:      stats.Rounds,
		DurationMs: stats.Elapsed.Milliseconds(),
		Message:    fmt.Sprintf("%d -> %d non-blank lines", stats.InitialNonBlank, stats.FinalNonBlank),
	})
	logging.Engine("run finished: rounds=%d attempts=%d commits=%d skipped=%d memo=%d",
		stats.Rounds, stats.Attempts, stats.Commits, stats.Skipped, ev.memo.size())
	return stats, err
}

func (e *Engine) rounds(ctx context.Context, ev *evaluator, stats *Stats) error {
	for round := 1; ; round++ {
		if e.opts.MaxRounds > 0 && round > e.opts.MaxRounds {
			stats.RoundCapped = true
			logging.EngineWarn("stopping after %d rounds (max_rounds)", e.opts.MaxRounds)
			return nil
		}

		roundStart := time.Now()
		attempts, commits, skipped := stats.Attempts, stats.Commits, stats.Skipped

		for _, s := range e.opts.Strategies {
			if err := e.runStrategy(ctx, ev, round, s); err != nil {
				return err
			}
		}

		stats.Rounds = round
		summary := RoundSummary{
			Round:    round,
			Attempts: stats.Attempts - attempts,
			Commits:  stats.Commits - commits,
			Skipped:  stats.Skipped - skipped,
			NonBlank: e.set.NonBlankCount(),
			Duration: time.Since(roundStart),
		}
		e.opts.Progress.RoundFinished(summary)
		logging.Engine("round %d: attempts=%d commits=%d non-blank=%d", round, summary.Attempts, summary.Commits, summary.NonBlank)
		logging.Audit(logging.AuditEvent{Type: logging.AuditRoundEnd, Round: round, DurationMs: summary.Duration.Milliseconds()})

		if summary.Commits == 0 {
			stats.Fixpoint = true
			return nil
		}
	}
}

func (e *Engine) runStrategy(ctx context.Context, ev *evaluator, round int, s strategy.Strategy) error {
	gen := s.Generate(e.set.Files())
	total := 0
	if sized, ok := gen.(strategy.Sized); ok {
		total = sized.Total()
	}
	e.opts.Progress.StrategyStarted(round, s.Name(), total)
	logging.StrategyDebug("round %d: %s starting (%d candidates expected)", round, s.Name(), total)

	for {
		if err := ctx.Err(); err != nil {
			logging.EngineWarn("interrupted during %s in round %d", s.Name(), round)
			return err
		}
		c, ok := gen.Next()
		if !ok {
			return nil
		}
		outcome, err := ev.evaluate(ctx, round, s.Name(), c)
		gen.Report(outcome)
		if err != nil {
			return err
		}
	}
}
