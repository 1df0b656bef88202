package chomp

import (
	"context"
	"fmt"
	"time"

	"chompie/internal/filestate"
	"chompie/internal/logging"
	"chompie/internal/strategy"
)

// Guard is consulted after every evaluation. A non-nil error stops the run.
type Guard interface {
	Check() error
}

// evaluator applies one candidate at a time: blank, persist, run, compare,
// then keep or restore.
type evaluator struct {
	set      *filestate.Set
	runner   Runner
	oracle   *Oracle
	memo     *memo
	guard    Guard
	stats    *Stats
	progress Progress
}

func (e *evaluator) evaluate(ctx context.Context, round int, name string, c strategy.Candidate) (strategy.Outcome, error) {
	start := time.Now()
	st := e.stats.strategy(name)
	f := c.File

	positions := f.Live(c.Positions)
	if len(positions) == 0 {
		logging.EngineDebug("%s: %s is stale, skipped", name, c)
		return e.skipped(round, name, st, c, start), nil
	}
	c.Positions = positions

	saved := f.Blank(positions)

	var key string
	if e.memo != nil {
		key = e.set.StateKey()
		if e.memo.knownFailing(key) {
			f.Restore(saved)
			logging.EngineDebug("%s: %s recreates a known failing state, skipped", name, c)
			return e.skipped(round, name, st, c, start), nil
		}
	}

	if err := f.Persist(); err != nil {
		f.Restore(saved)
		return strategy.Reverted, fmt.Errorf("%w: %s: %w", ErrPersist, f.Path(), err)
	}

	e.stats.Attempts++
	st.Attempts++

	runStart := time.Now()
	res, runErr := e.runner.Run(ctx)
	e.stats.CommandTime += time.Since(runStart)

	outcome := strategy.Reverted
	switch {
	case runErr != nil:
		logging.EngineWarn("%s: %s counted as failed: %v", name, c, runErr)
	case e.oracle.Matches(res):
		outcome = strategy.Committed
	default:
		if logging.Get(logging.CategoryEngine).Enabled() {
			logging.EngineDebug("%s: %s reverted: %s", name, c, e.oracle.Explain(res))
		}
	}

	auditType := logging.AuditReverted
	if outcome == strategy.Committed {
		auditType = logging.AuditCommitted
		e.stats.Commits++
		st.Commits++
		st.Removed += len(positions)
		logging.Engine("%s: committed %s", name, c)
	} else {
		f.Restore(saved)
		if err := f.Persist(); err != nil {
			return outcome, fmt.Errorf("%w: restoring %s: %w", ErrPersist, f.Path(), err)
		}
		// Only a definite mismatch is remembered; an undetermined run may pass next time.
		if runErr == nil {
			e.memo.recordFailure(key)
		}
	}

	logging.Audit(logging.AuditEvent{
		Type:       auditType,
		Strategy:   name,
		File:       f.Path(),
		Positions:  positions,
		Round:      round,
		DurationMs: time.Since(start).Milliseconds(),
	})
	e.notify(round, name, c, outcome, start)

	if e.guard != nil {
		if err := e.guard.Check(); err != nil {
			logging.Audit(logging.AuditEvent{Type: logging.AuditTreeChange, Message: err.Error()})
			return outcome, err
		}
	}
	return outcome, nil
}

func (e *evaluator) skipped(round int, name string, st *StrategyStats, c strategy.Candidate, start time.Time) strategy.Outcome {
	e.stats.Skipped++
	st.Skipped++
	logging.Audit(logging.AuditEvent{
		Type:      logging.AuditSkipped,
		Strategy:  name,
		File:      c.File.Path(),
		Positions: c.Positions,
		Round:     round,
	})
	e.notify(round, name, c, strategy.Skipped, start)
	return strategy.Skipped
}

func (e *evaluator) notify(round int, name string, c strategy.Candidate, o strategy.Outcome, start time.Time) {
	e.progress.Evaluated(Update{
		Round:     round,
		Strategy:  name,
		Candidate: c,
		Outcome:   o,
		Duration:  time.Since(start),
		Attempts:  e.stats.Attempts,
		Commits:   e.stats.Commits,
		Skipped:   e.stats.Skipped,
		NonBlank:  e.set.NonBlankCount(),
	})
}
