package chomp

import (
	"time"

	"chompie/internal/strategy"
)

// Update is sent after every evaluation, skipped ones included.
type Update struct {
	Round     int
	Strategy  string
	Candidate strategy.Candidate
	Outcome   strategy.Outcome
	Duration  time.Duration

	// Running totals.
	Attempts int
	Commits  int
	Skipped  int
	NonBlank int
}

// RoundSummary is sent at every round boundary.
type RoundSummary struct {
	Round    int
	Attempts int
	Commits  int
	Skipped  int
	NonBlank int
	Duration time.Duration
}

// Progress observes the run. It never influences decisions.
type Progress interface {
	RunStarted(stats *Stats)
	StrategyStarted(round int, name string, total int)
	Evaluated(u Update)
	RoundFinished(r RoundSummary)
	RunFinished(stats *Stats)
}

// NopProgress ignores every notification.
type NopProgress struct{}

func (NopProgress) RunStarted(*Stats)                {}
func (NopProgress) StrategyStarted(int, string, int) {}
func (NopProgress) Evaluated(Update)                 {}
func (NopProgress) RoundFinished(RoundSummary)       {}
func (NopProgress) RunFinished(*Stats)               {}
