package chomp

import (
	"time"

	"chompie/internal/filestate"
)

// StrategyStats are the counters for one strategy across all rounds.
type StrategyStats struct {
	Name     string
	Attempts int
	Commits  int
	Skipped  int
	Removed  int // lines blanked by this strategy's commits
}

// FileStats compares one file before and after the run.
type FileStats struct {
	Path            string
	Lines           int
	InitialNonBlank int
	FinalNonBlank   int
}

// Stats is the run-wide context threaded through every evaluation.
type Stats struct {
	InitialNonBlank int
	FinalNonBlank   int
	TotalLines      int

	Attempts int
	Commits  int
	Skipped  int
	Rounds   int

	// Fixpoint is true when the last round committed nothing.
	Fixpoint bool
	// RoundCapped is true when run.max_rounds stopped the run first.
	RoundCapped bool

	StartedAt   time.Time
	Elapsed     time.Duration
	CommandTime time.Duration

	Strategies []*StrategyStats
	Files      []FileStats
}

func newStats(set *filestate.Set, names []string) *Stats {
	s := &Stats{
		InitialNonBlank: set.NonBlankCount(),
		FinalNonBlank:   set.NonBlankCount(),
		TotalLines:      set.TotalLines(),
		StartedAt:       time.Now(),
	}
	for _, n := range names {
		s.Strategies = append(s.Strategies, &StrategyStats{Name: n})
	}
	for _, f := range set.Files() {
		s.Files = append(s.Files, FileStats{
			Path:            f.Path(),
			Lines:           f.LineCount(),
			InitialNonBlank: f.NonBlankCount(),
			FinalNonBlank:   f.NonBlankCount(),
		})
	}
	return s
}

func (s *Stats) strategy(name string) *StrategyStats {
	for _, st := range s.Strategies {
		if st.Name == name {
			return st
		}
	}
	st := &StrategyStats{Name: name}
	s.Strategies = append(s.Strategies, st)
	return st
}

// finish folds the final file state into the statistics.
func (s *Stats) finish(set *filestate.Set) {
	s.FinalNonBlank = set.NonBlankCount()
	s.Elapsed = time.Since(s.StartedAt)
	for i, f := range set.Files() {
		if i < len(s.Files) {
			s.Files[i].FinalNonBlank = f.NonBlankCount()
		}
	}
}

// Removed is the number of lines blanked during the run.
func (s *Stats) Removed() int {
	return s.InitialNonBlank - s.FinalNonBlank
}

// ReductionPercent is the share of initially non-blank lines that were blanked.
func (s *Stats) ReductionPercent() float64 {
	if s.InitialNonBlank == 0 {
		return 0
	}
	return float64(s.Removed()) * 100 / float64(s.InitialNonBlank)
}
