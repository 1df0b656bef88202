package chomp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chompie/internal/filestate"
	"chompie/internal/strategy"
)

type runnerFunc func(ctx context.Context) (Result, error)

func (f runnerFunc) Run(ctx context.Context) (Result, error) { return f(ctx) }

// writeFile creates a tracked file on disk and loads it.
func writeFile(t *testing.T, dir, name, content string) *filestate.File {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := filestate.Load(path)
	require.NoError(t, err)
	return f
}

func numbered(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line%d\n", i)
	}
	return sb.String()
}

// diskLines reads the file from disk as the verification command would.
func diskLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// spy records every notification.
type spy struct {
	NopProgress
	updates []Update
	rounds  []RoundSummary
	after   func(Update)
}

func (s *spy) Evaluated(u Update) {
	s.updates = append(s.updates, u)
	if s.after != nil {
		s.after(u)
	}
}

func (s *spy) RoundFinished(r RoundSummary) { s.rounds = append(s.rounds, r) }

func TestEngine_EndToEndPrintScenario(t *testing.T) {
	for _, memoize := range []bool{true, false} {
		t.Run(fmt.Sprintf("memoize=%v", memoize), func(t *testing.T) {
			dir := t.TempDir()
			f := writeFile(t, dir, "main.py", "print(1)\n\n")

			// Prints "1" only while line 1 is intact.
			runner := runnerFunc(func(context.Context) (Result, error) {
				if diskLines(t, f.Path())[0] == "print(1)" {
					return Result{ExitCode: 0, Stdout: "1"}, nil
				}
				return Result{ExitCode: 0, Stdout: ""}, nil
			})

			p := &spy{}
			engine := NewEngine(filestate.NewSet(f), runner, Options{
				Strategies: []strategy.Strategy{strategy.NewRandomLines(5, 1)},
				Memoize:    memoize,
				Progress:   p,
			})
			stats, err := engine.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 0, stats.Commits)
			assert.Equal(t, 1, stats.Rounds)
			assert.True(t, stats.Fixpoint)
			assert.Equal(t, 1, stats.InitialNonBlank)
			assert.Equal(t, 1, stats.FinalNonBlank)
			assert.Equal(t, 0.0, stats.ReductionPercent())
			if memoize {
				assert.Equal(t, 1, stats.Attempts)
				assert.Equal(t, 4, stats.Skipped)
			} else {
				assert.Equal(t, 5, stats.Attempts)
				assert.Equal(t, 0, stats.Skipped)
			}
			assert.Len(t, p.updates, 5)
			require.Len(t, p.rounds, 1)
			assert.Equal(t, 0, p.rounds[0].Commits)

			data, err := os.ReadFile(f.Path())
			require.NoError(t, err)
			assert.Equal(t, "print(1)\n\n", string(data))
		})
	}
}

// tailBlockRunner accepts only states where lines 1-4 are intact and lines
// 5-8 are either all present or all blank.
func tailBlockRunner(t *testing.T, path string) Runner {
	return runnerFunc(func(context.Context) (Result, error) {
		lines := diskLines(t, path)
		for i := 0; i < 4; i++ {
			if lines[i] == "" {
				return Result{ExitCode: 1}, nil
			}
		}
		blank := 0
		for i := 4; i < 8; i++ {
			if lines[i] == "" {
				blank++
			}
		}
		if blank != 0 && blank != 4 {
			return Result{ExitCode: 1}, nil
		}
		return Result{Stdout: "ok"}, nil
	})
}

func TestEngine_BisectionFindsTailBlock(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(8))

	p := &spy{}
	engine := NewEngine(filestate.NewSet(f), tailBlockRunner(t, f.Path()), Options{
		Strategies: []strategy.Strategy{strategy.NewBisection()},
		Progress:   p,
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Commits)
	assert.Equal(t, 2, stats.Rounds)
	assert.Equal(t, 8+6, stats.Attempts)
	assert.Equal(t, []int{1, 2, 3, 4}, f.NonBlank())

	require.GreaterOrEqual(t, len(p.updates), 2)
	assert.Equal(t, []int{5, 6, 7, 8}, p.updates[1].Candidate.Positions)
	assert.Equal(t, strategy.Committed, p.updates[1].Outcome)
	for _, u := range p.updates[2:] {
		assert.NotEqual(t, strategy.Committed, u.Outcome, "no commits after the block")
	}
}

func TestEngine_MemoSkipsRepeatedStates(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(8))

	engine := NewEngine(filestate.NewSet(f), tailBlockRunner(t, f.Path()), Options{
		Strategies: []strategy.Strategy{strategy.NewBisection()},
		Memoize:    true,
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Attempts)
	assert.Equal(t, 6, stats.Skipped, "round two recreates round one's failing states")
	assert.Equal(t, 2, stats.Rounds)
}

func TestEngine_Invariants(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", numbered(30))
	b := writeFile(t, dir, "b.go", "x\n\n  \ny\r\nz\n")
	set := filestate.NewSet(a, b)
	rng := rand.New(rand.NewPCG(1, 2))

	before := map[string]string{a.Path(): string(a.Render()), b.Path(): string(b.Render())}
	lineCounts := map[string]int{a.Path(): a.LineCount(), b.Path(): b.LineCount()}
	lastNonBlank := set.NonBlankCount()

	p := &spy{}
	p.after = func(u Update) {
		f := u.Candidate.File
		for _, g := range set.Files() {
			assert.Equal(t, lineCounts[g.Path()], g.LineCount(), "line count is constant")
			disk, err := os.ReadFile(g.Path())
			require.NoError(t, err)
			assert.Equal(t, string(g.Render()), string(disk), "disk matches memory")
		}
		switch u.Outcome {
		case strategy.Committed:
			assert.Less(t, u.NonBlank, lastNonBlank, "commit strictly shrinks")
		default:
			assert.Equal(t, before[f.Path()], string(f.Render()), "revert is byte-exact")
			assert.Equal(t, lastNonBlank, u.NonBlank)
		}
		assert.LessOrEqual(t, u.NonBlank, lastNonBlank)
		lastNonBlank = u.NonBlank
		before[f.Path()] = string(f.Render())
	}

	runner := runnerFunc(func(context.Context) (Result, error) {
		if rng.IntN(3) == 0 {
			return Result{Stdout: "same"}, nil
		}
		return Result{Stdout: "different"}, nil
	})
	baselineTaken := false
	wrapped := runnerFunc(func(ctx context.Context) (Result, error) {
		if !baselineTaken {
			baselineTaken = true
			return Result{Stdout: "same"}, nil
		}
		return runner(ctx)
	})

	strategies, err := strategy.Parse(strategy.Names(), strategy.Options{Attempts: 20, WindowSize: 2, MaxWindow: 2, Seed: 9})
	require.NoError(t, err)

	engine := NewEngine(set, wrapped, Options{Strategies: strategies, Memoize: true, Progress: p})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Fixpoint)
	assert.Equal(t, stats.Attempts, stats.Commits+countOutcome(p.updates, strategy.Reverted))
	assert.Equal(t, stats.InitialNonBlank-stats.FinalNonBlank, stats.Removed())
}

func countOutcome(updates []Update, o strategy.Outcome) int {
	n := 0
	for _, u := range updates {
		if u.Outcome == o {
			n++
		}
	}
	return n
}

func TestEngine_EverythingRemovable(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(10))

	runner := runnerFunc(func(context.Context) (Result, error) { return Result{Stdout: "constant"}, nil })
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewBisection(), strategy.NewSlidingWindow(1)},
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FinalNonBlank)
	assert.Equal(t, 100.0, stats.ReductionPercent())
	assert.Equal(t, 2, stats.Rounds, "second round commits nothing")
	assert.Equal(t, 10, f.LineCount())

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("\n", 10), string(data))
}

func TestEngine_BaselineFailureMutatesNothing(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(3))

	runner := runnerFunc(func(context.Context) (Result, error) {
		return Result{}, fmt.Errorf("%w: sh: not found", ErrLaunch)
	})
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewBisection()},
	})
	stats, err := engine.Run(context.Background())
	assert.ErrorIs(t, err, ErrBaseline)
	assert.Equal(t, 0, stats.Attempts)

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, numbered(3), string(data))
}

func TestEngine_MidRunLaunchFailureIsFailedAttempt(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(4))

	calls := 0
	runner := runnerFunc(func(context.Context) (Result, error) {
		calls++
		if calls == 1 {
			return Result{Stdout: "ok"}, nil
		}
		return Result{}, ErrLaunch
	})
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
		Memoize:    true,
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Attempts)
	assert.Equal(t, 0, stats.Commits)
	assert.Equal(t, 0, stats.Skipped, "undetermined runs are not memoized")
	assert.Equal(t, numbered(4), string(f.Render()))
}

func TestEngine_PersistFailureIsFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.Mkdir(dir, 0755))
	f := writeFile(t, dir, "a.go", numbered(4))

	calls := 0
	runner := runnerFunc(func(context.Context) (Result, error) {
		calls++
		if calls == 1 {
			return Result{Stdout: "ok"}, nil
		}
		// The tree disappears underneath us; the revert cannot be written.
		require.NoError(t, os.RemoveAll(dir))
		return Result{Stdout: "changed"}, nil
	})
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
	})
	stats, err := engine.Run(context.Background())
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 1, stats.Attempts)
}

type countingGuard struct {
	calls  int
	failAt int
}

func (g *countingGuard) Check() error {
	g.calls++
	if g.calls == g.failAt {
		return errors.New("tracked file modified")
	}
	return nil
}

func TestEngine_GuardStopsRun(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(6))

	runner := runnerFunc(func(context.Context) (Result, error) { return Result{Stdout: "x"}, nil })
	guard := &countingGuard{failAt: 2}
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
		Guard:      guard,
	})
	stats, err := engine.Run(context.Background())
	assert.EqualError(t, err, "tracked file modified")
	assert.Equal(t, 2, stats.Attempts)
}

func TestEngine_CancelStopsAfterCurrentEvaluation(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(6))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	runner := runnerFunc(func(context.Context) (Result, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return Result{Stdout: "mismatch unless baseline", ExitCode: min(calls-1, 1)}, nil
	})
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
	})
	stats, err := engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, numbered(6), string(f.Render()), "the interrupted attempt was reverted")
}

func TestEngine_MaxRounds(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", numbered(4))

	runner := runnerFunc(func(context.Context) (Result, error) { return Result{}, nil })
	engine := NewEngine(filestate.NewSet(f), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
		MaxRounds:  1,
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rounds)
	assert.True(t, stats.RoundCapped)
	assert.False(t, stats.Fixpoint)
}

func TestEngine_NoStrategies(t *testing.T) {
	f := filestate.New("a.go", []byte("x\n"), 0644)
	_, err := NewEngine(filestate.NewSet(f), runnerFunc(nil), Options{}).Run(context.Background())
	assert.Error(t, err)
}

func TestEvaluator_StaleCandidateIsSkipped(t *testing.T) {
	f := filestate.New("a.go", []byte("a\n\nc\n"), 0644)
	set := filestate.NewSet(f)
	stats := newStats(set, []string{"manual"})
	ev := &evaluator{
		set:      set,
		runner:   runnerFunc(func(context.Context) (Result, error) { t.Fatal("must not run"); return Result{}, nil }),
		oracle:   NewOracle(Result{}),
		stats:    stats,
		progress: NopProgress{},
	}

	outcome, err := ev.evaluate(context.Background(), 1, "manual", strategy.Candidate{File: f, Positions: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, strategy.Skipped, outcome)
	assert.Equal(t, 0, stats.Attempts)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.strategy("manual").Skipped)
}

func TestStats_PerFileAndStrategy(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", numbered(4))
	b := writeFile(t, dir, "b.go", numbered(2))

	// Anything but a.go line 1 may go.
	runner := runnerFunc(func(context.Context) (Result, error) {
		return Result{Stdout: diskLines(t, a.Path())[0]}, nil
	})
	engine := NewEngine(filestate.NewSet(a, b), runner, Options{
		Strategies: []strategy.Strategy{strategy.NewSlidingWindow(1)},
	})
	stats, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, stats.Files, 2)
	assert.Equal(t, FileStats{Path: a.Path(), Lines: 4, InitialNonBlank: 4, FinalNonBlank: 1}, stats.Files[0])
	assert.Equal(t, FileStats{Path: b.Path(), Lines: 2, InitialNonBlank: 2, FinalNonBlank: 0}, stats.Files[1])

	require.Len(t, stats.Strategies, 1)
	assert.Equal(t, strategy.NameSlidingWindow, stats.Strategies[0].Name)
	assert.Equal(t, 5, stats.Strategies[0].Removed)
	assert.Equal(t, 5, stats.Strategies[0].Commits)
}
