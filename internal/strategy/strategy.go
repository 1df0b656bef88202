// Package strategy generates candidates: sets of line positions in one file
// that the evaluator tries to blank together.
//
// Generators are lazy and adaptive. Each Next call reads the live non-blank
// positions of the files, so a commit made for an earlier candidate is seen
// by the next one, and Report feeds the outcome back before Next is called
// again.
package strategy

import (
	"fmt"
	"strings"

	"chompie/internal/filestate"
)

// Candidate is a proposed chomp: positions in one file to blank together.
type Candidate struct {
	File      *filestate.File
	Positions []int
}

// String renders the candidate as path:first-last (n lines).
func (c Candidate) String() string {
	if len(c.Positions) == 0 {
		return c.File.Path() + ":<empty>"
	}
	first, last := c.Positions[0], c.Positions[len(c.Positions)-1]
	if first == last {
		return fmt.Sprintf("%s:%d", c.File.Path(), first)
	}
	return fmt.Sprintf("%s:%d-%d (%d lines)", c.File.Path(), first, last, len(c.Positions))
}

// Outcome is what became of a candidate.
type Outcome int

const (
	// Reverted: the command ran and the result differed from baseline.
	Reverted Outcome = iota
	// Committed: the result matched baseline and the blanking stands.
	Committed
	// Skipped: nothing ran (no live positions left, or a state already known to fail).
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Skipped:
		return "skipped"
	default:
		return "reverted"
	}
}

// Generator yields candidates one at a time. Every Next that returns ok must
// be followed by exactly one Report before the next Next.
type Generator interface {
	Next() (Candidate, bool)
	Report(Outcome)
}

// Sized is implemented by generators that know roughly how many candidates
// they will produce, for progress display.
type Sized interface {
	Total() int
}

// Strategy creates a fresh generator over the tracked files for one round.
type Strategy interface {
	Name() string
	Generate(files []*filestate.File) Generator
}

// Names of the built-in strategies.
const (
	NameBisection     = "bisection"
	NameRandomLines   = "random-lines"
	NameRandomRanges  = "random-ranges"
	NameSlidingWindow = "sliding-window"
	NameUpToN         = "up-to-n"
)

// Names lists the built-in strategy names.
func Names() []string {
	return []string{NameBisection, NameRandomLines, NameRandomRanges, NameSlidingWindow, NameUpToN}
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// IsKnown reports whether name (case-insensitive, "_" or "-") is a built-in strategy.
func IsKnown(name string) bool {
	n := canonical(name)
	for _, known := range Names() {
		if n == known {
			return true
		}
	}
	return false
}

// Options parameterizes the built-in strategies.
type Options struct {
	Attempts   int    // budget for random-lines and random-ranges
	WindowSize int    // w for sliding-window
	MaxWindow  int    // N for up-to-n
	Seed       uint64 // PCG seed for the random strategies
}

// Parse builds strategies from names, in order. The random strategies each
// get their own stream derived from opts.Seed.
func Parse(names []string, opts Options) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch canonical(name) {
		case NameBisection:
			out = append(out, NewBisection())
		case NameRandomLines:
			out = append(out, NewRandomLines(opts.Attempts, opts.Seed))
		case NameRandomRanges:
			out = append(out, NewRandomRanges(opts.Attempts, opts.Seed))
		case NameSlidingWindow:
			out = append(out, NewSlidingWindow(opts.WindowSize))
		case NameUpToN:
			out = append(out, NewUpToN(opts.MaxWindow))
		default:
			return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(Names(), ", "))
		}
	}
	return out, nil
}
