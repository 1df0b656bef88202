package strategy

import (
	"chompie/internal/filestate"
	"chompie/internal/logging"
)

// Bisection is ddmin-style complement removal over each file in turn.
//
// The working set W is the file's live non-blank positions. W is cut into n
// contiguous chunks, starting at n=2, and each chunk is offered. A commit
// recomputes W and restarts at n=2. When every chunk at n fails, n doubles
// (capped at |W|); when n already equals |W|, the file is done.
type Bisection struct{}

// NewBisection returns the bisection strategy.
func NewBisection() *Bisection { return &Bisection{} }

// Name implements Strategy.
func (*Bisection) Name() string { return NameBisection }

// Generate implements Strategy.
func (*Bisection) Generate(files []*filestate.File) Generator {
	return &bisectionGen{files: files}
}

type bisectionGen struct {
	files []*filestate.File
	fi    int

	work  []int // W; nil means recompute from the file
	n     int
	chunk int // index of the next chunk at granularity n
}

func (g *bisectionGen) Next() (Candidate, bool) {
	for g.fi < len(g.files) {
		f := g.files[g.fi]

		if g.work != nil && f.NonBlankCount() != len(g.work) {
			g.work = nil
		}
		if g.work == nil {
			g.work = f.NonBlank()
			g.n = min(2, len(g.work))
			g.chunk = 0
			if len(g.work) == 0 {
				g.nextFile()
				continue
			}
			logging.StrategyDebug("bisection: %s working set %d lines", f.Path(), len(g.work))
		}

		size := ceilDiv(len(g.work), g.n)
		start := g.chunk * size
		if start >= len(g.work) {
			if g.n >= len(g.work) {
				g.nextFile()
				continue
			}
			g.n = min(g.n*2, len(g.work))
			g.chunk = 0
			continue
		}
		end := min(start+size, len(g.work))
		g.chunk++

		positions := make([]int, end-start)
		copy(positions, g.work[start:end])
		return Candidate{File: f, Positions: positions}, true
	}
	return Candidate{}, false
}

func (g *bisectionGen) Report(o Outcome) {
	if o == Committed {
		g.work = nil
	}
}

func (g *bisectionGen) nextFile() {
	g.fi++
	g.work = nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
