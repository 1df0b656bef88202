package strategy

import (
	"chompie/internal/filestate"
)

// SlidingWindow sweeps every window of w consecutive non-blank positions in
// each file once. After a commit the window stays at the same index, which
// now covers the lines that followed the removed ones. A file with fewer
// than w non-blank lines is offered whole, once.
type SlidingWindow struct {
	w int
}

// NewSlidingWindow returns a sliding-window strategy; w < 1 is treated as 1.
func NewSlidingWindow(w int) *SlidingWindow {
	return &SlidingWindow{w: max(1, w)}
}

// Name implements Strategy.
func (*SlidingWindow) Name() string { return NameSlidingWindow }

// Generate implements Strategy.
func (s *SlidingWindow) Generate(files []*filestate.File) Generator {
	return newWindowGen(files, s.w)
}

type windowGen struct {
	files []*filestate.File
	w     int
	fi    int
	idx   int
	total int
}

func newWindowGen(files []*filestate.File, w int) *windowGen {
	g := &windowGen{files: files, w: w}
	for _, f := range files {
		switch c := f.NonBlankCount(); {
		case c == 0:
		case c < w:
			g.total++
		default:
			g.total += c - w + 1
		}
	}
	return g
}

func (g *windowGen) Next() (Candidate, bool) {
	for g.fi < len(g.files) {
		f := g.files[g.fi]
		live := f.NonBlank()

		if len(live) > 0 && len(live) < g.w {
			if g.idx == 0 {
				return Candidate{File: f, Positions: live}, true
			}
		} else if g.idx+g.w <= len(live) {
			positions := make([]int, g.w)
			copy(positions, live[g.idx:g.idx+g.w])
			return Candidate{File: f, Positions: positions}, true
		}

		g.fi++
		g.idx = 0
	}
	return Candidate{}, false
}

func (g *windowGen) Report(o Outcome) {
	if o != Committed {
		g.idx++
	}
}

func (g *windowGen) Total() int { return g.total }

// UpToN runs sliding-window sweeps for w = 1, 2, ..., N in sequence.
type UpToN struct {
	n int
}

// NewUpToN returns an up-to-n strategy; n < 1 is treated as 1.
func NewUpToN(n int) *UpToN {
	return &UpToN{n: max(1, n)}
}

// Name implements Strategy.
func (*UpToN) Name() string { return NameUpToN }

// Generate implements Strategy.
func (s *UpToN) Generate(files []*filestate.File) Generator {
	return &upToNGen{files: files, max: s.n, w: 1, cur: newWindowGen(files, 1)}
}

type upToNGen struct {
	files []*filestate.File
	max   int
	w     int
	cur   *windowGen
}

func (g *upToNGen) Next() (Candidate, bool) {
	for {
		if c, ok := g.cur.Next(); ok {
			return c, true
		}
		if g.w >= g.max {
			return Candidate{}, false
		}
		g.w++
		g.cur = newWindowGen(g.files, g.w)
	}
}

func (g *upToNGen) Report(o Outcome) { g.cur.Report(o) }
