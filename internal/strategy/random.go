package strategy

import (
	"math/rand/v2"

	"chompie/internal/filestate"
)

// Stream constants keep the two random strategies on independent sequences
// for the same seed.
const (
	streamLines  = 0x6c696e6573
	streamRanges = 0x72616e676573
)

// RandomLines offers single non-blank lines drawn uniformly over all files,
// up to a fixed number of candidates per round.
type RandomLines struct {
	budget int
	rng    *rand.Rand
}

// NewRandomLines returns a random-lines strategy. The generator state persists
// across rounds so later rounds draw fresh positions.
func NewRandomLines(budget int, seed uint64) *RandomLines {
	return &RandomLines{budget: budget, rng: rand.New(rand.NewPCG(seed, streamLines))}
}

// Name implements Strategy.
func (*RandomLines) Name() string { return NameRandomLines }

// Generate implements Strategy.
func (s *RandomLines) Generate(files []*filestate.File) Generator {
	return &randomLinesGen{files: files, rng: s.rng, remaining: s.budget, budget: s.budget}
}

type randomLinesGen struct {
	files     []*filestate.File
	rng       *rand.Rand
	remaining int
	budget    int
}

func (g *randomLinesGen) Next() (Candidate, bool) {
	if g.remaining <= 0 {
		return Candidate{}, false
	}
	total := 0
	for _, f := range g.files {
		total += f.NonBlankCount()
	}
	if total == 0 {
		return Candidate{}, false
	}
	g.remaining--

	r := g.rng.IntN(total)
	for _, f := range g.files {
		c := f.NonBlankCount()
		if r < c {
			return Candidate{File: f, Positions: []int{f.NonBlank()[r]}}, true
		}
		r -= c
	}
	return Candidate{}, false
}

func (g *randomLinesGen) Report(Outcome) {}

func (g *randomLinesGen) Total() int { return g.budget }

// RandomRanges offers contiguous runs of non-blank lines: a file chosen
// uniformly among files with content, a length of 1-25% of that file's
// non-blank lines (at least 1), and a uniform start.
type RandomRanges struct {
	budget int
	rng    *rand.Rand
}

// NewRandomRanges returns a random-ranges strategy.
func NewRandomRanges(budget int, seed uint64) *RandomRanges {
	return &RandomRanges{budget: budget, rng: rand.New(rand.NewPCG(seed, streamRanges))}
}

// Name implements Strategy.
func (*RandomRanges) Name() string { return NameRandomRanges }

// Generate implements Strategy.
func (s *RandomRanges) Generate(files []*filestate.File) Generator {
	return &randomRangesGen{files: files, rng: s.rng, remaining: s.budget, budget: s.budget}
}

type randomRangesGen struct {
	files     []*filestate.File
	rng       *rand.Rand
	remaining int
	budget    int
}

func (g *randomRangesGen) Next() (Candidate, bool) {
	if g.remaining <= 0 {
		return Candidate{}, false
	}
	var eligible []*filestate.File
	for _, f := range g.files {
		if f.NonBlankCount() > 0 {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		return Candidate{}, false
	}
	g.remaining--

	f := eligible[g.rng.IntN(len(eligible))]
	live := f.NonBlank()
	pct := 1 + g.rng.IntN(25)
	length := max(1, len(live)*pct/100)
	start := g.rng.IntN(len(live) - length + 1)

	positions := make([]int, length)
	copy(positions, live[start:start+length])
	return Candidate{File: f, Positions: positions}, true
}

func (g *randomRangesGen) Report(Outcome) {}

func (g *randomRangesGen) Total() int { return g.budget }
