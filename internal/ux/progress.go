package ux

import (
	"fmt"
	"io"
	"strings"
	"time"

	"chompie/internal/chomp"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// Mode selects how progress is shown.
type Mode int

const (
	ModeOff Mode = iota
	ModePlain
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModePlain:
		return "plain"
	default:
		return "off"
	}
}

const (
	defaultPlainEvery = 25
	redrawInterval    = 50 * time.Millisecond
	clearLine         = "\r\x1b[2K"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseMode maps a ui.progress setting to a Mode. "auto" and "" choose live
// output on a terminal and plain lines otherwise.
func ParseMode(setting string, out io.Writer) Mode {
	switch setting {
	case "live":
		return ModeLive
	case "plain":
		return ModePlain
	case "off":
		return ModeOff
	default:
		if IsTerminal(out) {
			return ModeLive
		}
		return ModePlain
	}
}

// Reporter prints engine progress. Live mode redraws a single status line;
// plain mode prints a line every few evaluations and at round boundaries.
type Reporter struct {
	out    io.Writer
	mode   Mode
	styles Styles
	bar    progress.Model
	every  int

	round    int
	strategy string
	total    int
	done     int
	evals    int
	last     chomp.Update
	lastDraw time.Time
	drawn    bool
}

var _ chomp.Progress = (*Reporter)(nil)

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, mode Mode, styles Styles) *Reporter {
	return &Reporter{
		out:    out,
		mode:   mode,
		styles: styles,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
		every:  defaultPlainEvery,
	}
}

// RunStarted implements chomp.Progress.
func (r *Reporter) RunStarted(stats *chomp.Stats) {
	if r.mode == ModeOff {
		return
	}
	r.last.NonBlank = stats.InitialNonBlank
	fmt.Fprintf(r.out, "%s %d files, %d non-blank of %d lines\n",
		r.styles.Title.Render("chomping"), len(stats.Files), stats.InitialNonBlank, stats.TotalLines)
}

// StrategyStarted implements chomp.Progress.
func (r *Reporter) StrategyStarted(round int, name string, total int) {
	r.round, r.strategy, r.total, r.done = round, name, total, 0
	switch r.mode {
	case ModeLive:
		r.draw(true)
	case ModePlain:
		if total > 0 {
			fmt.Fprintf(r.out, "round %d: %s (%d candidates)\n", round, name, total)
		} else {
			fmt.Fprintf(r.out, "round %d: %s\n", round, name)
		}
	}
}

// Evaluated implements chomp.Progress.
func (r *Reporter) Evaluated(u chomp.Update) {
	r.done++
	r.evals++
	r.last = u
	switch r.mode {
	case ModeLive:
		r.draw(r.total > 0 && r.done >= r.total)
	case ModePlain:
		if r.every > 0 && r.evals%r.every == 0 {
			fmt.Fprintf(r.out, "  %s\n", r.counters())
		}
	}
}

// RoundFinished implements chomp.Progress.
func (r *Reporter) RoundFinished(s chomp.RoundSummary) {
	if r.mode == ModeOff {
		return
	}
	r.clear()
	status := r.styles.Success.Render(fmt.Sprintf("%d commits", s.Commits))
	if s.Commits == 0 {
		status = r.styles.Muted.Render("no commits, fixpoint")
	}
	fmt.Fprintf(r.out, "round %d: %d attempts, %d skipped, %s, %d non-blank lines left (%s)\n",
		s.Round, s.Attempts, s.Skipped, status, s.NonBlank, s.Duration.Round(time.Millisecond))
}

// RunFinished implements chomp.Progress.
func (r *Reporter) RunFinished(*chomp.Stats) {
	r.clear()
}

func (r *Reporter) counters() string {
	return fmt.Sprintf("attempts %d  commits %d  skipped %d  lines %d",
		r.last.Attempts, r.last.Commits, r.last.Skipped, r.last.NonBlank)
}

func (r *Reporter) statusLine() string {
	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render(fmt.Sprintf("round %d", r.round)))
	sb.WriteString(" ")
	sb.WriteString(r.strategy)
	sb.WriteString(" ")
	if r.total > 0 {
		sb.WriteString(r.bar.ViewAs(min(float64(r.done)/float64(r.total), 1)))
		sb.WriteString(" ")
	}
	sb.WriteString(r.styles.Muted.Render(r.counters()))
	return sb.String()
}

func (r *Reporter) draw(force bool) {
	if !force && time.Since(r.lastDraw) < redrawInterval {
		return
	}
	r.lastDraw = time.Now()
	r.drawn = true
	fmt.Fprint(r.out, clearLine+r.statusLine())
}

func (r *Reporter) clear() {
	if r.mode == ModeLive && r.drawn {
		fmt.Fprint(r.out, clearLine)
		r.drawn = false
	}
}
