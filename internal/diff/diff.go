// Package diff computes line diffs with the sergi/go-diff library. It is used
// to explain why a candidate's output did not match the baseline.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line represents a single line in the diff. OldNum/NewNum are 1-based and
// zero when the line does not exist on that side.
type Line struct {
	OldNum  int
	NewNum  int
	Content string
	Type    LineType
}

// Diff is the line-level comparison of two texts.
type Diff struct {
	Label   string
	Lines   []Line
	Added   int
	Removed int
}

// Changed reports whether the texts differ.
func (d *Diff) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

// Engine wraps a configured diffmatchpatch instance.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a new diff engine with optimal settings
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	return &Engine{dmp: dmp}
}

// DefaultEngine is a singleton engine for general use
var DefaultEngine = NewEngine()

// Compute diffs old against new line by line.
func (e *Engine) Compute(label, oldText, newText string) *Diff {
	d := &Diff{Label: label}

	// Line-level reduction avoids newline boundary artifacts.
	a, b, lineArray := e.dmp.DiffLinesToChars(oldText, newText)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	oldLine, newLine := 0, 0
	for _, chunk := range diffs {
		lines := strings.Split(chunk.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			switch chunk.Type {
			case diffmatchpatch.DiffEqual:
				oldLine++
				newLine++
				d.Lines = append(d.Lines, Line{OldNum: oldLine, NewNum: newLine, Content: line, Type: LineContext})
			case diffmatchpatch.DiffDelete:
				oldLine++
				d.Removed++
				d.Lines = append(d.Lines, Line{OldNum: oldLine, Content: line, Type: LineRemoved})
			case diffmatchpatch.DiffInsert:
				newLine++
				d.Added++
				d.Lines = append(d.Lines, Line{NewNum: newLine, Content: line, Type: LineAdded})
			}
		}
	}
	return d
}

// Render formats the diff in a unified-like style: changed lines plus up to
// context unchanged lines around each change, at most maxLines body lines.
func (d *Diff) Render(context, maxLines int) string {
	if !d.Changed() {
		return ""
	}

	keep := make([]bool, len(d.Lines))
	for i, l := range d.Lines {
		if l.Type == LineContext {
			continue
		}
		for j := max(0, i-context); j <= min(len(d.Lines)-1, i+context); j++ {
			keep[j] = true
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- baseline %s\n+++ candidate %s\n", d.Label, d.Label)

	written, remaining := 0, 0
	gap := false
	for i, l := range d.Lines {
		if !keep[i] {
			gap = true
			continue
		}
		if maxLines > 0 && written >= maxLines {
			remaining++
			continue
		}
		if gap && written > 0 {
			sb.WriteString("...\n")
		}
		gap = false
		switch l.Type {
		case LineAdded:
			sb.WriteString("+")
		case LineRemoved:
			sb.WriteString("-")
		default:
			sb.WriteString(" ")
		}
		sb.WriteString(l.Content)
		sb.WriteString("\n")
		written++
	}
	if remaining > 0 {
		fmt.Fprintf(&sb, "... (%d more lines)\n", remaining)
	}
	return sb.String()
}

// Outputs renders a compact diff of one output stream.
func Outputs(label, baseline, candidate string) string {
	return DefaultEngine.Compute(label, baseline, candidate).Render(1, 40)
}
