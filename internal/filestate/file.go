// Package filestate holds the in-memory line image of every tracked file and
// keeps it in step with disk.
//
// Positions are 1-based line numbers. Blanking replaces a line's content with
// the empty string but never removes the line, so positions stay stable for
// the life of a run and the line count never changes.
package filestate

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Saved is the content a position held before it was blanked.
type Saved struct {
	Pos     int
	Content string
}

// File is the mutable line image of one tracked file.
type File struct {
	path string
	mode fs.FileMode

	// lines keep any trailing "\r" so CRLF endings survive a round trip.
	lines           []string
	live            []bool // live[i] is true when line i+1 is non-blank
	liveCount       int
	trailingNewline bool
}

// Load reads path from disk.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return New(path, data, info.Mode().Perm()), nil
}

// New builds a File from raw content.
func New(path string, content []byte, mode fs.FileMode) *File {
	f := &File{path: path, mode: mode}
	if len(content) == 0 {
		return f
	}

	text := string(content)
	if strings.HasSuffix(text, "\n") {
		f.trailingNewline = true
		text = text[:len(text)-1]
	}
	f.lines = strings.Split(text, "\n")
	f.live = make([]bool, len(f.lines))
	for i, line := range f.lines {
		if !isBlank(line) {
			f.live[i] = true
			f.liveCount++
		}
	}
	return f
}

// isBlank reports whether a line has no visible content.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// blankOf returns the blanked form of line, keeping a CR terminator.
func blankOf(line string) string {
	if strings.HasSuffix(line, "\r") {
		return "\r"
	}
	return ""
}

// Path returns the file's path as it was discovered.
func (f *File) Path() string { return f.path }

// LineCount is the total number of lines, blank or not. It never changes.
func (f *File) LineCount() int { return len(f.lines) }

// NonBlankCount is the number of lines with visible content.
func (f *File) NonBlankCount() int { return f.liveCount }

// IsNonBlank reports whether pos holds visible content.
func (f *File) IsNonBlank(pos int) bool {
	return pos >= 1 && pos <= len(f.lines) && f.live[pos-1]
}

// Line returns the current content at pos ("" when out of range).
func (f *File) Line(pos int) string {
	if pos < 1 || pos > len(f.lines) {
		return ""
	}
	return strings.TrimSuffix(f.lines[pos-1], "\r")
}

// NonBlank returns the current non-blank positions in ascending order.
// The slice is a fresh copy.
func (f *File) NonBlank() []int {
	out := make([]int, 0, f.liveCount)
	for i, ok := range f.live {
		if ok {
			out = append(out, i+1)
		}
	}
	return out
}

// Live filters positions down to those that are currently non-blank, sorted
// and de-duplicated.
func (f *File) Live(positions []int) []int {
	seen := make(map[int]bool, len(positions))
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if f.IsNonBlank(p) && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// Blank empties every listed position and returns what each held before.
// Positions that are already blank or out of range are skipped.
func (f *File) Blank(positions []int) []Saved {
	saved := make([]Saved, 0, len(positions))
	for _, p := range f.Live(positions) {
		line := f.lines[p-1]
		saved = append(saved, Saved{Pos: p, Content: line})
		f.lines[p-1] = blankOf(line)
		f.live[p-1] = false
		f.liveCount--
	}
	return saved
}

// Restore puts back content captured by Blank.
func (f *File) Restore(saved []Saved) {
	for _, s := range saved {
		if s.Pos < 1 || s.Pos > len(f.lines) {
			continue
		}
		was := f.live[s.Pos-1]
		f.lines[s.Pos-1] = s.Content
		now := !isBlank(s.Content)
		f.live[s.Pos-1] = now
		switch {
		case now && !was:
			f.liveCount++
		case !now && was:
			f.liveCount--
		}
	}
}

// Render returns the bytes Persist would write.
func (f *File) Render() []byte {
	var buf bytes.Buffer
	for i, line := range f.lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	if f.trailingNewline {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Persist writes the current image to disk, replacing the file atomically.
func (f *File) Persist() error {
	return writeAtomic(f.path, f.Render(), f.mode)
}

// liveMask appends the non-blank bitmap to b, one byte per line.
func (f *File) liveMask(b []byte) []byte {
	for _, ok := range f.live {
		if ok {
			b = append(b, '1')
		} else {
			b = append(b, '0')
		}
	}
	return b
}
