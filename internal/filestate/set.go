package filestate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Set is the ordered collection of tracked files.
type Set struct {
	files  []*File
	byPath map[string]*File
}

// NewSet builds a Set ordered by path. Duplicate paths keep the first entry.
func NewSet(files ...*File) *Set {
	s := &Set{byPath: make(map[string]*File, len(files))}
	for _, f := range files {
		if _, dup := s.byPath[f.path]; dup {
			continue
		}
		s.byPath[f.path] = f
		s.files = append(s.files, f)
	}
	sort.Slice(s.files, func(i, j int) bool { return s.files[i].path < s.files[j].path })
	return s
}

// Files returns the tracked files in path order.
func (s *Set) Files() []*File { return s.files }

// Len returns the number of tracked files.
func (s *Set) Len() int { return len(s.files) }

// Lookup finds a file by the path it was discovered under.
func (s *Set) Lookup(path string) (*File, bool) {
	f, ok := s.byPath[path]
	return f, ok
}

// TotalLines sums LineCount over all files.
func (s *Set) TotalLines() int {
	n := 0
	for _, f := range s.files {
		n += f.LineCount()
	}
	return n
}

// NonBlankCount sums NonBlankCount over all files.
func (s *Set) NonBlankCount() int {
	n := 0
	for _, f := range s.files {
		n += f.NonBlankCount()
	}
	return n
}

// StateKey identifies the current blank/non-blank configuration of the
// whole tree. Two states with equal keys have identical on-disk content.
func (s *Set) StateKey() string {
	h := sha256.New()
	buf := make([]byte, 0, 1024)
	for _, f := range s.files {
		buf = buf[:0]
		buf = append(buf, f.path...)
		buf = append(buf, 0)
		buf = f.liveMask(buf)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
