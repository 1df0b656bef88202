// Package world discovers the files a run tracks and watches them while the
// engine works.
package world

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"chompie/internal/filestate"
	"chompie/internal/logging"

	"golang.org/x/sync/errgroup"
)

// SkipReason explains why discovery passed over a file.
type SkipReason string

const (
	SkipTooLarge   SkipReason = "too large"
	SkipNotText    SkipReason = "not UTF-8 text"
	SkipSymlink    SkipReason = "symlink"
	SkipUnreadable SkipReason = "unreadable"
)

// Skipped is a candidate file discovery declined to track.
type Skipped struct {
	Path   string
	Reason SkipReason
}

// ScanResult is the outcome of one discovery pass. Files and Skipped are
// sorted by path.
type ScanResult struct {
	Files          []*filestate.File
	Skipped        []Skipped
	DirectoryCount int
}

// Set returns the tracked files as a filestate.Set.
func (r *ScanResult) Set() *filestate.Set {
	return filestate.NewSet(r.Files...)
}

// Scanner walks a directory tree and loads the files worth chomping.
type Scanner struct {
	config ScannerConfig
}

// NewScanner creates a scanner with cfg.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultScannerConfig().MaxConcurrency
	}
	return &Scanner{config: cfg}
}

// Scan discovers files under root. A root that names a regular file tracks
// exactly that file regardless of extension and hidden filters.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	timer := logging.StartTimer(logging.CategoryFiles, "scan "+root)
	defer timer.StopWithThreshold(2 * time.Second)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	result := &ScanResult{}
	var paths []string
	if info.Mode().IsRegular() {
		paths = []string{root}
	} else {
		paths, err = s.walk(ctx, root, result)
		if err != nil {
			return nil, err
		}
	}

	if err := s.load(ctx, paths, result); err != nil {
		return nil, err
	}

	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].Path < result.Skipped[j].Path })
	logging.Files("scan %s: %d files tracked, %d skipped, %d directories",
		root, len(result.Files), len(result.Skipped), result.DirectoryCount)
	return result, nil
}

func (s *Scanner) walk(ctx context.Context, root string, result *ScanResult) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logging.FilesWarn("walk %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if (!s.config.IncludeHidden && isHidden(name)) || isIgnoredRel(rel, name, s.config.IgnorePatterns) {
				logging.FilesDebug("skipping directory %s", rel)
				return filepath.SkipDir
			}
			result.DirectoryCount++
			return nil
		}

		if !s.config.IncludeHidden && isHidden(name) {
			return nil
		}
		if isIgnoredRel(rel, name, s.config.IgnorePatterns) || !s.config.hasExtension(name) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: SkipSymlink})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// load reads every path in parallel, bounded by MaxConcurrency. Files keep
// the order of paths.
func (s *Scanner) load(ctx context.Context, paths []string, result *ScanResult) error {
	loaded := make([]*filestate.File, len(paths))
	reasons := make([]SkipReason, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.config.MaxConcurrency)
	for i, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			f, reason := s.loadOne(path)
			loaded[i], reasons[i] = f, reason
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, f := range loaded {
		if f != nil {
			result.Files = append(result.Files, f)
			continue
		}
		result.Skipped = append(result.Skipped, Skipped{Path: paths[i], Reason: reasons[i]})
	}
	return nil
}

func (s *Scanner) loadOne(path string) (*filestate.File, SkipReason) {
	info, err := os.Stat(path)
	if err != nil {
		logging.FilesWarn("stat %s: %v", path, err)
		return nil, SkipUnreadable
	}
	if s.config.MaxFileBytes > 0 && info.Size() > s.config.MaxFileBytes {
		logging.FilesDebug("skipping %s: %d bytes exceeds %d", path, info.Size(), s.config.MaxFileBytes)
		return nil, SkipTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.FilesWarn("read %s: %v", path, err)
		return nil, SkipUnreadable
	}
	if !isText(data) {
		logging.FilesDebug("skipping %s: not UTF-8 text", path)
		return nil, SkipNotText
	}
	return filestate.New(path, data, info.Mode().Perm()), ""
}

// isText accepts valid UTF-8 without NUL bytes.
func isText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}
