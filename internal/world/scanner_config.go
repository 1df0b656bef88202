package world

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// ScannerConfig controls which files discovery tracks and how fast it loads them.
type ScannerConfig struct {
	// MaxConcurrency limits concurrent file loads.
	MaxConcurrency int
	// IgnorePatterns skips matching paths/dirs (relative to the root).
	// Supports simple names (e.g., "node_modules") and glob patterns (e.g., "vendor/*").
	IgnorePatterns []string
	// Extensions is the allowlist, without the leading dot. Empty allows all.
	Extensions []string
	// IncludeHidden tracks dot-files and descends into dot-directories.
	IncludeHidden bool
	// MaxFileBytes skips larger files. 0 means no limit.
	MaxFileBytes int64
}

// DefaultScannerConfig returns the discovery defaults.
func DefaultScannerConfig() ScannerConfig {
	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 4 {
		workers = 4
	}
	if env := os.Getenv("CHOMPIE_SCAN_WORKERS"); env != "" {
		if v, err := strconv.Atoi(env); err == nil && v > 0 {
			workers = v
		}
	}

	return ScannerConfig{
		MaxConcurrency: workers,
		IgnorePatterns: []string{
			".git",
			"target",
			"node_modules",
			"vendor",
			"dist",
			"build",
			"__pycache__",
			".venv",
			"venv",
			".idea",
			".vscode",
		},
		Extensions: []string{
			"rs", "py", "js", "ts", "java", "c", "cpp", "h", "rb", "go",
			"jsx", "tsx", "hpp", "cc", "cs", "kt", "sh",
		},
		MaxFileBytes: 8 << 20,
	}
}

func normalizePattern(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	p = strings.TrimSuffix(p, "\\")
	return filepath.ToSlash(p)
}

// isIgnoredRel reports whether a path relative to the scan root should be ignored.
func isIgnoredRel(rel, name string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, raw := range patterns {
		p := normalizePattern(raw)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[]") {
			if ok, _ := path.Match(p, rel); ok {
				return true
			}
			if ok, _ := path.Match(p, name); ok {
				return true
			}
			// "vendor/*" also covers everything nested under vendor.
			if prefix, found := strings.CutSuffix(p, "/*"); found && strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if name == p || rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// hasExtension reports whether name carries one of the allowed extensions.
func (c ScannerConfig) hasExtension(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.Extensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
