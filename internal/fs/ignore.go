package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-tree file listing extra ignore patterns.
const IgnoreFileName = ".goupiignore"

// defaultIgnorePatterns are always applied regardless of config or .goupiignore.
var defaultIgnorePatterns = []string{IgnoreFileName}

type patternKind int

const (
	matchBasename patternKind = iota // "*.psd": any file with a matching name
	matchPath                        // "img/raw/*.png": the relative path
	matchDir                         // "drafts/": everything below a matching directory
)

type ignorePattern struct {
	pattern string
	kind    patternKind
}

// IgnoreMatcher decides which files of a mirrored or published tree are
// left out. Paths are relative to the tree root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns. Blank lines and '#' comments are
// dropped. A trailing '/' makes a directory pattern, any other '/' makes a
// path pattern, and everything else matches the basename.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		p := ignorePattern{pattern: raw, kind: matchBasename}
		switch {
		case strings.HasSuffix(raw, "/"):
			p.pattern = strings.TrimSuffix(raw, "/")
			p.kind = matchDir
		case strings.Contains(raw, "/"):
			p.kind = matchPath
		}
		patterns = append(patterns, p)
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether relativePath should be skipped.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 || relativePath == "" {
		return false
	}

	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, p := range m.patterns {
		switch p.kind {
		case matchBasename:
			if globMatch(p.pattern, basename) {
				return true
			}
		case matchPath:
			if globMatch(p.pattern, normalized) {
				return true
			}
		case matchDir:
			if matchParentDir(p.pattern, normalized) {
				return true
			}
		}
	}
	return false
}

// matchParentDir reports whether any directory prefix of path matches pattern.
// Single-segment patterns match a directory of that name at any depth.
func matchParentDir(pattern, path string) bool {
	segments := strings.Split(path, "/")
	dirs := segments[:len(segments)-1]

	if !strings.Contains(pattern, "/") {
		for _, d := range dirs {
			if globMatch(pattern, d) {
				return true
			}
		}
		return false
	}

	for i := range dirs {
		if globMatch(pattern, strings.Join(dirs[:i+1], "/")) {
			return true
		}
	}
	return false
}

// globMatch wraps filepath.Match and treats a malformed pattern as no match.
func globMatch(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// ParseIgnoreFile reads an ignore file and returns its raw lines.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
