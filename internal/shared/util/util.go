package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// PathMatcher decides whether a scanned path is excluded. A pattern with a
// slash is matched against the whole slash-separated path; a bare pattern
// such as "*Test.java" or "target" only sees the last element.
type PathMatcher struct {
	byName []glob.Glob
	byPath []glob.Glob
}

func NewPathMatcher(patterns []string) (*PathMatcher, error) {
	m := &PathMatcher{}
	for _, raw := range patterns {
		pattern := toSlash(raw)
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "/") {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, err
			}
			m.byPath = append(m.byPath, g)
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		m.byName = append(m.byName, g)
	}
	return m, nil
}

// Match is false for a nil matcher.
func (m *PathMatcher) Match(p string) bool {
	if m == nil {
		return false
	}
	slashed := toSlash(p)
	name := path.Base(slashed)
	for _, g := range m.byName {
		if g.Match(name) {
			return true
		}
	}
	for _, g := range m.byPath {
		if g.Match(slashed) {
			return true
		}
	}
	return false
}

func toSlash(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, `\`, "/"))
	if s == "" {
		return ""
	}
	s = path.Clean(s)
	if s == "." {
		return ""
	}
	return strings.TrimPrefix(s, "./")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs writes data to name, creating missing parent directories.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}
