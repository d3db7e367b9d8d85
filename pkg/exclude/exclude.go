// Package exclude matches repository-relative paths against user-supplied
// glob patterns.
//
// Patterns use doublestar syntax with two conveniences: a pattern without a
// slash matches a path segment anywhere in the tree, and a leading "*/" or
// trailing "/*" stands for any number of directories, so "*/test/*"
// excludes every file below any directory named test.
package exclude

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern is returned for patterns doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// dirSentinel stands in for "any entry" when testing whether a whole
// directory is excluded.
const dirSentinel = "\x00"

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	patterns []string
}

// New compiles patterns. Blank patterns are ignored.
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{}

	for _, raw := range patterns {
		normalized := normalize(raw)
		if len(normalized) == 0 {
			continue
		}

		for _, p := range normalized {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, raw)
			}
		}

		m.patterns = append(m.patterns, normalized...)
	}

	return m, nil
}

// Patterns returns the normalized patterns.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether the slash-separated relative path is excluded.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}

	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")

	for _, p := range m.patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}

	return false
}

// MatchDir reports whether every path below dir is excluded, so a walk can
// skip it.
func (m *Matcher) MatchDir(dir string) bool {
	return m.Match(dir + "/" + dirSentinel)
}

func normalize(raw string) []string {
	p := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")

	if p == "" {
		return nil
	}

	if !strings.Contains(p, "/") {
		return []string{"**/" + p, "**/" + p + "/**"}
	}

	if strings.HasPrefix(p, "*/") {
		p = "**/" + strings.TrimPrefix(p, "*/")
	}

	p = strings.TrimPrefix(p, "/")

	if strings.HasSuffix(p, "/*") {
		return []string{strings.TrimSuffix(p, "/*") + "/**"}
	}

	if strings.HasSuffix(p, "/**") {
		return []string{p}
	}

	return []string{p, p + "/**"}
}
