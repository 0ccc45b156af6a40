// Package fileglob matches remote file paths against user-supplied glob
// patterns. Matching is case-insensitive and '/' separated regardless of the
// remote system's conventions.
package fileglob

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher is a compiled, case-insensitive glob.
type Matcher struct {
	pattern  string
	compiled glob.Glob
}

// Compile builds a matcher from a glob pattern. Supported syntax is the
// usual *, ?, ** and character classes. An empty pattern matches everything.
func Compile(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = "**/*"
	}
	g, err := glob.Compile(strings.ToLower(pattern), '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, compiled: g}, nil
}

// Match reports whether the given path or bare name matches the pattern.
// A leading "**/" segment also matches files with no directory prefix, so
// "**/*.pdf" accepts both "reports/q1.pdf" and "q1.pdf".
func (m *Matcher) Match(name string) bool {
	lowered := strings.ToLower(strings.TrimPrefix(name, "/"))
	if m.compiled.Match(lowered) {
		return true
	}
	if !strings.Contains(lowered, "/") {
		return m.compiled.Match("./" + lowered)
	}
	return false
}

// Pattern returns the original pattern the matcher was compiled from.
func (m *Matcher) Pattern() string {
	return m.pattern
}
