package filter

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Matcher is the free-text search over entity names and joined field paths.
// The zero value matches everything.
type Matcher struct {
	Query     string
	MatchCase bool
	Regex     bool
}

// Compile returns the predicate for m. It fails only for an invalid regular
// expression.
func (m Matcher) Compile() (func(string) bool, error) {
	if m.Query == "" {
		return func(string) bool { return true }, nil
	}
	if m.Regex {
		pattern := m.Query
		if !m.MatchCase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile regex %q: %w", m.Query, err)
		}
		return re.MatchString, nil
	}
	if m.MatchCase {
		query := m.Query
		return func(s string) bool { return strings.Contains(s, query) }, nil
	}
	fold := cases.Fold()
	query := fold.String(m.Query)
	return func(s string) bool { return strings.Contains(fold.String(s), query) }, nil
}
