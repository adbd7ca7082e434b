// Package glob matches slash-separated virtual paths against shell-style
// patterns.
//
// Plain patterns (*, **, ?, [...], {a,b} and backslash escapes) are
// evaluated by doublestar. Patterns containing extended groups ?(..),
// *(..), +(..) or @(..), or POSIX classes like [[:alpha:]], are translated
// to an anchored regular expression with the same meaning.
// A leading '!' negates the whole pattern and a leading '#' marks a
// comment that matches nothing. Wildcards match names starting with a dot.
package glob

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrBadPattern is returned for patterns that cannot be parsed.
	ErrBadPattern = errors.New("glob: malformed pattern")
	// ErrUnsupported is returned for !(...) groups, which have no regular
	// expression equivalent without lookahead.
	ErrUnsupported = errors.New("glob: !(...) groups are not supported")
)

// Pattern is a compiled glob pattern.
type Pattern struct {
	source  string
	body    string
	negate  bool
	comment bool
	re      *regexp.Regexp
}

// Compile parses pattern.
func Compile(pattern string) (*Pattern, error) {
	p := &Pattern{source: pattern}
	if strings.HasPrefix(pattern, "#") {
		p.comment = true
		return p, nil
	}

	body := pattern
	for strings.HasPrefix(body, "!") && !strings.HasPrefix(body, "!(") {
		p.negate = !p.negate
		body = body[1:]
	}
	p.body = body

	if needsTranslation(body) {
		expr, err := translate(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, pattern)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, pattern, err)
		}
		p.re = re
		return p, nil
	}

	if body != "" && !doublestar.ValidatePattern(body) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	if p.comment {
		return false
	}

	var matched bool
	switch {
	case p.re != nil:
		matched = p.re.MatchString(name)
	case p.body == "":
		matched = name == ""
	default:
		// The pattern was validated at compile time.
		matched, _ = doublestar.Match(p.body, name)
	}
	return matched != p.negate
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}
