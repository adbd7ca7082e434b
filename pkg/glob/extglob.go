package glob

import (
	"regexp"
	"strings"
)

const groupKinds = "?*+@!"

// needsTranslation reports whether pattern contains an unescaped extended
// group or a POSIX character class, neither of which doublestar evaluates.
func needsTranslation(pattern string) bool {
	src := []rune(pattern)
	for i := 0; i < len(src); i++ {
		if src[i] == '\\' {
			i++
			continue
		}
		if i+1 < len(src) && src[i+1] == '(' && strings.ContainsRune(groupKinds, src[i]) {
			return true
		}
		if i+1 < len(src) && src[i] == '[' && src[i+1] == ':' {
			return true
		}
	}
	return false
}

// translate converts a glob pattern into an anchored regular expression
// that agrees with doublestar on the plain glob syntax.
func translate(pattern string) (string, error) {
	t := &translator{src: []rune(pattern)}
	body, err := t.sequence("")
	if err != nil {
		return "", err
	}
	return "^(?:" + body + ")$", nil
}

type translator struct {
	src []rune
	pos int
}

func (t *translator) peek(offset int) rune {
	if i := t.pos + offset; i < len(t.src) {
		return t.src[i]
	}
	return 0
}

// sequence translates runes until one of stops is reached at the current
// nesting level. The stop rune is not consumed.
func (t *translator) sequence(stops string) (string, error) {
	var b strings.Builder
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if stops != "" && strings.ContainsRune(stops, c) {
			break
		}

		switch {
		case c == '\\':
			t.pos++
			if t.pos < len(t.src) {
				b.WriteString(regexp.QuoteMeta(string(t.src[t.pos])))
				t.pos++
			} else {
				b.WriteString(`\\`)
			}
		case t.peek(1) == '(' && strings.ContainsRune(groupKinds, c):
			s, err := t.group(c)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case c == '/' && t.trailingGlobstar():
			// a/** also matches a itself.
			b.WriteString(`(?:/.*)?`)
			t.pos += 3
		case c == '*':
			b.WriteString(t.star())
		case c == '?':
			b.WriteString(`[^/]`)
			t.pos++
		case c == '[':
			b.WriteString(t.class())
		case c == '{':
			s, err := t.braces()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			t.pos++
		}
	}
	return b.String(), nil
}

// trailingGlobstar reports whether the rest of the pattern is "/**".
func (t *translator) trailingGlobstar() bool {
	return t.pos+3 == len(t.src) && t.peek(1) == '*' && t.peek(2) == '*'
}

// star translates '*' or a '**' path segment.
func (t *translator) star() string {
	segmentStart := t.pos == 0 || strings.ContainsRune("/(|", t.src[t.pos-1])
	if segmentStart && t.peek(1) == '*' {
		switch t.peek(2) {
		case '/':
			t.pos += 3
			return `(?:[^/]*/)*`
		case 0, ')', '|':
			t.pos += 2
			return `.*`
		}
	}
	t.pos++
	return `[^/]*`
}

// group translates kind(a|b|...).
func (t *translator) group(kind rune) (string, error) {
	if kind == '!' {
		return "", ErrUnsupported
	}
	t.pos += 2

	var alts []string
	for {
		alt, err := t.sequence("|)")
		if err != nil {
			return "", err
		}
		if t.pos >= len(t.src) {
			return "", ErrBadPattern
		}
		alts = append(alts, alt)
		closing := t.src[t.pos] == ')'
		t.pos++
		if closing {
			break
		}
	}

	inner := "(?:" + strings.Join(alts, "|") + ")"
	switch kind {
	case '?':
		return inner + "?", nil
	case '*':
		return inner + "*", nil
	case '+':
		return inner + "+", nil
	default:
		return inner, nil
	}
}

// class translates a bracket expression. An unterminated '[' is literal.
// POSIX classes such as [:alpha:] are passed through to the regular
// expression. No class matches '/'.
func (t *translator) class() string {
	i := t.pos + 1
	if i < len(t.src) && (t.src[i] == '!' || t.src[i] == '^') {
		i++
	}
	if i < len(t.src) && t.src[i] == ']' {
		i++
	}
	for ; i < len(t.src) && t.src[i] != ']'; i++ {
		switch {
		case t.src[i] == '\\':
			i++
		case t.src[i] == '[' && i+1 < len(t.src) && t.src[i+1] == ':':
			if end := t.posixEnd(i + 2); end > 0 {
				i = end
			}
		}
	}
	if i >= len(t.src) {
		t.pos++
		return `\[`
	}

	body := string(t.src[t.pos+1 : i])
	t.pos = i + 1
	if strings.HasPrefix(body, "!") || strings.HasPrefix(body, "^") {
		return "[^/" + leadingBracket(body[1:]) + "]"
	}
	body = withoutSlash(body)
	if body == "" {
		return `[^\x00-\x{10FFFF}]`
	}
	return "[" + leadingBracket(body) + "]"
}

// posixEnd returns the index of the ']' closing a POSIX class whose name
// starts at from, or -1.
func (t *translator) posixEnd(from int) int {
	for j := from; j+1 < len(t.src); j++ {
		if t.src[j] == ':' && t.src[j+1] == ']' {
			return j + 1
		}
		if t.src[j] == ']' {
			return -1
		}
	}
	return -1
}

// withoutSlash removes literal and escaped '/' from a class body.
func withoutSlash(body string) string {
	body = strings.ReplaceAll(body, `\/`, "")
	return strings.ReplaceAll(body, "/", "")
}

// leadingBracket escapes a literal ']' at the start of a class body.
func leadingBracket(body string) string {
	if strings.HasPrefix(body, "]") {
		return `\]` + body[1:]
	}
	return body
}

// braces translates {a,b,...}. A brace without a closing '}' or without a
// comma is literal.
func (t *translator) braces() (string, error) {
	start := t.pos
	t.pos++

	var alts []string
	for {
		alt, err := t.sequence(",}")
		if err != nil {
			return "", err
		}
		if t.pos >= len(t.src) {
			t.pos = start + 1
			return `\{`, nil
		}
		alts = append(alts, alt)
		closing := t.src[t.pos] == '}'
		t.pos++
		if closing {
			break
		}
	}

	if len(alts) == 1 {
		return `\{` + alts[0] + `\}`, nil
	}
	return "(?:" + strings.Join(alts, "|") + ")", nil
}
