package glob

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		// doublestar-backed
		{"**/*", "first/file", true},
		{"**/*", "file", true},
		{"**/*", "a/b/c/d", true},
		{"**/*", ".hidden", true},
		{"*.js", "app.js", true},
		{"*.js", "lib/app.js", false},
		{"**/*.js", "lib/app.js", true},
		{"**/*.js", "app.js", true},
		{"?.txt", "a.txt", true},
		{"?.txt", "ab.txt", false},
		{"[abc].txt", "b.txt", true},
		{"[abc].txt", "d.txt", false},
		{"{css,js}/*", "js/app.js", true},
		{"{css,js}/*", "img/logo.png", false},
		{`\*.txt`, "*.txt", true},
		{`\*.txt`, "a.txt", false},

		// empty and comment patterns
		{"", "", true},
		{"", "first/file", false},
		{"#comment", "#comment", false},

		// negation
		{"!*.js", "app.css", true},
		{"!*.js", "app.js", false},
		{"!!*.js", "app.js", true},

		// extended groups
		{"*(first|third)/*", "first/file", true},
		{"*(first|third)/*", "third/file", true},
		{"*(first|third)/*", "second/file", false},
		{"*(first|third)/*", "firstthird/file", true},
		{"*(first|third)", "first", true},
		{"*(first|third)", "second", false},
		{"+(a|b).txt", "ab.txt", true},
		{"+(a|b).txt", ".txt", false},
		{"?(x).txt", ".txt", true},
		{"?(x).txt", "x.txt", true},
		{"?(x).txt", "xx.txt", false},
		{"@(foo|bar)/**", "foo/a/b", true},
		{"@(foo|bar)/**", "baz/a/b", false},
		{"@(src|lib)/**/*.js", "src/app.js", true},
		{"@(src|lib)/**/*.js", "lib/x/y/app.js", true},
		{"@(src|lib)/**/*.js", "lib/x/y/app.css", false},
		{"@(*.js|*.css)", "app.css", true},
		{"@(*.js|*.css)", "dir/app.css", false},
		{"@(x|[!a]b)", "cb", true},
		{"@(x|[!a]b)", "ab", false},
		{"@(x|[!a]b)", "/b", false},
		{"@({a,b}|c).txt", "b.txt", true},
		{"@({a,b}|c).txt", "c.txt", true},
		{"@({a,b}|c).txt", "d.txt", false},
		{"@(a|b)?", "a1", true},
		{"@(a|b)?", "a/", false},
		{`@(a|b)\(`, "a(", true},
		{"!@(a|b)", "c", true},
		{"!@(a|b)", "a", false},
		{"@(a)/**", "a", true},
		{"@(a)/**", "a/b/c", true},
		{"@(a)/**", "ab", false},
		{"@(x|[a/b])", "a", true},
		{"@(x|[a/b])", "/", false},
		{"@(x|[/])", "/", false},

		// POSIX classes
		{"[[:alpha:]]", "x", true},
		{"[[:alpha:]]", "1", false},
		{"[[:digit:]]*.txt", "1a.txt", true},
		{"[[:digit:]]*.txt", "a1.txt", false},
		{"[![:digit:]]", "a", true},
		{"[![:digit:]]", "1", false},
		{"[![:digit:]]", "/", false},
		{"[[:upper:]_]", "_", true},
		{"@(x|y)[[:alpha:]]", "xa", true},
		{"@(x|y)[[:alpha:]]", "x1", false},
		{"**/[[:alnum:]]*.js", "lib/app.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.name))
		})
	}
}

// Wrapping a plain pattern in @(...) switches it to the regular expression
// engine; the result must not change.
func TestMatch_EnginesAgree(t *testing.T) {
	tests := []struct {
		plain string
		ext   string
		names []string
	}{
		{"a/**", "@(a)/**", []string{"a", "a/b", "a/b/c", "ab", "b"}},
		{"a/**/b", "@(a)/**/b", []string{"a/b", "a/x/b", "a/x/y/b", "b", "a/bc"}},
		{"**/*.js", "@(**/*.js)", []string{"app.js", "lib/app.js", "lib/x/app.css", ".hidden.js"}},
		{"[abc].txt", "@([abc]).txt", []string{"b.txt", "d.txt", "/.txt"}},
		{"[!a]b", "@([!a])b", []string{"cb", "ab", "b"}},
		{"{css,js}/*", "@({css,js})/*", []string{"js/app.js", "img/x", "css/a/b"}},
		{"?.txt", "@(?).txt", []string{"a.txt", "ab.txt", "/.txt"}},
		{"*", "@(*)", []string{"file", "dir/file", ".dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.plain, func(t *testing.T) {
			plain := MustCompile(tt.plain)
			ext := MustCompile(tt.ext)
			require.Nil(t, plain.re, "plain pattern uses doublestar")
			require.NotNil(t, ext.re, "wrapped pattern uses a regular expression")
			for _, name := range tt.names {
				assert.Equal(t, plain.Match(name), ext.Match(name), "name %q", name)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		pattern string
		want    error
	}{
		{"!(a|b)", ErrUnsupported},
		{"x/!(a|b)", ErrUnsupported},
		{"*(a|b", ErrBadPattern},
		{"[abc", ErrBadPattern},
		{"[[:bogus:]]", ErrBadPattern},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Compile(tt.pattern)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("!(a)") })
	assert.NotPanics(t, func() { MustCompile("**/*") })
}

func TestPattern_String(t *testing.T) {
	assert.Equal(t, "!*.js", MustCompile("!*.js").String())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"*(a|b)", `^(?:(?:a|b)*)$`},
		{"@(a|b)/**/*", `^(?:(?:a|b)/(?:[^/]*/)*[^/]*)$`},
		{"?(a).js", `^(?:(?:a)?\.js)$`},
		{"+(x)[!y]", `^(?:(?:x)+[^/y])$`},
		{"@(a)/**", `^(?:(?:a)(?:/.*)?)$`},
		{"@(x)[a/b]", `^(?:(?:x)[ab])$`},
		{"[[:alpha:]]", `^(?:[[:alpha:]])$`},
		{"@(**/*.js)", `^(?:(?:(?:[^/]*/)*[^/]*\.js))$`},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := translate(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
