package markup

import (
	"sync"

	"github.com/dlclark/regexp2"
)

// Pattern sources shared by rules.  These are fragments, not
// complete expressions.
const (
	SpaceNoTerminator   = `[\u0020\f\t\v\u00a0\u1680\u180e\u2000-\u200a\u202f\u205f\u3000\ufeff]`
	LineTerminator      = `[\n\r\u2028\u2029]`
	AnyLetter           = `[0-9A-Z_a-z\-\u00C0-\u00D6\u00D8-\u00DE\u00DF-\u00F6\u00F8-\u00FF\u0150\u0170\u0151\u0171]`
	IdentifierFirstChar = `[$A-Z_a-z]`
	Identifier          = IdentifierFirstChar + `[$0-9A-Z_a-z]*`
	VariableSigil       = `[$_]`
	Variable            = VariableSigil + Identifier
	MacroName           = `[A-Za-z][\w-]*|[=-]`
	URL                 = `(?:file|https?|mailto|ftp|javascript|irc|news|data):[^\s'"]+`

	// InlineCSS groups: 1,2 style(value):  3,4 style:value;  5 .class;  6 #id;
	InlineCSS = `(` + AnyLetter + `+)\(([^\)\|\n]+)\):|(` + AnyLetter + `+):([^;\|\n]+);|((?:\.` + AnyLetter + `+)+);|((?:#` + AnyLetter + `+)+);`
)

var (
	compiledMu sync.Mutex
	compiled   = make(map[string]*regexp2.Regexp)
)

// compile returns a cached multiline expression.
func compile(src string, ignoreCase bool) (*regexp2.Regexp, error) {
	key := src
	opts := regexp2.RegexOptions(regexp2.Multiline)
	if ignoreCase {
		key = "i:" + src
		opts |= regexp2.IgnoreCase
	}

	compiledMu.Lock()
	defer compiledMu.Unlock()
	if re, have := compiled[key]; have {
		return re, nil
	}
	re, err := regexp2.Compile(src, opts)
	if err != nil {
		return nil, err
	}
	compiled[key] = re
	return re, nil
}

func mustCompile(src string) *regexp2.Regexp {
	re, err := compile(src, false)
	if err != nil {
		panic(err)
	}
	return re
}

// matchAt returns the match of re that starts exactly at pos, if
// any.
func matchAt(re *regexp2.Regexp, src []rune, pos int) *regexp2.Match {
	if pos > len(src) {
		return nil
	}
	m, err := re.FindRunesMatchStartingAt(src, pos)
	if err != nil || m == nil || m.Index != pos {
		return nil
	}
	return m
}

// participated reports whether group i took part in the match.
func participated(m *regexp2.Match, i int) bool {
	g := m.GroupByNumber(i)
	return g != nil && len(g.Captures) > 0
}

// group returns the text of group i, or "" if it didn't take part.
func group(m *regexp2.Match, i int) string {
	if !participated(m, i) {
		return ""
	}
	return m.GroupByNumber(i).String()
}

// end is the rune index just past the match.
func end(m *regexp2.Match) int {
	return m.Index + m.Length
}
