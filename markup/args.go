package markup

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/twinescript"
	"github.com/Comcast/tale/vars"

	"github.com/dlclark/regexp2"
)

// Argument grammar groups, in priority order.
const (
	argEmptyBackticks = iota + 1
	argBackticked
	argEmptyQuotes
	argDoubleQuoted
	argSingleQuoted
	argBracketed
	argBareword
	argUnterminated
)

var (
	argsPattern = mustCompile(strings.Join([]string{
		"(``)",
		"`((?:\\\\.|[^`\\\\])+)`",
		`(""|'')`,
		`("(?:\\.|[^"\\])+")`,
		`('(?:\\.|[^'\\])+')`,
		`(\[(?:[<>]?[Ii][Mm][Gg])?\[[^\r\n]*?\]\]+)`,
		"([^`\"'\\s]+)",
		"(`|\"|')",
	}, "|"))

	variableStart = regexp2.MustCompile(`^`+Variable, regexp2.None)

	settingsOrSetup = regexp2.MustCompile(`^(?:settings|setup)[.\[]`, regexp2.None)
)

// ParseArgs parses raw macro argument text into values.
func (e *Env) ParseArgs(ctx context.Context, raw string) ([]interface{}, error) {
	args := make([]interface{}, 0, 4)

	m, err := argsPattern.FindStringMatch(raw)
	for ; m != nil && err == nil; m, err = argsPattern.FindNextMatch(m) {
		arg, err := e.parseArg(ctx, m)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if err != nil {
		return nil, err
	}

	return args, nil
}

func (e *Env) parseArg(ctx context.Context, m *regexp2.Match) (interface{}, error) {
	switch {
	case participated(m, argEmptyBackticks):
		return core.Undefined, nil

	case participated(m, argBackticked):
		code := group(m, argBackticked)
		x, err := e.Eval(ctx, code)
		if err != nil {
			return nil, fmt.Errorf(`unable to parse macro argument "%s": %w`, code, err)
		}
		return x, nil

	case participated(m, argEmptyQuotes):
		return "", nil

	case participated(m, argDoubleQuoted):
		lit := group(m, argDoubleQuoted)
		s, err := twinescript.Unquote(lit)
		if err != nil {
			return nil, fmt.Errorf(`unable to parse macro argument '%s': %w`, lit, err)
		}
		return s, nil

	case participated(m, argSingleQuoted):
		lit := group(m, argSingleQuoted)
		s, err := twinescript.Unquote(lit)
		if err != nil {
			return nil, fmt.Errorf(`unable to parse macro argument "%s": %w`, lit, err)
		}
		return s, nil

	case participated(m, argBracketed):
		text := group(m, argBracketed)
		src := []rune(text)
		markup := parseSquareBracketed(src, 0)
		if markup.Err != "" {
			return nil, fmt.Errorf(`unable to parse macro argument "%s": %s`, text, markup.Err)
		}
		if markup.Pos < len(src) {
			return nil, fmt.Errorf(`unable to parse macro argument "%s": unexpected character(s) "%s" (pos: %d)`,
				text, string(src[markup.Pos:]), markup.Pos)
		}
		return e.linkArg(ctx, markup), nil

	case participated(m, argBareword):
		word := group(m, argBareword)
		switch {
		case matches(variableStart, word):
			return vars.Get(e.Scope, word), nil
		case matches(settingsOrSetup, word):
			x, err := e.Eval(ctx, word)
			if err != nil {
				return nil, fmt.Errorf(`unable to parse macro argument "%s": %w`, word, err)
			}
			return x, nil
		case word == "null":
			return nil, nil
		case word == "undefined":
			return core.Undefined, nil
		case word == "true":
			return true, nil
		case word == "false":
			return false, nil
		}
		if f := core.ToNumber(word); !math.IsNaN(f) {
			return f, nil
		}
		return word, nil

	case participated(m, argUnterminated):
		var what string
		switch group(m, argUnterminated) {
		case "`":
			what = "backtick expression"
		case `"`:
			what = "double quoted string"
		case "'":
			what = "single quoted string"
		}
		return nil, fmt.Errorf("unterminated %s in macro argument string", what)
	}

	return nil, fmt.Errorf("unable to parse macro argument %q", m.String())
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
