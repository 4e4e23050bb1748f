package markup

import (
	"context"
	"errors"
	"strings"
	"time"
)

var macroTag = mustCompile(`<<(/?` + MacroName + `)(?:\s*)((?:(?:"(?:\\.|[^"\\])*")|(?:'(?:\\.|[^'\\])*')|(?:\[(?:[<>]?[Ii][Mm][Gg])?\[[^\r\n]*?\]\]+)|[^>]|(?:>(?!>)))*)>>`)

func init() {
	macroTag.MatchTimeout = 5 * time.Second
}

// tag is a parsed macro tag.
type tag struct {
	Source string
	Name   string
	Args   string
	Index  int
}

// parseTag parses the macro tag that starts at MatchStart.  On
// success it moves NextMatch past the tag.
func (w *Wikifier) parseTag() (*tag, bool) {
	m := matchAt(macroTag, w.Source, w.MatchStart)
	if m == nil || group(m, 1) == "" {
		return nil, false
	}
	w.NextMatch = end(m)
	return &tag{
		Source: m.String(),
		Name:   group(m, 1),
		Args:   group(m, 2),
		Index:  m.Index,
	}, true
}

// parseBody collects the clauses of a container macro whose opening
// tag was open.  It reports false if the closing tag is missing.
func (w *Wikifier) parseBody(ctx context.Context, m *Macro, open *tag) ([]*Clause, bool, error) {
	var (
		openTag  = open.Name
		closeTag = "/" + openTag
		closeAlt = "end" + openTag
		payload  []*Clause
		opened   = 1
		cur      = open
		start    = w.NextMatch
	)

	clause := func(t *tag, contents string) error {
		c := &Clause{
			Name:      t.Name,
			Source:    t.Source,
			Arguments: t.Args,
			Contents:  contents,
		}
		if !(m.SkipArgs || (len(payload) == 0 && m.SkipArg0)) {
			args, err := w.Env.ParseArgs(ctx, t.Args)
			if err != nil {
				return err
			}
			c.Args = args
		}
		payload = append(payload, c)
		return nil
	}

	for {
		at := w.indexOf("<<", w.NextMatch)
		if at < 0 {
			return nil, false, nil
		}
		w.MatchStart = at
		t, ok := w.parseTag()
		if !ok {
			w.NextMatch = at + 2
			continue
		}

		switch t.Name {
		case openTag:
			opened++
		case closeTag, closeAlt:
			opened--
		default:
			if opened == 1 && contains(m.Tags, t.Name) {
				if err := clause(cur, w.Slice(start, t.Index)); err != nil {
					return nil, true, err
				}
				cur = t
				start = w.NextMatch
			}
		}

		if opened == 0 {
			if err := clause(cur, w.Slice(start, t.Index)); err != nil {
				return nil, true, err
			}
			return payload, true, nil
		}
	}
}

func (w *Wikifier) indexOf(s string, from int) int {
	needle := []rune(s)
outer:
	for i := from; i+len(needle) <= len(w.Source); i++ {
		for j, r := range needle {
			if w.Source[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// IsFatal reports whether err should end the whole render rather than
// appear inline.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTooDeep) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func macroRule(ctx context.Context, w *Wikifier) error {
	matchStart := w.MatchStart

	t, ok := w.parseTag()
	if !ok {
		w.OutputText(w.Output, w.MatchStart, w.NextMatch)
		return nil
	}

	var (
		env       = w.Env
		name      = t.Name
		nextMatch = w.NextMatch
		output    = w.Output
	)

	fail := func(msg string, source string) error {
		AppendError(output, msg, source)
		env.macroError(name, msg)
		return nil
	}

	m := env.Macros.Get(name)
	if m == nil {
		if parents := env.Macros.Parents(name); len(parents) > 0 {
			return fail("child tag <<"+name+">> was found outside of a call to its parent "+
				plural("macro", parents)+" <<"+strings.Join(parents, ">>, <<")+">>",
				w.Slice(matchStart, w.NextMatch))
		}
		return fail("macro <<"+name+">> does not exist", w.Slice(matchStart, w.NextMatch))
	}

	kind := "macro"
	if m.IsWidget {
		kind = "widget"
	}
	cannot := func(err error) error {
		if IsFatal(err) {
			return err
		}
		return fail("cannot execute "+kind+" <<"+name+">>: "+err.Error(), w.Slice(matchStart, w.NextMatch))
	}

	var payload []*Clause
	if m.HasBody() {
		p, found, err := w.parseBody(ctx, m, t)
		if err != nil {
			return cannot(err)
		}
		if !found {
			w.NextMatch = nextMatch
			return fail("cannot find a closing tag for macro <<"+name+">>",
				w.Slice(matchStart, w.NextMatch)+"\u2026")
		}
		payload = p
	}

	var args []interface{}
	switch {
	case payload != nil:
		args = payload[0].Args
	case m.SkipArgs || m.SkipArg0:
	default:
		var err error
		if args, err = env.ParseArgs(ctx, t.Args); err != nil {
			return cannot(err)
		}
	}

	mc := &MacroContext{
		Parent:  w.Context,
		Self:    m,
		Name:    name,
		Args:    args,
		RawArgs: t.Args,
		Payload: payload,
		Source:  t.Source,
		Output:  output,
		Parser:  w,
	}

	prev := w.Context
	w.Context = mc
	err := m.Handler(ctx, mc)
	w.Context = prev

	if err != nil {
		return cannot(err)
	}
	return nil
}
