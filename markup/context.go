package markup

import (
	"context"

	"github.com/Comcast/tale/twinescript"

	"golang.org/x/net/html"
)

// Clause is one section of a macro body: the opening tag or a child
// tag, and the contents up to the next tag.
type Clause struct {
	Name      string
	Source    string
	Arguments string
	Args      []interface{}
	Contents  string
}

// FullArgs returns the clause's raw arguments as JavaScript.
func (c *Clause) FullArgs() string {
	return twinescript.Desugar(c.Arguments)
}

// MacroContext is one macro invocation.  Contexts form a chain
// through Parent to the invocations that enclose this one.
type MacroContext struct {
	Parent *MacroContext
	Self   *Macro
	Name   string

	// Args are the parsed arguments.  RawArgs is the unparsed
	// argument text.
	Args    []interface{}
	RawArgs string

	// Payload holds the body clauses of a container macro.
	Payload []*Clause

	// Source is the text of the invocation.
	Source string

	// Output is where the invocation renders.
	Output *html.Node

	// Parser is the Wikifier that found the invocation.
	Parser *Wikifier
}

// Env returns the invocation's environment.
func (c *MacroContext) Env() *Env {
	return c.Parser.Env
}

// FullArgs returns RawArgs as JavaScript.
func (c *MacroContext) FullArgs() string {
	return twinescript.Desugar(c.RawArgs)
}

// ContextHas reports whether any enclosing invocation satisfies f.
func (c *MacroContext) ContextHas(f func(*MacroContext) bool) bool {
	return c.ContextSelect(f) != nil
}

// ContextSelect returns the nearest enclosing invocation that
// satisfies f.
func (c *MacroContext) ContextSelect(f func(*MacroContext) bool) *MacroContext {
	for p := c.Parent; p != nil; p = p.Parent {
		if f(p) {
			return p
		}
	}
	return nil
}

// ContextSelectAll returns every enclosing invocation that satisfies
// f, nearest first.
func (c *MacroContext) ContextSelectAll(f func(*MacroContext) bool) []*MacroContext {
	var acc []*MacroContext
	for p := c.Parent; p != nil; p = p.Parent {
		if f(p) {
			acc = append(acc, p)
		}
	}
	return acc
}

// Named returns a filter that matches invocations of any of the given
// macros.
func Named(names ...string) func(*MacroContext) bool {
	return func(c *MacroContext) bool {
		for _, name := range names {
			if c.Name == name {
				return true
			}
		}
		return false
	}
}

// Error renders "<<name>>: msg" inline.
func (c *MacroContext) Error(msg string) {
	c.ErrorAt(msg, c.Source)
}

// ErrorAt is Error with a different source text.
func (c *MacroContext) ErrorAt(msg, source string) {
	AppendError(c.Output, "<<"+c.Name+">>: "+msg, source)
	c.Env().macroError(c.Name, msg)
}

// Wikify renders text into dest with this invocation as the
// enclosing context.
func (c *MacroContext) Wikify(ctx context.Context, dest *html.Node, text string) error {
	opts := c.Parser.Options
	opts.IgnoreTerminatorCase = false
	_, err := render(ctx, c.Env(), dest, text, opts, c)
	return err
}

// Eval evaluates TwineScript.
func (c *MacroContext) Eval(ctx context.Context, code string) (interface{}, error) {
	return c.Env().Eval(ctx, code)
}
