package macros

import (
	"context"
	"fmt"
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/markup"
	"github.com/Comcast/tale/story"
)

// printMacro is <<print>>, <<=>>, and <<->>.  <<->> doesn't render markup
// in the result.
func printMacro(ctx context.Context, c *markup.MacroContext) error {
	full := strings.TrimSpace(c.FullArgs())
	if full == "" {
		c.Error("no expression specified")
		return nil
	}

	x, err := c.Env().EvalJS(ctx, full)
	if err != nil {
		if markup.IsFatal(err) {
			return err
		}
		c.Error("bad evaluation: " + err.Error())
		return nil
	}

	s, ok := markup.Printable(x)
	if !ok {
		return nil
	}
	if c.Name == "-" {
		markup.AppendText(c.Output, s)
		return nil
	}
	return c.Wikify(ctx, c.Output, s)
}

// nobr renders its contents with runs of newlines collapsed to
// single spaces.
func nobr(ctx context.Context, c *markup.MacroContext) error {
	return c.Wikify(ctx, c.Output, story.Nobr(c.Payload[0].Contents))
}

// silently renders its contents and discards the result.  Errors
// still show.
func silently(ctx context.Context, c *markup.MacroContext) error {
	contents := c.Payload[0].Contents
	frag := markup.NewFragment()
	if err := c.Wikify(ctx, frag, strings.TrimSpace(contents)); err != nil {
		return err
	}

	if errs := markup.Errors(frag); len(errs) > 0 {
		c.ErrorAt(fmt.Sprintf("error%s within contents (%s)", plural(len(errs)), joinErrors(errs)),
			c.Source+contents+"<</"+c.Name+">>")
	}
	return nil
}

// display renders another passage in place.  With a second argument,
// the passage goes in a new element of that type.
func display(ctx context.Context, c *markup.MacroContext) error {
	if len(c.Args) == 0 {
		c.Error("no passage specified")
		return nil
	}

	env := c.Env()
	title := passageArg(c.Args[0])
	if !env.HasPassage(title) {
		c.Error(`passage "` + title + `" does not exist`)
		return nil
	}
	p := env.Passage(title)

	dest := c.Output
	if len(c.Args) > 1 && core.Truthy(c.Args[1]) {
		dest = markup.AppendElement(c.Output, core.ToString(c.Args[1]))
		markup.AddClass(dest, p.DomID(), "macro-"+c.Name)
		markup.SetAttr(dest, "data-passage", p.Title)
	}
	return c.Wikify(ctx, dest, p.ProcessText(env.Nobr))
}
