package macros

import (
	"context"
	"strconv"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/markup"

	"golang.org/x/net/html"
)

func gotoMacro(nav Navigator) markup.MacroHandler {
	return func(ctx context.Context, c *markup.MacroContext) error {
		if len(c.Args) == 0 {
			c.Error("no passage specified")
			return nil
		}
		title := passageArg(c.Args[0])
		if !c.Env().HasPassage(title) {
			c.Error(`passage "` + title + `" does not exist`)
			return nil
		}
		if nav == nil {
			c.Error("no story is playing")
			return nil
		}
		nav.Goto(title)
		return nil
	}
}

// linkText is the default text of <<back>> and <<return>> links.
var linkText = map[string]string{
	"back":   "Back",
	"return": "Return",
}

// backOrReturn is <<back>> and <<return>>.  Both make a link to the
// most recent passage other than the current one.  Following a
// <<back>> link rewinds the history to that moment; following a
// <<return>> link plays the passage again.
func backOrReturn(nav Navigator) markup.MacroHandler {
	return func(ctx context.Context, c *markup.MacroContext) error {
		if len(c.Args) > 1 {
			c.Error("too many arguments specified, check the documentation for details")
			return nil
		}
		if nav == nil {
			c.Error("no story is playing")
			return nil
		}

		var (
			env         = c.Env()
			h           = nav.History()
			moments     = h.Moments()
			current     = h.Active().Title
			momentIndex = -1
			passage     string
			text        string
			img         *html.Node
		)

		if len(c.Args) == 1 {
			switch arg := c.Args[0].(type) {
			case *markup.Image:
				img = markup.NewElement("img")
				markup.SetAttr(img, "src", arg.Source)
				if arg.Passage != "" {
					markup.SetAttr(img, "data-passage", arg.Passage)
				}
				if arg.Title != "" {
					markup.SetAttr(img, "title", arg.Title)
				}
				if arg.Align != "" {
					markup.SetAttr(img, "align", arg.Align)
				}
				passage = arg.Link
			case *markup.Link:
				if arg.Count != 1 {
					text = arg.Text
				}
				passage = arg.Link
			default:
				text = core.ToString(arg)
			}
		}

		if passage == "" {
			for i := h.Length() - 2; i >= 0; i-- {
				if moments[i].Title != current {
					momentIndex = i
					passage = moments[i].Title
					break
				}
			}
			if passage == "" && c.Name == "return" {
				for _, title := range []string{h.ExpiredLast(), h.ExpiredUnique()} {
					if title != "" && title != current {
						passage = title
						break
					}
				}
			}
		} else {
			if !env.HasPassage(passage) {
				c.Error(`passage "` + passage + `" does not exist`)
				return nil
			}
			if c.Name == "back" {
				for i := h.Length() - 2; i >= 0; i-- {
					if moments[i].Title == passage {
						momentIndex = i
						break
					}
				}
				if momentIndex == -1 {
					c.Error(`cannot find passage "` + passage + `" in the current story history`)
					return nil
				}
			}
		}

		if passage == "" {
			c.Error("cannot find passage")
			return nil
		}

		var el *html.Node
		if c.Name != "back" || momentIndex != -1 {
			el = markup.AppendElement(c.Output, "a")
			markup.AddClass(el, "link-internal", "macro-"+c.Name)
			action := &markup.LinkAction{Passage: passage}
			if c.Name == "back" {
				i := momentIndex
				action.Do = func(ctx context.Context) error {
					_, err := h.GoTo(ctx, i)
					return err
				}
			}
			if id := env.AddAction(action); id >= 0 {
				markup.SetAttr(el, "data-action", strconv.Itoa(id))
			}
		} else {
			el = markup.AppendElement(c.Output, "span")
			markup.AddClass(el, "link-disabled", "macro-"+c.Name)
		}

		if img != nil {
			el.AppendChild(img)
		} else {
			if text == "" {
				text = linkText[c.Name]
			}
			markup.AppendText(el, text)
		}
		return nil
	}
}
