package macros

import (
	"context"
	"fmt"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/markup"
)

// widget defines a new macro whose body is the widget's contents.
// While a widget runs, $args holds its arguments.
func widget(ctx context.Context, c *markup.MacroContext) error {
	if len(c.Args) == 0 {
		c.Error("no widget name specified")
		return nil
	}

	ms := c.Env().Macros
	name := core.ToString(c.Args[0])

	if existing := ms.Get(name); existing != nil {
		if !existing.IsWidget {
			c.Error(`cannot clobber existing macro "` + name + `"`)
			return nil
		}
		if err := ms.Delete(name); err != nil {
			c.Error(fmt.Sprintf(`cannot create widget macro "%s": %s`, name, err))
			return nil
		}
	}

	m := &markup.Macro{
		IsWidget: true,
		Handler:  widgetHandler(c.Payload[0].Contents),
	}
	if err := ms.Add(m, name); err != nil {
		c.Error(fmt.Sprintf(`cannot create widget macro "%s": %s`, name, err))
	}
	return nil
}

func widgetHandler(contents string) markup.MacroHandler {
	return func(ctx context.Context, c *markup.MacroContext) error {
		vars := c.Env().Scope.Story

		cached, had := vars["args"]
		args := make([]interface{}, len(c.Args))
		copy(args, c.Args)
		vars["args"] = args
		defer func() {
			if had {
				vars["args"] = cached
			} else {
				delete(vars, "args")
			}
		}()

		frag := markup.NewFragment()
		if err := c.Wikify(ctx, frag, contents); err != nil {
			return err
		}

		if errs := markup.Errors(frag); len(errs) > 0 {
			c.Error(fmt.Sprintf("error%s within widget contents (%s)", plural(len(errs)), joinErrors(errs)))
			return nil
		}
		markup.MoveChildren(c.Output, frag)
		return nil
	}
}
