package macros

import (
	"context"
	"strings"

	"github.com/Comcast/tale/markup"

	"github.com/dlclark/regexp2"
)

// set is <<set>> and <<run>>.
func set(ctx context.Context, c *markup.MacroContext) error {
	full := strings.TrimSpace(c.FullArgs())
	if full == "" {
		c.Error("no expression specified")
		return nil
	}
	if _, err := c.Env().EvalJS(ctx, full); err != nil {
		if markup.IsFatal(err) {
			return err
		}
		c.Error("bad evaluation: " + err.Error())
	}
	return nil
}

var unsetVariable = regexp2.MustCompile(`(?:(State\.variables)|(TempVariables))\.(`+markup.Identifier+`)`, regexp2.None)

func unset(ctx context.Context, c *markup.MacroContext) error {
	full := c.FullArgs()
	if strings.TrimSpace(full) == "" {
		c.Error("no story/temporary variable list specified")
		return nil
	}

	scope := c.Env().Scope
	m, _ := unsetVariable.FindStringMatch(full)
	for m != nil {
		store := scope.Temp
		if len(m.GroupByNumber(1).Captures) > 0 {
			store = scope.Story
		}
		store.Delete(m.GroupByNumber(3).String())
		m, _ = unsetVariable.FindNextMatch(m)
	}
	return nil
}
