/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package macros

import (
	"context"
	"fmt"
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/markup"

	"github.com/dlclark/regexp2"
)

var (
	// assignment finds a lone = in a conditional.
	assignment = regexp2.MustCompile(`[^!=&^|<>*/%+-]=[^=]`, regexp2.None)

	elseIf = regexp2.MustCompile(`^\s*if\b`, regexp2.IgnoreCase)

	threePart = regexp2.MustCompile(`^([^;]*?)\s*;\s*([^;]*?)\s*;\s*([^;]*?)$`, regexp2.None)
)

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// clauseNumber is " (#i)" for every clause after the first.
func clauseNumber(i int) string {
	if i == 0 {
		return ""
	}
	return fmt.Sprintf(" (#%d)", i)
}

func ifMacro(ctx context.Context, c *markup.MacroContext) error {
	env := c.Env()

	for i, clause := range c.Payload {
		switch clause.Name {
		case "else":
			if raw := clause.Arguments; raw != "" {
				if matches(elseIf, raw) {
					c.Error(`whitespace is not allowed between the "else" and "if" in <<elseif>> clause` + clauseNumber(i))
					return nil
				}
				c.Error("<<else>> does not accept a conditional expression (perhaps you meant to use <<elseif>>), invalid: " + raw)
				return nil
			}
			return c.Wikify(ctx, c.Output, clause.Contents)

		default:
			full := strings.TrimSpace(clause.FullArgs())
			if full == "" {
				c.Error(fmt.Sprintf("no conditional expression specified for <<%s>> clause%s", clause.Name, clauseNumber(i)))
				return nil
			}
			if env.IfAssignmentError && matches(assignment, full) {
				c.Error(fmt.Sprintf("assignment operator found within <<%s>> clause%s "+
					"(perhaps you meant to use an equality operator: ==, ===, eq, is), invalid: %s",
					clause.Name, clauseNumber(i), clause.Arguments))
				return nil
			}

			x, err := env.EvalJS(ctx, full)
			if err != nil {
				if markup.IsFatal(err) {
					return err
				}
				name := "if"
				if i > 0 {
					name = "elseif"
				}
				c.Error(fmt.Sprintf("bad conditional expression in <<%s>> clause%s: %s", name, clauseNumber(i), err))
				return nil
			}
			if core.Truthy(x) {
				return c.Wikify(ctx, c.Output, clause.Contents)
			}
		}
	}
	return nil
}

func forMacro(ctx context.Context, c *markup.MacroContext) error {
	var (
		env       = c.Env()
		payload   = strings.TrimSuffix(c.Payload[0].Contents, "\n")
		condition = strings.TrimSpace(c.FullArgs())
		init      string
		post      string
	)

	switch {
	case condition == "":
		condition = "true"
	case strings.Contains(condition, ";"):
		m, err := threePart.FindStringMatch(condition)
		if err != nil || m == nil {
			c.Error("invalid 3-part syntax, format: init ; condition ; post")
			return nil
		}
		init = m.GroupByNumber(1).String()
		condition = m.GroupByNumber(2).String()
		post = m.GroupByNumber(3).String()
	}

	env.Signal = markup.NoSignal
	defer func() {
		env.Signal = markup.NoSignal
	}()

	// eval reports false after rendering an error.
	eval := func(code, problem string) (interface{}, bool, error) {
		x, err := env.EvalJS(ctx, code)
		if err != nil {
			if markup.IsFatal(err) {
				return nil, false, err
			}
			c.Error(problem + ": " + err.Error())
			return nil, false, nil
		}
		return x, true, nil
	}

	if init != "" {
		if _, ok, err := eval(init, "bad init expression"); !ok {
			return err
		}
	}

	limit := env.MaxLoopIterations
	safety := limit
	first := true

	for {
		x, ok, err := eval(condition, "bad conditional expression")
		if !ok {
			return err
		}
		if !core.Truthy(x) {
			return nil
		}

		if safety--; safety < 0 {
			c.Error(fmt.Sprintf("exceeded configured maximum loop iterations (%d)", limit))
			return nil
		}

		text := payload
		if first {
			text = strings.TrimPrefix(payload, "\n")
			first = false
		}
		if err := c.Wikify(ctx, c.Output, text); err != nil {
			return err
		}

		switch env.Signal {
		case markup.Continue:
			env.Signal = markup.NoSignal
		case markup.Break:
			return nil
		}

		if post != "" {
			if _, ok, err := eval(post, "bad post expression"); !ok {
				return err
			}
		}
	}
}

// loopSignal is <<break>> and <<continue>>.
func loopSignal(ctx context.Context, c *markup.MacroContext) error {
	if !c.ContextHas(markup.Named("for")) {
		c.Error("must only be used in conjunction with its parent macro <<for>>")
		return nil
	}
	if c.Name == "continue" {
		c.Env().Signal = markup.Continue
	} else {
		c.Env().Signal = markup.Break
	}
	return nil
}
