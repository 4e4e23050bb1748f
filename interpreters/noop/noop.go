// Package noop provides an evaluator that never runs author code.
//
// It understands literals and plain variable references, which is
// enough for tooling that renders a story without playing it.
package noop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/twinescript"
)

// ErrNotLiteral is returned for code that would have to run.
var ErrNotLiteral = errors.New("not a literal")

func init() {
	core.DefaultInterpreters["noop"] = NewInterpreter()
}

// Interpreter is a core.Evaluator that only evaluates literals.
type Interpreter struct {
	// Silent, if false, logs a warning for code it refuses.
	Silent bool

	Logger *slog.Logger
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Eval(ctx context.Context, code string, scope *core.Scope) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ";")
	code = strings.TrimSpace(code)

	switch code {
	case "", "undefined":
		return core.Undefined, nil
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	switch code[0] {
	case '"', '\'':
		s, err := twinescript.Unquote(code)
		if err != nil {
			return nil, err
		}
		return s, nil
	case '[', '{':
		var x interface{}
		if err := json.Unmarshal([]byte(code), &x); err == nil {
			return x, nil
		}
	}

	if f, err := strconv.ParseFloat(code, 64); err == nil {
		return f, nil
	}

	if scope != nil {
		if name, ok := strings.CutPrefix(code, "State.variables."); ok && isName(name) {
			return scope.Story.Get(name), nil
		}
		if name, ok := strings.CutPrefix(code, "TempVariables."); ok && isName(name) {
			return scope.Temp.Get(name), nil
		}
	}

	if !i.Silent {
		logs.Or(i.Logger).Warn("noop evaluator refused code", "code", code)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotLiteral, code)
}

func isName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
