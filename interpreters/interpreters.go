// Package interpreters collects the available evaluators.
package interpreters

import (
	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/interpreters/goja"
	"github.com/Comcast/tale/interpreters/noop"
)

// Standard returns a fresh evaluator for each supported name.
func Standard() map[string]core.Evaluator {
	return map[string]core.Evaluator{
		"goja":       goja.NewInterpreter(),
		"ecmascript": goja.NewInterpreter(),
		"noop":       noop.NewInterpreter(),
	}
}

// Find returns the evaluator with the given name from Standard, or
// nil.
func Find(name string) core.Evaluator {
	return Standard()[name]
}
