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

package core

import (
	"context"
)

// Evaluator evaluates author code.
//
// The code has already been desugared from TwineScript (see package
// twinescript), so story variables appear as State.variables.name and
// temporary variables as TempVariables.name.  Implementations must
// write any changes to those variables back into the Scope's Stores
// before returning.
type Evaluator interface {
	Eval(ctx context.Context, code string, scope *Scope) (interface{}, error)
}

// Scope is what author code can see.
type Scope struct {
	// Story is exposed as State.variables.
	Story Store

	// Temp is exposed as TempVariables.
	Temp Store

	// Setup is the author's setup object.
	Setup map[string]interface{}

	// Settings is the player's settings object.
	Settings map[string]interface{}

	// Funcs are Go functions exposed as globals: either(),
	// visited(), etc.
	Funcs map[string]interface{}
}

// NewScope makes a Scope with empty stores.
func NewScope() *Scope {
	return &Scope{
		Story:    NewStore(),
		Temp:     NewStore(),
		Setup:    make(map[string]interface{}),
		Settings: make(map[string]interface{}),
		Funcs:    make(map[string]interface{}),
	}
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(ctx context.Context, code string, scope *Scope) (interface{}, error)

func (f EvaluatorFunc) Eval(ctx context.Context, code string, scope *Scope) (interface{}, error) {
	return f(ctx, code, scope)
}

// DefaultInterpreters is the registry that configuration consults
// when it names an evaluator.  Interpreter packages add themselves
// here.
var DefaultInterpreters = make(map[string]Evaluator)
