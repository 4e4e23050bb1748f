package core

// These errors are author errors, not internal errors.

import (
	"errors"
)

// EvalError occurs when author code fails to evaluate.
type EvalError struct {
	Code string
	Err  error
}

func (e *EvalError) Error() string {
	return e.Err.Error()
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// InterpreterNotFound occurs when configuration names an evaluator
// that isn't registered.
var InterpreterNotFound = errors.New("interpreter not found")

// NoEvaluator occurs when code needs evaluating but nothing can do
// it.
var NoEvaluator = errors.New("no evaluator")
