// Package tale plays SugarCube-style interactive fiction.
//
// A story is a set of named passages written in wiki markup with
// embedded macros.  Package 'markup' renders passages, 'macros' has
// the standard macros, 'history' keeps the moments a player has
// visited, and 'engine' ties them together.  Command-line tools are
// in `cmd/tale`.
package tale
