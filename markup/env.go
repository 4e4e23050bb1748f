package markup

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/story"
	"github.com/Comcast/tale/twinescript"

	"github.com/dlclark/regexp2"
)

// DefaultMaxDepth limits nested rendering.
const DefaultMaxDepth = 100

// ErrTooDeep occurs when rendering nests deeper than Env.MaxDepth,
// usually because a widget or passage includes itself.  It ends the
// whole render.
var ErrTooDeep = errors.New("too much recursion")

// Passages is what rendering needs from a story.
type Passages interface {
	Has(title string) bool
	Get(title string) *story.Passage
}

// LinkAction is what following a link does.
type LinkAction struct {
	Passage string

	// Setter, if not nil, runs before the passage plays.
	Setter func(ctx context.Context) error

	// Do, if not nil, runs instead of playing Passage.
	Do func(ctx context.Context) error
}

// Actions records link actions and returns their ids.
type Actions interface {
	AddAction(a *LinkAction) int
}

// Signal is the loop-control signal set by <<break>> and
// <<continue>>.
type Signal int

const (
	NoSignal Signal = iota
	Continue
	Break
)

// Env is everything a render can reach.  One Env belongs to one
// running story.  An Env is not safe for concurrent renders.
type Env struct {
	Scope     *core.Scope
	Evaluator core.Evaluator
	Story     Passages
	Macros    *Macros
	Rules     *Registry

	// Actions, if not nil, records internal links.
	Actions Actions

	// Played, if not nil, reports whether a passage has been
	// played in the current history.
	Played func(title string) bool

	AddVisitedLinkClass bool

	// Cleanup groups the top-level output into paragraphs.
	Cleanup bool

	// Nobr suppresses <br> for line breaks.
	Nobr bool

	MaxDepth          int
	MaxLoopIterations int
	IfAssignmentError bool

	// OnMacroError, if not nil, hears about every macro error
	// rendered inline.
	OnMacroError func(name, msg string)

	Logger *slog.Logger

	// Signal is the current loop-control signal.
	Signal Signal

	depth int
}

var (
	standard     *Registry
	standardOnce sync.Once
)

// DefaultRegistry returns the shared registry holding the standard
// rules.
func DefaultRegistry() *Registry {
	standardOnce.Do(func() {
		standard = StandardRegistry()
	})
	return standard
}

// NewEnv makes an Env with empty stores, no story, no macros, and the
// standard rules.
func NewEnv() *Env {
	return &Env{
		Scope:             core.NewScope(),
		Macros:            NewMacros(),
		Rules:             DefaultRegistry(),
		MaxDepth:          DefaultMaxDepth,
		MaxLoopIterations: 1000,
		IfAssignmentError: true,
	}
}

func (e *Env) logger() *slog.Logger {
	return logs.Or(e.Logger)
}

// Depth is the current render nesting.
func (e *Env) Depth() int {
	return e.depth
}

// Options returns the default render options.
func (e *Env) Options() Options {
	return Options{
		Profile: ProfileAll,
		Nobr:    e.Nobr,
	}
}

// Eval evaluates TwineScript.
func (e *Env) Eval(ctx context.Context, code string) (interface{}, error) {
	return e.EvalJS(ctx, twinescript.Desugar(code))
}

// EvalJS evaluates code that has already been desugared.
func (e *Env) EvalJS(ctx context.Context, code string) (interface{}, error) {
	if e.Evaluator == nil {
		return nil, core.NoEvaluator
	}
	x, err := e.Evaluator.Eval(ctx, code, e.Scope)
	if err != nil {
		return nil, &core.EvalError{
			Code: code,
			Err:  err,
		}
	}
	return x, nil
}

var tempVariable = regexp2.MustCompile(`TempVariables\.([$A-Z_a-z][$0-9A-Z_a-z]*)`, regexp2.None)

// Setter compiles a link setter.  The temporary variables the code
// mentions are captured now and restored around the later
// evaluation, so a setter made inside a loop sees that iteration's
// values.
func (e *Env) Setter(code string) func(ctx context.Context) error {
	js := twinescript.Desugar(code)

	shadows := make(map[string]interface{})
	m, _ := tempVariable.FindStringMatch(js)
	for m != nil {
		name := m.GroupByNumber(1).String()
		if e.Scope.Temp.Has(name) {
			shadows[name] = core.Clone(e.Scope.Temp[name])
		}
		m, _ = tempVariable.FindNextMatch(m)
	}

	return func(ctx context.Context) error {
		temp := e.Scope.Temp
		saved := make(map[string]interface{}, len(shadows))
		for name, x := range shadows {
			if old, have := temp[name]; have {
				saved[name] = old
			}
			temp[name] = core.Clone(x)
		}
		defer func() {
			for name := range shadows {
				if old, have := saved[name]; have {
					temp[name] = old
				} else {
					delete(temp, name)
				}
			}
		}()

		if _, err := e.EvalJS(ctx, js); err != nil {
			return err
		}
		return nil
	}
}

func (e *Env) macroError(name, msg string) {
	e.logger().Debug("macro error", "macro", name, "error", msg)
	if e.OnMacroError != nil {
		e.OnMacroError(name, msg)
	}
}

// AddAction registers a link action and returns its id, or -1 if
// nothing records actions.
func (e *Env) AddAction(a *LinkAction) int {
	if e.Actions == nil {
		return -1
	}
	return e.Actions.AddAction(a)
}

func (e *Env) addAction(passage string, setter func(context.Context) error) int {
	return e.AddAction(&LinkAction{
		Passage: passage,
		Setter:  setter,
	})
}

// HasPassage reports whether the story has the passage.
func (e *Env) HasPassage(title string) bool {
	return e.hasPassage(title)
}

// Passage returns the named passage or nil.
func (e *Env) Passage(title string) *story.Passage {
	return e.passage(title)
}

func (e *Env) hasPassage(title string) bool {
	return e.Story != nil && e.Story.Has(title)
}

func (e *Env) passage(title string) *story.Passage {
	if e.Story == nil {
		return nil
	}
	return e.Story.Get(title)
}

func (e *Env) played(title string) bool {
	return e.Played != nil && e.Played(title)
}
