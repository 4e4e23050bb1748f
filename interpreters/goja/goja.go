// Package goja is the default core.Evaluator.  It runs author code
// with Goja, a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/logs"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Eval if the evaluation is
	// interrupted.  The error also wraps the context's error.
	Interrupted = errors.New(InterruptedMessage)
)

// init adds an Interpreter as one of the DefaultInterpreters.
func init() {
	core.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements core.Evaluator.
//
// An Interpreter keeps one runtime, so functions that story scripts
// define stay defined.  Calls to Eval are serialized.
type Interpreter struct {
	// Testing exposes sleep().
	Testing bool

	// LibraryProvider resolves the names that story scripts
	// require().  If nil, DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)

	Logger *slog.Logger

	sync.Mutex

	runtime  *goja.Runtime
	compiled map[string]*goja.Program
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		compiled: make(map[string]*goja.Program),
	}
}

// ProvideLibrary resolves the library name into source.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider resolves "file://name" relative to dir.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			if strings.Contains(parts[1], "..") {
				return "", fmt.Errorf("bad library path '%s'", parts[1])
			}
			bs, err := os.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MakeMapLibraryProvider resolves names from the given map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func (i *Interpreter) logger() *slog.Logger {
	return logs.Or(i.Logger)
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// rt returns the runtime, making it if needed.
func (i *Interpreter) rt() *goja.Runtime {
	if i.runtime != nil {
		return i.runtime
	}

	o := goja.New()

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	o.Set("gensym", func() interface{} {
		return core.Gensym(32)
	})

	o.Set("cronNext", func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		cronExpr, is := x.(string)
		if !is {
			protest(o, "not a string")
		}

		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	})

	o.Set("esc", func(x interface{}) interface{} {
		s, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	})

	o.Set("log", func(x interface{}) interface{} {
		i.logger().Info("story log", "value", x)
		return x
	})

	i.runtime = o
	return o
}

func (i *Interpreter) compile(code string) (*goja.Program, error) {
	if p, have := i.compiled[code]; have {
		return p, nil
	}
	p, err := goja.Compile("", code, false)
	if err != nil {
		return nil, err
	}
	if i.compiled == nil {
		i.compiled = make(map[string]*goja.Program)
	}
	i.compiled[code] = p
	return p, nil
}

// Load runs a story script in the runtime.  Top-level
// require("name") statements are replaced with the named libraries
// first.
func (i *Interpreter) Load(ctx context.Context, src string) error {
	src, err := InlineRequires(ctx, src, i.ProvideLibrary)
	if err != nil {
		return err
	}

	i.Lock()
	defer i.Unlock()

	p, err := goja.Compile("", src, false)
	if err != nil {
		return err
	}
	_, err = i.run(ctx, i.rt(), p)
	return err
}

// Eval implements core.Evaluator.
//
// The code sees State.variables, TempVariables, setup, settings, and
// every function in scope.Funcs.  Changes to the first four are
// written back to the scope.
func (i *Interpreter) Eval(ctx context.Context, code string, scope *core.Scope) (interface{}, error) {
	i.Lock()
	defer i.Unlock()

	p, err := i.compile(code)
	if err != nil {
		return nil, err
	}

	o := i.rt()
	if scope == nil {
		scope = core.NewScope()
	}

	var (
		variables = toJS(o, map[string]interface{}(scope.Story))
		temp      = toJS(o, map[string]interface{}(scope.Temp))
		setup     = toJS(o, scope.Setup)
		settings  = toJS(o, scope.Settings)
		state     = o.NewObject()
	)
	state.Set("variables", variables)
	o.Set("State", state)
	o.Set("TempVariables", temp)
	o.Set("setup", setup)
	o.Set("settings", settings)
	for name, f := range scope.Funcs {
		o.Set(name, f)
	}

	v, err := i.run(ctx, o, p)

	// Write back even after an error.  The code might have made
	// changes before it failed.
	scope.Story.Replace(export(o, state.Get("variables")))
	scope.Temp.Replace(export(o, o.Get("TempVariables")))
	if scope.Setup != nil {
		replace(scope.Setup, export(o, o.Get("setup")))
	}
	if scope.Settings != nil {
		replace(scope.Settings, export(o, o.Get("settings")))
	}

	if err != nil {
		return nil, err
	}
	return fromJS(o, v), nil
}

func (i *Interpreter) run(ctx context.Context, o *goja.Runtime, p *goja.Program) (goja.Value, error) {
	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ictx.Done()
		if ctx.Err() != nil {
			o.Interrupt(InterruptedMessage)
		}
	}()

	v, err := o.RunProgram(p)
	cancel()
	<-done
	// The runtime is reused, so a late interrupt must not leak
	// into the next run.
	o.ClearInterrupt()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", Interrupted, ctx.Err())
			}
			return nil, Interrupted
		}
		var ex *goja.Exception
		if errors.As(err, &ex) {
			return nil, errors.New(ex.Value().String())
		}
		return nil, err
	}
	return v, nil
}

func replace(m map[string]interface{}, with map[string]interface{}) {
	for k := range m {
		delete(m, k)
	}
	for k, v := range with {
		m[k] = v
	}
}
