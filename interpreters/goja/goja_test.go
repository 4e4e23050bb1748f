package goja

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/tale/core"
	. "github.com/Comcast/tale/util/testutil"
)

func eval(t *testing.T, i *Interpreter, scope *core.Scope, code string) interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	x, err := i.Eval(ctx, code, scope)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestEvalSimple(t *testing.T) {
	i := NewInterpreter()

	if x := eval(t, i, nil, `1 + 2`); x != 3.0 {
		t.Fatalf("wanted 3 but got %#v", x)
	}
	if x := eval(t, i, nil, `"chips" + "queso"`); x != "chipsqueso" {
		t.Fatalf("didn't want %#v", x)
	}
	if x := eval(t, i, nil, `null`); x != nil {
		t.Fatalf("wanted nil but got %#v", x)
	}
	if x := eval(t, i, nil, `undefined`); !core.IsUndefined(x) {
		t.Fatalf("wanted undefined but got %#v", x)
	}
}

func TestEvalWriteBack(t *testing.T) {
	i := NewInterpreter()
	scope := core.NewScope()
	scope.Story["gold"] = 5.0
	scope.Story["pack"] = []interface{}{"rope"}

	eval(t, i, scope, `
State.variables.gold += 2;
State.variables.pack.push("lamp");
State.variables.likes = {food: "tacos", n: 3};
TempVariables.i = 1;
`)

	want := Dwimjs(`{"gold":7,"pack":["rope","lamp"],"likes":{"food":"tacos","n":3}}`)
	if got := map[string]interface{}(scope.Story); !reflect.DeepEqual(got, want) {
		t.Fatalf("%s != %s", JS(got), JS(want))
	}
	if x := scope.Temp["i"]; x != 1.0 {
		t.Fatalf("didn't want %#v", x)
	}

	// Variables are copies, so a later change to the store
	// doesn't reach an earlier result.
	x := eval(t, i, scope, `State.variables.pack`)
	scope.Story["pack"].([]interface{})[0] = "string"
	if got := x.([]interface{})[0]; got != "rope" {
		t.Fatalf("didn't want %#v", got)
	}
}

func TestEvalFuncs(t *testing.T) {
	i := NewInterpreter()
	scope := core.NewScope()
	scope.Funcs["double"] = func(x float64) float64 {
		return 2 * x
	}

	if x := eval(t, i, scope, `double(21)`); x != 42.0 {
		t.Fatalf("wanted 42 but got %#v", x)
	}
}

func TestEvalSetup(t *testing.T) {
	i := NewInterpreter()
	scope := core.NewScope()
	scope.Setup["price"] = 10.0

	if x := eval(t, i, scope, `setup.price * 2`); x != 20.0 {
		t.Fatalf("wanted 20 but got %#v", x)
	}
	eval(t, i, scope, `setup.tax = 1`)
	if x := scope.Setup["tax"]; x != 1.0 {
		t.Fatalf("didn't want %#v", x)
	}
}

func TestEvalTimeout(t *testing.T) {
	i := NewInterpreter()
	i.Testing = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := i.Eval(ctx, `for (;;) { sleep(10); }`, nil)
	if err == nil {
		t.Fatal("didn't timeout")
	}
	if !errors.Is(err, Interrupted) {
		t.Fatalf("surprised by \"%s\"", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("surprised by \"%s\"", err)
	}

	// The runtime still works.
	if x := eval(t, i, nil, `1`); x != 1.0 {
		t.Fatalf("wanted 1 but got %#v", x)
	}
}

func TestEvalError(t *testing.T) {
	i := NewInterpreter()

	_, err := i.Eval(context.Background(), `likes + tacos`, nil)
	if err == nil {
		t.Fatal("didn't protest")
	}
	if !strings.HasPrefix(err.Error(), "ReferenceError") {
		t.Fatalf("surprised by \"%s\"", err)
	}

	if _, err = i.Eval(context.Background(), `(`, nil); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestEvalFunction(t *testing.T) {
	i := NewInterpreter()

	x := eval(t, i, nil, `(function(a, b) { return a + b; })`)
	f, is := x.(core.Callable)
	if !is {
		t.Fatalf("%#v (%T) isn't callable", x, x)
	}
	y, err := f.Call(1.0, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if y != 3.0 {
		t.Fatalf("wanted 3 but got %#v", y)
	}
}

func TestCronNextGood(t *testing.T) {
	i := NewInterpreter()
	x := eval(t, i, nil, `cronNext("* 0 * * *")`)
	s, is := x.(string)
	if !is {
		t.Fatalf("%#v is a %T, not a %T", x, x, s)
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		t.Fatal(err)
	}
}

func TestCronNextBad(t *testing.T) {
	i := NewInterpreter()
	if _, err := i.Eval(context.Background(), `cronNext("bad")`, nil); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestLoad(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `function foo() { return "chips"; }`,
	})

	src := `require("foo");
function likes() { return foo() + " and queso"; }
`
	if err := i.Load(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	if x := eval(t, i, nil, `likes()`); x != "chips and queso" {
		t.Fatalf("didn't want %#v", x)
	}
}

func TestInlineRequires(t *testing.T) {
	provider := func(ctx context.Context, name string) (string, error) {
		switch name {
		case "a":
			return "var a = 1;", nil
		case "b":
			return "var b = 2;", nil
		}
		return "", errors.New("no " + name)
	}

	got, err := InlineRequires(context.Background(), `require("a"); require("b"); var c = a + b;`, provider)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "require") {
		t.Fatalf("didn't inline all of %q", got)
	}
	for _, want := range []string{"var a = 1;", "var b = 2;", "var c = a + b;"} {
		if !strings.Contains(got, want) {
			t.Fatalf("%q doesn't have %q", got, want)
		}
	}

	if _, err = InlineRequires(context.Background(), `require("z");`, provider); err == nil {
		t.Fatal("didn't protest")
	}
}

func benchmarkEval(b *testing.B, same bool) {
	i := NewInterpreter()
	scope := core.NewScope()
	scope.Story["n"] = 0.0
	ctx := context.Background()

	for n := 0; n < b.N; n++ {
		code := `State.variables.n + 1`
		if !same {
			code += strings.Repeat(" ", n%100)
		}
		if _, err := i.Eval(ctx, code, scope); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvalCached(b *testing.B) {
	benchmarkEval(b, true)
}

func BenchmarkEvalVaried(b *testing.B) {
	benchmarkEval(b, false)
}
