package noop

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Comcast/tale/core"
)

func TestLiterals(t *testing.T) {
	i := &Interpreter{Silent: true}
	ctx := context.Background()

	tests := []struct {
		code string
		want interface{}
	}{
		{`42`, 42.0},
		{` -1.5; `, -1.5},
		{`"tacos"`, "tacos"},
		{`'queso\n'`, "queso\n"},
		{`true`, true},
		{`false`, false},
		{`null`, nil},
		{`[1,"a"]`, []interface{}{1.0, "a"}},
		{`{"likes":"chips"}`, map[string]interface{}{"likes": "chips"}},
	}
	for _, test := range tests {
		got, err := i.Eval(ctx, test.code, nil)
		if err != nil {
			t.Fatalf("%s: %s", test.code, err)
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Fatalf("%s: got %#v, wanted %#v", test.code, got, test.want)
		}
	}

	if x, _ := i.Eval(ctx, "undefined", nil); !core.IsUndefined(x) {
		t.Fatalf("didn't want %#v", x)
	}
}

func TestVariables(t *testing.T) {
	i := &Interpreter{Silent: true}
	scope := core.NewScope()
	scope.Story["gold"] = 3.0
	scope.Temp["i"] = "x"

	if x, err := i.Eval(context.Background(), "State.variables.gold", scope); err != nil || x != 3.0 {
		t.Fatalf("got %#v, %v", x, err)
	}
	if x, err := i.Eval(context.Background(), "TempVariables.i", scope); err != nil || x != "x" {
		t.Fatalf("got %#v, %v", x, err)
	}
	if x, _ := i.Eval(context.Background(), "State.variables.nope", scope); !core.IsUndefined(x) {
		t.Fatalf("didn't want %#v", x)
	}
}

func TestRefuses(t *testing.T) {
	i := &Interpreter{Silent: true}
	for _, code := range []string{"1 + 2", "State.variables.gold = 1", "alert()"} {
		if _, err := i.Eval(context.Background(), code, core.NewScope()); !errors.Is(err, ErrNotLiteral) {
			t.Fatalf("%s: surprised by %v", code, err)
		}
	}
}
