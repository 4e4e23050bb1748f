package core

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	for _, x := range []interface{}{nil, Undefined, false, 0.0, "", math.NaN()} {
		if Truthy(x) {
			t.Fatalf("%#v should be falsy", x)
		}
	}
	for _, x := range []interface{}{true, 1.0, "0", []interface{}{}, map[string]interface{}{}} {
		if !Truthy(x) {
			t.Fatalf("%#v should be truthy", x)
		}
	}
}

func TestToNumber(t *testing.T) {
	tests := map[string]float64{
		"42":        42,
		" 3.5 ":     3.5,
		"":          0,
		"0x10":      16,
		"1e3":       1000,
		".5":        0.5,
		"-Infinity": math.Inf(-1),
	}
	for s, want := range tests {
		if got := ToNumber(s); got != want {
			t.Fatalf("%q: %v != %v", s, got, want)
		}
	}
	for _, s := range []string{"hi", "inf", "nan", "1_000", "0x1p3", "12px"} {
		if got := ToNumber(s); !math.IsNaN(got) {
			t.Fatalf("%q: wanted NaN, got %v", s, got)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		x    interface{}
		want string
	}{
		{nil, "null"},
		{Undefined, "undefined"},
		{42.0, "42"},
		{0.25, "0.25"},
		{1e21, "1e+21"},
		{true, "true"},
		{[]interface{}{1.0, "a", nil}, "1,a,"},
		{map[string]interface{}{}, "[object Object]"},
	}
	for _, test := range tests {
		if got := ToString(test.x); got != test.want {
			t.Fatalf("%#v: %q != %q", test.x, got, test.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := map[string]interface{}{
		"a": []interface{}{1.0, map[string]interface{}{"b": 2.0}},
	}
	c := Clone(m).(map[string]interface{})
	c["a"].([]interface{})[1].(map[string]interface{})["b"] = 3.0
	if m["a"].([]interface{})[1].(map[string]interface{})["b"] != 2.0 {
		t.Fatal("clone shared structure")
	}
}

func TestNormalize(t *testing.T) {
	x := Normalize(map[interface{}]interface{}{
		"n":  int64(3),
		"xs": []interface{}{1, "two"},
	})
	m, is := x.(map[string]interface{})
	if !is {
		t.Fatalf("got %T", x)
	}
	if m["n"] != 3.0 {
		t.Fatalf("n: %#v", m["n"])
	}
	if m["xs"].([]interface{})[0] != 1.0 {
		t.Fatalf("xs: %#v", m["xs"])
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Has("x") {
		t.Fatal("empty store has x")
	}
	s.Set("x", Undefined)
	if !s.Has("x") {
		t.Fatal("Undefined value should still be present")
	}
	if !IsUndefined(s.Get("y")) {
		t.Fatal("missing key should be Undefined")
	}
	if !s.Delete("x") || s.Delete("x") {
		t.Fatal("Delete should report presence")
	}
}
