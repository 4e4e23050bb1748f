package twinescript

import (
	"testing"
)

func TestDesugar(t *testing.T) {
	tests := map[string]string{
		`$x to 3`:                    `State.variables.x = 3`,
		`_i lt $n.length`:            `TempVariables.i < State.variables.n.length`,
		`$a is not $b`:               `State.variables.a !== State.variables.b`,
		`$a isnot $b and not $c`:     `State.variables.a !== State.variables.b && ! State.variables.c`,
		`def $x or ndef _y`:          `"undefined" !== typeof State.variables.x || "undefined" === typeof TempVariables.y`,
		`"$x is to" + $y`:            `"$x is to" + State.variables.y`,
		`'it''s' eq ""`:              `'it''s' == ""`,
		`$obj["to"] gte 2`:           `State.variables.obj["to"] >= 2`,
		`$ ("#id")`:                  `$ ("#id")`,
		`island is "is"`:             `island === "is"`,
		`$x.to`:                      `State.variables.x.to`,
		`setup.items[_i].name neq 1`: `setup.items[TempVariables.i].name != 1`,
	}
	for in, want := range tests {
		if got := Desugar(in); got != want {
			t.Fatalf("%s\n got  %s\n want %s", in, got, want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"hi"`:            "hi",
		`'hi'`:            "hi",
		`"a\"b"`:          `a"b`,
		`'it\'s'`:         "it's",
		`"tab\tnl\n"`:     "tab\tnl\n",
		`"\x41B"`:    "AB",
		`"\u{1F600}"`:     "\U0001F600",
		`"\uD83D\uDE00"`: "\U0001F600",
		`"\q"`:            "q",
		`"caf\u00e9"`:     "caf\u00e9",
		`"back\\slash"`:   `back\slash`,
	}
	for in, want := range tests {
		got, err := Unquote(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: %q != %q", in, got, want)
		}
	}
	for _, bad := range []string{``, `"`, `"a'`, `abc`, `"\x4"`} {
		if _, err := Unquote(bad); err == nil {
			t.Fatalf("%s: expected an error", bad)
		}
	}
}
