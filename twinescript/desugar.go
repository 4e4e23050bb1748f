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

// Package twinescript translates TwineScript into plain JavaScript.
//
// TwineScript is JavaScript plus a few conveniences: $name and _name
// variable sigils and word operators (to, eq, is, isnot, gt, and,
// not, def, ...).  Desugar rewrites those in place and leaves
// everything else, including string literals, alone.
package twinescript

import (
	"github.com/dlclark/regexp2"
)

// sugar maps TwineScript tokens to JavaScript.
var sugar = map[string]string{
	"$":     "State.variables.",
	"_":     "TempVariables.",
	"to":    "=",
	"eq":    "==",
	"neq":   "!=",
	"is":    "===",
	"isnot": "!==",
	"gt":    ">",
	"gte":   ">=",
	"lt":    "<",
	"lte":   "<=",
	"and":   "&&",
	"or":    "||",
	"not":   "!",
	"def":   `"undefined" !== typeof`,
	"ndef":  `"undefined" === typeof`,
}

var (
	tokens = regexp2.MustCompile(`(""|'')`+
		`|("(?:\\.|[^"\\])+")`+
		`|('(?:\\.|[^'\\])+')`+
		`|([=+\-*\/%<>&\|\^~!?:,;\(\)\[\]{}]+)`+
		`|([^"'=+\-*\/%<>&\|\^~!?:,;\(\)\[\]{}\s]+)`, regexp2.None)

	variable = regexp2.MustCompile(`^[$_][$A-Z_a-z][$0-9A-Z_a-z]*`, regexp2.None)

	isNot = regexp2.MustCompile(`^\s+not\b`, regexp2.None)
)

// Desugar returns code with TwineScript's sugar replaced by
// JavaScript.
func Desugar(code string) string {
	src := []rune(code)
	acc := make([]rune, 0, len(src)+16)
	at := 0 // next unconsumed rune of src

	pos := 0
	for pos <= len(src) {
		m, err := tokens.FindRunesMatchStartingAt(src, pos)
		if err != nil || m == nil {
			break
		}
		pos = m.Index + m.Length
		g := m.GroupByNumber(5)
		if g == nil || len(g.Captures) == 0 {
			continue
		}

		token := g.String()
		switch {
		case token == "$" || token == "_":
			continue
		case matches(variable, token):
			token = token[:1]
		case token == "is":
			if ws, err := isNot.FindRunesMatchStartingAt(src[pos:], 0); err == nil && ws != nil {
				token = "isnot"
				pos += ws.Length
			}
		}

		replacement, have := sugar[token]
		if !have {
			continue
		}
		acc = append(acc, src[at:m.Index]...)
		acc = append(acc, []rune(replacement)...)
		switch token {
		case "isnot":
			at = pos
		default:
			at = m.Index + len([]rune(token))
		}
	}

	acc = append(acc, src[at:]...)
	return string(acc)
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
