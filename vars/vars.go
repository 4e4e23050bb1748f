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

// Package vars resolves variable references such as
// $obj.a[1]["b"] or _tmp[$i] against a core.Scope.
//
// A reference starts with a sigil: $ names a story variable, and _
// names a temporary variable.  Zero or more property accesses
// follow: .name, [0], ["name"], ['name'], or [$other], where the
// embedded variable is resolved first.
package vars

import (
	"strconv"
	"strings"

	"github.com/Comcast/tale/core"

	"github.com/dlclark/regexp2"
)

var segment = regexp2.MustCompile(`^(?:[$_]([$A-Z_a-z][$0-9A-Z_a-z]*)|\.([$A-Z_a-z][$0-9A-Z_a-z]*)|\[(?:(?:"((?:\\.|[^"\\])+)")|(?:'((?:\\.|[^'\\])+)')|([$_][$A-Z_a-z].*)|(\d+))\])`, regexp2.None)

// Path is a resolved variable reference.
type Path struct {
	// Store is the story store for $ references and the
	// temporary store otherwise.
	Store core.Store

	// Names is the property chain.  The first name is the
	// variable itself.  Numeric indexes are float64s.
	Names []interface{}
}

// Resolve parses text.  It returns nil if the text isn't entirely a
// variable reference.
func Resolve(scope *core.Scope, text string) *Path {
	if text == "" {
		return nil
	}
	p := &Path{
		Store: scope.Temp,
	}
	if text[0] == '$' {
		p.Store = scope.Story
	}

	for {
		m, err := segment.FindStringMatch(text)
		if err != nil || m == nil {
			break
		}
		text = text[len(m.String()):]

		switch {
		case participated(m, 1):
			p.Names = append(p.Names, group(m, 1))
		case participated(m, 2):
			p.Names = append(p.Names, group(m, 2))
		case participated(m, 3):
			p.Names = append(p.Names, group(m, 3))
		case participated(m, 4):
			p.Names = append(p.Names, group(m, 4))
		case participated(m, 5):
			p.Names = append(p.Names, Get(scope, group(m, 5)))
		case participated(m, 6):
			n, _ := strconv.ParseFloat(group(m, 6), 64)
			p.Names = append(p.Names, n)
		}
		if text == "" {
			break
		}
	}

	if text != "" || len(p.Names) == 0 {
		return nil
	}
	return p
}

func participated(m *regexp2.Match, i int) bool {
	g := m.GroupByNumber(i)
	return g != nil && len(g.Captures) > 0 && g.Length > 0
}

func group(m *regexp2.Match, i int) string {
	return m.GroupByNumber(i).String()
}

// Get returns the value of the reference or core.Undefined when any
// step along the way is missing.
func Get(scope *core.Scope, text string) interface{} {
	p := Resolve(scope, text)
	if p == nil {
		return core.Undefined
	}
	return p.Get()
}

// Set assigns the reference.  It returns false if the reference is
// malformed or if a container along the path doesn't exist.
// Containers are never created.
func Set(scope *core.Scope, text string, x interface{}) bool {
	p := Resolve(scope, text)
	if p == nil {
		return false
	}
	return p.Set(x)
}

// Has reports whether the reference currently has a defined value.
func Has(scope *core.Scope, text string) bool {
	return !core.IsUndefined(Get(scope, text))
}

// Delete removes the last step of the reference.
func Delete(scope *core.Scope, text string) bool {
	p := Resolve(scope, text)
	if p == nil {
		return false
	}
	return p.Delete()
}

// Get walks the path.
func (p *Path) Get() interface{} {
	var x interface{} = p.Store
	for _, name := range p.Names {
		y, ok := Property(x, name)
		if !ok {
			return core.Undefined
		}
		x = y
	}
	return x
}

// Set walks all but the last name and assigns the last one.
func (p *Path) Set(v interface{}) bool {
	last := len(p.Names) - 1
	containers := make([]interface{}, 0, len(p.Names))
	var x interface{} = p.Store
	containers = append(containers, x)
	for _, name := range p.Names[:last] {
		y, ok := Property(x, name)
		if !ok {
			return false
		}
		x = y
		containers = append(containers, x)
	}

	// Assigning past the end of an array grows it, and the grown
	// array has to be stored back into its own container.
	for i := last; 0 <= i; i-- {
		grown, ok := assign(containers[i], p.Names[i], v)
		if !ok {
			return false
		}
		if grown == nil {
			return true
		}
		v = grown
	}
	return true
}

// Delete removes the last name from its container.
func (p *Path) Delete() bool {
	last := len(p.Names) - 1
	var x interface{} = p.Store
	for _, name := range p.Names[:last] {
		y, ok := Property(x, name)
		if !ok {
			return false
		}
		x = y
	}
	key := core.ToString(p.Names[last])
	switch vv := x.(type) {
	case core.Store:
		return vv.Delete(key)
	case map[string]interface{}:
		_, have := vv[key]
		delete(vv, key)
		return have
	case []interface{}:
		if i, ok := index(p.Names[last]); ok && i < len(vv) {
			vv[i] = core.Undefined
			return true
		}
	}
	return false
}

// Property reads one property the way JavaScript would.  The second
// return value is false when the property is missing or undefined.
func Property(x interface{}, name interface{}) (interface{}, bool) {
	var y interface{}
	var have bool
	switch vv := x.(type) {
	case core.Store:
		y, have = vv[core.ToString(name)]
	case map[string]interface{}:
		y, have = vv[core.ToString(name)]
	case []interface{}:
		if s, is := name.(string); is && s == "length" {
			return float64(len(vv)), true
		}
		if i, ok := index(name); ok && i < len(vv) {
			y, have = vv[i], true
		}
	case string:
		rs := []rune(vv)
		if s, is := name.(string); is && s == "length" {
			return float64(len(rs)), true
		}
		if i, ok := index(name); ok && i < len(rs) {
			y, have = string(rs[i]), true
		}
	}
	if !have || core.IsUndefined(y) {
		return core.Undefined, false
	}
	return y, true
}

// assign sets name in x.  A non-nil first return value is an array
// that had to grow and replaces x in its own container.
func assign(x interface{}, name interface{}, v interface{}) (interface{}, bool) {
	switch vv := x.(type) {
	case core.Store:
		vv[core.ToString(name)] = v
		return nil, true
	case map[string]interface{}:
		vv[core.ToString(name)] = v
		return nil, true
	case []interface{}:
		i, ok := index(name)
		if !ok {
			return nil, false
		}
		if i < len(vv) {
			vv[i] = v
			return nil, true
		}
		for len(vv) < i {
			vv = append(vv, core.Undefined)
		}
		return append(vv, v), true
	}
	return nil, false
}

func index(name interface{}) (int, bool) {
	switch vv := name.(type) {
	case float64:
		if vv < 0 || vv != float64(int(vv)) {
			return 0, false
		}
		return int(vv), true
	case int:
		return vv, 0 <= vv
	case string:
		if vv == "" || strings.TrimLeft(vv, "0123456789") != "" {
			return 0, false
		}
		n, err := strconv.Atoi(vv)
		return n, err == nil
	}
	return 0, false
}
