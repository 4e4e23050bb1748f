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

// Package history keeps the stack of moments a story has passed
// through.
//
// A Moment is a passage title plus a snapshot of the story variables
// taken when the passage was played.  The History pushes moments,
// lets the player navigate back and forward among them, trims the
// oldest ones when there are too many, and checkpoints itself to a
// session store every time the active moment changes.
//
// When a seedable PRNG is enabled, every moment also records how
// many random numbers had been drawn, so that returning to a moment
// replays the same sequence of random numbers.
package history

import (
	"errors"
	"fmt"

	"github.com/Comcast/tale/core"
)

// Moment is one entry in the history.
type Moment struct {
	Title     string                 `json:"title"`
	Variables map[string]interface{} `json:"variables"`

	// Pull is the number of PRNG draws made before this moment
	// became active.
	Pull int `json:"pull,omitempty"`
}

// NewMoment makes a moment with a copy of the given variables.
func NewMoment(title string, variables map[string]interface{}) *Moment {
	m := &Moment{
		Title: title,
	}
	if variables == nil {
		m.Variables = make(map[string]interface{})
	} else {
		m.Variables = core.Clone(variables).(map[string]interface{})
	}
	return m
}

// Clone makes a deep copy.
func (m *Moment) Clone() *Moment {
	c := NewMoment(m.Title, m.Variables)
	c.Pull = m.Pull
	return c
}

// toMap gives the moment's JSON shape, which is what the delta
// encoding works on.
func (m *Moment) toMap() map[string]interface{} {
	acc := map[string]interface{}{
		"title":     m.Title,
		"variables": markUndefined(core.Clone(m.Variables)),
	}
	if m.Pull != 0 {
		acc["pull"] = float64(m.Pull)
	}
	return acc
}

func momentFromMap(x interface{}) (*Moment, error) {
	if m, is := x.(*Moment); is {
		return m.Clone(), nil
	}
	acc, is := x.(map[string]interface{})
	if !is {
		return nil, fmt.Errorf("bad moment (%T)", x)
	}
	title, is := acc["title"].(string)
	if !is {
		return nil, errors.New("moment has no title")
	}
	m := &Moment{
		Title:     title,
		Variables: make(map[string]interface{}),
	}
	switch vs := acc["variables"].(type) {
	case map[string]interface{}:
		m.Variables = reviveUndefined(core.Normalize(core.Clone(vs))).(map[string]interface{})
	case nil:
	default:
		return nil, fmt.Errorf("bad moment variables (%T)", vs)
	}
	if p, have := acc["pull"]; have {
		m.Pull = int(core.ToNumber(p))
	}
	return m, nil
}

// JSON has no undefined, so a variable holding core.Undefined is
// written as this pair and revived when the moment is read back.
var undefinedMark = [2]string{"(revive:eval)", "undefined"}

func markUndefined(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[string]interface{}:
		for k, v := range vv {
			vv[k] = markUndefined(v)
		}
	case core.Store:
		for k, v := range vv {
			vv[k] = markUndefined(v)
		}
	case []interface{}:
		for i, v := range vv {
			vv[i] = markUndefined(v)
		}
	default:
		if core.IsUndefined(x) {
			return []interface{}{undefinedMark[0], undefinedMark[1]}
		}
	}
	return x
}

func reviveUndefined(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[string]interface{}:
		for k, v := range vv {
			vv[k] = reviveUndefined(v)
		}
	case []interface{}:
		if len(vv) == 2 && vv[0] == undefinedMark[0] && vv[1] == undefinedMark[1] {
			return core.Undefined
		}
		for i, v := range vv {
			vv[i] = reviveUndefined(v)
		}
	}
	return x
}

// DeltaEncode stores the first moment whole and every other moment
// as a Diff against its predecessor.
func DeltaEncode(moments []*Moment) []interface{} {
	delta := make([]interface{}, 0, len(moments))
	var prev map[string]interface{}
	for i, m := range moments {
		cur := m.toMap()
		if i == 0 {
			delta = append(delta, cur)
		} else if d := Diff(prev, cur); d != nil {
			delta = append(delta, d)
		} else {
			delta = append(delta, nil)
		}
		prev = cur
	}
	return delta
}

// DeltaDecode reverses DeltaEncode.
func DeltaDecode(delta []interface{}) ([]*Moment, error) {
	moments := make([]*Moment, 0, len(delta))
	var prev interface{}
	for i, d := range delta {
		var cur interface{}
		if i == 0 {
			if m, is := d.(*Moment); is {
				d = m.toMap()
			}
			cur = core.Clone(d)
		} else {
			var err error
			if cur, err = Patch(prev, d); err != nil {
				return nil, fmt.Errorf("delta %d: %w", i, err)
			}
		}
		m, err := momentFromMap(cur)
		if err != nil {
			return nil, fmt.Errorf("delta %d: %w", i, err)
		}
		moments = append(moments, m)
		prev = cur
	}
	return moments, nil
}
