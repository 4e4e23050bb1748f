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

// Package macros is the standard macro library: conditionals,
// loops, variables, output, passage inclusion, navigation, and
// widgets.
package macros

import (
	"strings"

	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/history"
	"github.com/Comcast/tale/markup"
)

// Navigator is what <<goto>>, <<back>>, and <<return>> need from a
// running story.
type Navigator interface {
	History() *history.History

	// Goto plays the passage once the current render finishes.
	Goto(title string)
}

// Install adds the standard macros to ms.  The navigation macros
// report an error when nav is nil.
func Install(ms *markup.Macros, nav Navigator) error {
	defs := []struct {
		names []string
		m     *markup.Macro
	}{
		{[]string{"if"}, &markup.Macro{Tags: []string{"elseif", "else"}, SkipArgs: true, Handler: ifMacro}},
		{[]string{"for"}, &markup.Macro{Container: true, SkipArgs: true, Handler: forMacro}},
		{[]string{"break", "continue"}, &markup.Macro{SkipArgs: true, Handler: loopSignal}},
		{[]string{"set", "run"}, &markup.Macro{SkipArgs: true, Handler: set}},
		{[]string{"unset"}, &markup.Macro{SkipArgs: true, Handler: unset}},
		{[]string{"print", "=", "-"}, &markup.Macro{SkipArgs: true, Handler: printMacro}},
		{[]string{"nobr"}, &markup.Macro{Container: true, SkipArgs: true, Handler: nobr}},
		{[]string{"silently"}, &markup.Macro{Container: true, SkipArgs: true, Handler: silently}},
		{[]string{"display"}, &markup.Macro{Handler: display}},
		{[]string{"goto"}, &markup.Macro{Handler: gotoMacro(nav)}},
		{[]string{"back", "return"}, &markup.Macro{Handler: backOrReturn(nav)}},
		{[]string{"widget"}, &markup.Macro{Container: true, Handler: widget}},
	}
	for _, d := range defs {
		if err := ms.Add(d.m, d.names...); err != nil {
			return err
		}
	}
	return nil
}

// Standard returns a new registry holding the standard macros.
func Standard(nav Navigator) (*markup.Macros, error) {
	ms := markup.NewMacros()
	if err := Install(ms, nav); err != nil {
		return nil, err
	}
	return ms, nil
}

// passageArg returns the passage named by a macro argument, which
// may be link or image markup.
func passageArg(x interface{}) string {
	switch vv := x.(type) {
	case *markup.Link:
		return vv.Link
	case *markup.Image:
		return vv.Link
	}
	return core.ToString(x)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func joinErrors(msgs []string) string {
	return strings.Join(msgs, "; ")
}
