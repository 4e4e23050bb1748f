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

// Package markup renders story markup into HTML nodes.
//
// A Wikifier scans source text with the compiled alternation of an
// ordered set of rules (a profile of a Registry).  At each match it
// emits the preceding text and calls the rule's handler, which can
// append nodes, consume more input, or recurse with SubWikify up to a
// terminator.  The macro rule parses <<name args>> tags, including
// bodies with child tags, and calls handlers from a Macros registry.
package markup

import (
	"context"
	"errors"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
)

// Options control one render.
type Options struct {
	// Profile names the set of rules to use.
	Profile string

	// Nobr suppresses <br> for line breaks.
	Nobr bool

	// IgnoreTerminatorCase makes terminators case-insensitive.
	IgnoreTerminatorCase bool
}

// Wikifier is the state of one render.
type Wikifier struct {
	Env     *Env
	Source  []rune
	Output  *html.Node
	Options Options

	// Context is the enclosing macro invocation, if any.
	Context *MacroContext

	// NextMatch is the position of the first unconsumed rune.
	NextMatch int

	// MatchStart, MatchLength, and MatchText describe the most
	// recent rule or terminator match.
	MatchStart  int
	MatchLength int
	MatchText   string
}

// New makes a Wikifier for text that will render into a fresh
// fragment.
func New(env *Env, text string, opts Options) *Wikifier {
	if opts.Profile == "" {
		opts.Profile = ProfileAll
	}
	return &Wikifier{
		Env:     env,
		Source:  []rune(text),
		Output:  NewFragment(),
		Options: opts,
	}
}

// Render renders text into dest, or into a new fragment if dest is
// nil, and returns the node that received the output.
//
// Markup errors appear inline in the output.  The returned error is
// reserved for failures of the render itself: a failing rule, a
// cancelled context, or ErrTooDeep.
func Render(ctx context.Context, env *Env, dest *html.Node, text string, opts Options) (*html.Node, error) {
	return render(ctx, env, dest, text, opts, nil)
}

func render(ctx context.Context, env *Env, dest *html.Node, text string, opts Options, parent *MacroContext) (*html.Node, error) {
	w := New(env, text, opts)
	if dest != nil {
		w.Output = dest
	}
	w.Context = parent

	env.depth++
	defer func() {
		env.depth--
	}()

	limit := env.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if env.depth > limit {
		return w.Output, ErrTooDeep
	}

	if err := w.SubWikify(ctx, w.Output, ""); err != nil {
		return w.Output, err
	}

	if env.depth == 1 && env.Cleanup {
		convertBreaks(w.Output)
	}

	return w.Output, nil
}

// WikifyEval renders text and fails with the message of the first
// inline error, if any.
func WikifyEval(ctx context.Context, env *Env, text string) (*html.Node, error) {
	out, err := Render(ctx, env, nil, text, env.Options())
	if err != nil {
		return out, err
	}
	if msg, has := FirstError(out); has {
		return out, errors.New(replace(errorPrefix, msg, ""))
	}
	return out, nil
}

var errorPrefix = regexp2.MustCompile(`^(?:(?:Uncaught\s+)?Error:\s+)+`, regexp2.None)

func replace(re *regexp2.Regexp, s, with string) string {
	r, err := re.Replace(s, with, -1, -1)
	if err != nil {
		return s
	}
	return r
}

// SubWikify renders from NextMatch into output until the terminator
// (a regular expression source) matches or the input ends.
func (w *Wikifier) SubWikify(ctx context.Context, output *html.Node, terminator string) error {
	return w.SubWikifyWith(ctx, output, terminator, w.Options)
}

// SubWikifyWith is SubWikify with different options for the duration
// of the call.
func (w *Wikifier) SubWikifyWith(ctx context.Context, output *html.Node, terminator string, opts Options) error {
	oldOutput, oldOptions := w.Output, w.Options
	w.Output, w.Options = output, opts
	defer func() {
		w.Output, w.Options = oldOutput, oldOptions
	}()

	profile, err := w.Env.Rules.Profile(opts.Profile)
	if err != nil {
		return err
	}

	var term *regexp2.Regexp
	if terminator != "" {
		if term, err = compile("(?:"+terminator+")", opts.IgnoreTerminatorCase); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rm := w.find(profile.Regexp)
		var tm *regexp2.Match
		if term != nil {
			tm = w.find(term)
		}

		if tm != nil && (rm == nil || tm.Index <= rm.Index) {
			if tm.Index > w.NextMatch {
				w.OutputText(w.Output, w.NextMatch, tm.Index)
			}
			w.setMatch(tm)
			return nil
		}

		if rm == nil {
			break
		}

		if rm.Index > w.NextMatch {
			w.OutputText(w.Output, w.NextMatch, rm.Index)
		}
		w.setMatch(rm)

		rule := profile.Which(rm)
		if rule == nil {
			// A rule matched the empty string.  Skip a rune.
			w.OutputText(w.Output, w.MatchStart, w.MatchStart+1)
			w.NextMatch = w.MatchStart + 1
			continue
		}
		if err := rule.Handler(ctx, w); err != nil {
			return err
		}

		if w.Env.Signal != NoSignal {
			break
		}
	}

	if w.Env.Signal == NoSignal {
		if w.NextMatch < len(w.Source) {
			w.OutputText(w.Output, w.NextMatch, len(w.Source))
			w.NextMatch = len(w.Source)
		}
	} else if last := w.Output.LastChild; IsElement(last, "br") {
		w.Output.RemoveChild(last)
	}

	return nil
}

func (w *Wikifier) find(re *regexp2.Regexp) *regexp2.Match {
	if w.NextMatch > len(w.Source) {
		return nil
	}
	m, err := re.FindRunesMatchStartingAt(w.Source, w.NextMatch)
	if err != nil {
		w.Env.logger().Warn("match failed", "error", err)
		return nil
	}
	return m
}

func (w *Wikifier) setMatch(m *regexp2.Match) {
	w.MatchStart = m.Index
	w.MatchLength = m.Length
	w.MatchText = m.String()
	w.NextMatch = end(m)
}

// OutputText appends the source text between from and to.
func (w *Wikifier) OutputText(dest *html.Node, from, to int) {
	if to > len(w.Source) {
		to = len(w.Source)
	}
	if from >= to {
		return
	}
	AppendText(dest, string(w.Source[from:to]))
}

// Slice returns the source text between from and to.
func (w *Wikifier) Slice(from, to int) string {
	if to > len(w.Source) {
		to = len(w.Source)
	}
	if from >= to {
		return ""
	}
	return string(w.Source[from:to])
}

// Wikify renders text into dest with a new Wikifier that shares this
// one's Env, options, and macro context.
func (w *Wikifier) Wikify(ctx context.Context, dest *html.Node, text string) error {
	opts := w.Options
	opts.IgnoreTerminatorCase = false
	_, err := render(ctx, w.Env, dest, text, opts, w.Context)
	return err
}
