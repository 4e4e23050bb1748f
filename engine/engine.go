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

// Package engine plays a story.
//
// An Engine owns one History and one rendering environment.  Playing
// a passage pushes a moment and then shows it: the PassageReady
// special passage runs, the passage renders into a page with its
// link actions, and PassageDone runs.  Following a link action runs
// its setter and plays its passage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/tale/config"
	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/history"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/macros"
	"github.com/Comcast/tale/markup"
	"github.com/Comcast/tale/notify"
	"github.com/Comcast/tale/storage"
	"github.com/Comcast/tale/story"

	"golang.org/x/net/html"
)

// Special passages.
const (
	StoryInit     = "StoryInit"
	PassageReady  = "PassageReady"
	PassageDone   = "PassageDone"
	PassageHeader = "PassageHeader"
	PassageFooter = "PassageFooter"
)

// DefaultStart is the start passage when neither the configuration
// nor the story names one.
const DefaultStart = "Start"

// MaxGotos limits the <<goto>>s that one play can chain.
var MaxGotos = 100

var ErrGotoLoop = errors.New("too many consecutive <<goto>>s")

// UnknownAction is returned by Follow for an id that isn't on the
// current page.
type UnknownAction struct {
	ID int
}

func (e *UnknownAction) Error() string {
	return fmt.Sprintf("unknown link action %d", e.ID)
}

// Loader is implemented by evaluators that can run story scripts
// (passages tagged "script").
type Loader interface {
	Load(ctx context.Context, src string) error
}

// Page is a rendered passage.
type Page struct {
	Title string

	// Node is the passage element.
	Node *html.Node

	// Actions is the number of link actions on the page.
	// Follow takes ids in [0, Actions).
	Actions int

	// Errors are the inline errors from the passage and the
	// problems with the special passages.
	Errors []string

	Turn int
}

// HTML renders the passage element and its contents.
func (p *Page) HTML() string {
	if p == nil || p.Node == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, p.Node); err != nil {
		return b.String()
	}
	return b.String()
}

// Engine plays one story for one player.
type Engine struct {
	sync.Mutex

	Story  *story.Story
	Config *config.Config

	// Session, if not nil, holds the history checkpoint.
	Session storage.Session

	// Notifier, if not nil, hears about history updates.
	Notifier notify.Notifier

	// Display, if not nil, gets each page as it's shown.
	Display func(ctx context.Context, p *Page) error

	Logger *slog.Logger

	evaluator core.Evaluator
	h         *history.History
	env       *markup.Env
	actions   []*markup.LinkAction
	pending   string
	gotos     int
	page      *Page
	lastPlay  time.Time
}

// New makes an Engine.  A nil cfg means config.Default().
func New(st *story.Story, cfg *config.Config, ev core.Evaluator) (*Engine, error) {
	if st == nil {
		return nil, errors.New("no story")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		Story:     st,
		Config:    cfg,
		evaluator: ev,
		h:         history.New(cfg.History.MaxStates),
	}

	if cfg.PRNG.Enabled {
		if err := e.h.InitPRNG(cfg.PRNG.Seed, cfg.PRNG.Entropy); err != nil {
			return nil, err
		}
	}

	ms, err := macros.Standard(e)
	if err != nil {
		return nil, err
	}

	env := markup.NewEnv()
	env.Story = st
	env.Evaluator = ev
	env.Macros = ms
	env.Actions = e
	env.Played = e.h.HasPlayed
	env.Nobr = cfg.Nobr
	env.Cleanup = cfg.CleanupWikifierOutput
	env.AddVisitedLinkClass = cfg.AddVisitedLinkClass
	env.MaxLoopIterations = cfg.MaxLoopIterations
	env.IfAssignmentError = cfg.IfAssignmentError
	env.MaxDepth = cfg.MaxDepth
	env.OnMacroError = func(name, msg string) {
		macroErrors.WithLabelValues(st.Title, name).Inc()
	}
	env.Scope.Funcs = e.funcs()
	e.env = env

	e.h.Show = e.show

	return e, nil
}

func (e *Engine) logger() *slog.Logger {
	return logs.Or(e.Logger)
}

// History returns the engine's history.
func (e *Engine) History() *history.History {
	return e.h
}

// Env returns the rendering environment.
func (e *Engine) Env() *markup.Env {
	return e.env
}

// Goto plays title after the current page is shown.
func (e *Engine) Goto(title string) {
	e.pending = title
}

// AddAction implements markup.Actions.
func (e *Engine) AddAction(a *markup.LinkAction) int {
	e.actions = append(e.actions, a)
	return len(e.actions) - 1
}

// Page returns the page most recently shown.
func (e *Engine) Page() *Page {
	e.Lock()
	defer e.Unlock()
	return e.page
}

// StartPassage is the title of the first passage.
func (e *Engine) StartPassage() string {
	switch {
	case e.Config.Start != "":
		return e.Config.Start
	case e.Story.Start != "":
		return e.Story.Start
	}
	return DefaultStart
}

func (e *Engine) wire() {
	e.h.Session = e.Session
	e.h.Notifier = e.Notifier
	e.h.Logger = e.Logger
	e.env.Logger = e.Logger
}

// Start loads story scripts and widgets, runs StoryInit, and then
// either restores the session's checkpoint or plays the start
// passage.
func (e *Engine) Start(ctx context.Context) error {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0
	return e.start(ctx)
}

func (e *Engine) start(ctx context.Context) error {
	e.wire()
	log := e.logger().With("story", e.Story.Title)

	if l, is := e.evaluator.(Loader); is {
		for _, p := range e.Story.Tagged("script") {
			if err := l.Load(ctx, p.Text); err != nil {
				return fmt.Errorf("script passage %q: %w", p.Title, err)
			}
		}
	}

	e.env.Scope.Story = core.Store(e.h.Active().Variables)
	e.env.Scope.Temp = core.NewStore()

	for _, p := range e.Story.Tagged("widget") {
		if _, err := markup.WikifyEval(ctx, e.env, p.ProcessText(false)); err != nil {
			return fmt.Errorf("widget passage %q: %w", p.Title, err)
		}
	}

	if p := e.Story.Get(StoryInit); p != nil {
		if _, err := markup.WikifyEval(ctx, e.env, p.Text); err != nil {
			return fmt.Errorf("%s: %w", StoryInit, err)
		}
	}

	initial := core.Clone(e.h.Active().Variables).(map[string]interface{})
	restored, err := e.h.Restore(ctx)
	if err != nil {
		if markup.IsFatal(err) {
			return err
		}
		log.Warn("discarding session checkpoint", "error", err)
		if e.Session != nil {
			if err := e.Session.Delete(ctx, history.SessionKey); err != nil {
				return err
			}
		}
		e.h.Reset()
		e.h.Active().Variables = initial
		restored = false
	}
	if restored {
		sessionsRestored.WithLabelValues(e.Story.Title).Inc()
		log.Info("restored", "passage", e.h.Active().Title, "length", e.h.Length())
		return nil
	}

	return e.play(ctx, e.StartPassage())
}

// Restart forgets the checkpoint and the history and starts again.
// The PRNG keeps its seed.
func (e *Engine) Restart(ctx context.Context) error {
	e.Lock()
	defer e.Unlock()

	if e.Session != nil {
		if err := e.Session.Delete(ctx, history.SessionKey); err != nil {
			return err
		}
	}
	e.h.Reset()
	e.env.Scope.Setup = make(map[string]interface{})
	e.gotos = 0
	return e.start(ctx)
}

// Play pushes a moment for the passage and shows it.
func (e *Engine) Play(ctx context.Context, title string) error {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0
	return e.play(ctx, title)
}

func (e *Engine) play(ctx context.Context, title string) error {
	p, err := e.Story.Lookup(title)
	if err != nil {
		return err
	}
	if _, err := e.h.Push(ctx, history.NewMoment(p.Title, e.h.Active().Variables)); err != nil {
		return err
	}
	passagesPlayed.WithLabelValues(e.Story.Title).Inc()
	return e.show(ctx)
}

// Show renders the active moment again without changing the
// history.
func (e *Engine) Show(ctx context.Context) error {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0
	return e.show(ctx)
}

func (e *Engine) show(ctx context.Context) error {
	then := time.Now()
	m := e.h.Active()
	p, err := e.Story.Lookup(m.Title)
	if err != nil {
		return err
	}

	e.env.Scope.Story = core.Store(m.Variables)
	e.env.Scope.Temp = core.NewStore()
	e.env.Signal = markup.NoSignal
	e.actions = nil

	page := &Page{
		Title: p.Title,
		Turn:  e.h.Turns(),
	}

	if err := e.special(ctx, PassageReady, page); err != nil {
		return err
	}

	div := markup.NewElement("div",
		html.Attribute{Key: "id", Val: p.DomID()},
		html.Attribute{Key: "class", Val: "passage"},
		html.Attribute{Key: "data-passage", Val: p.Title})
	markup.AddClass(div, p.Classes()...)
	if len(p.Tags) > 0 {
		markup.SetAttr(div, "data-tags", strings.Join(p.Tags, " "))
	}

	for _, q := range []*story.Passage{e.Story.Get(PassageHeader), p, e.Story.Get(PassageFooter)} {
		if q == nil {
			continue
		}
		if _, err := markup.Render(ctx, e.env, div, q.ProcessText(e.env.Nobr), e.env.Options()); err != nil {
			return err
		}
	}

	if err := e.special(ctx, PassageDone, page); err != nil {
		return err
	}

	page.Node = div
	page.Actions = len(e.actions)
	page.Errors = append(page.Errors, markup.Errors(div)...)
	e.page = page
	e.lastPlay = time.Now()
	renderSeconds.Observe(e.lastPlay.Sub(then).Seconds())

	e.logger().Debug("shown", "passage", p.Title, "turn", page.Turn, "actions", page.Actions, "errors", len(page.Errors))

	if e.Display != nil {
		if err := e.Display(ctx, page); err != nil {
			return err
		}
	}

	if title := e.pending; title != "" {
		e.pending = ""
		if e.gotos++; MaxGotos < e.gotos {
			return ErrGotoLoop
		}
		return e.play(ctx, title)
	}
	return nil
}

// special runs a special passage if the story has it.  Its problems
// go on the page.
func (e *Engine) special(ctx context.Context, title string, page *Page) error {
	p := e.Story.Get(title)
	if p == nil {
		return nil
	}
	if _, err := markup.WikifyEval(ctx, e.env, p.Text); err != nil {
		if markup.IsFatal(err) {
			return err
		}
		e.logger().Warn("special passage", "passage", title, "error", err)
		page.Errors = append(page.Errors, title+": "+err.Error())
	}
	return nil
}

// Follow runs the link action with the given id from the current
// page.
func (e *Engine) Follow(ctx context.Context, id int) error {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0

	if id < 0 || len(e.actions) <= id {
		return &UnknownAction{ID: id}
	}
	a := e.actions[id]
	if a.Setter != nil {
		if err := a.Setter(ctx); err != nil {
			return err
		}
	}
	if a.Do != nil {
		return a.Do(ctx)
	}
	return e.play(ctx, a.Passage)
}

// Go moves through the history by offset and shows the moment
// there.  It returns false if there's no such moment.
func (e *Engine) Go(ctx context.Context, offset int) (bool, error) {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0
	return e.h.Go(ctx, offset)
}

// Save returns the whole history for a save slot.
func (e *Engine) Save() *history.State {
	e.Lock()
	defer e.Unlock()
	return e.h.MarshalForSave()
}

// Load restores a save and shows it.
func (e *Engine) Load(ctx context.Context, s *history.State) error {
	e.Lock()
	defer e.Unlock()
	e.gotos = 0
	return e.h.UnmarshalForSave(ctx, s)
}
