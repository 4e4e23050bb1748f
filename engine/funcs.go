package engine

import (
	"errors"
	"math"
	"time"

	"github.com/Comcast/tale/core"
)

// funcs are the story functions author code can call.
//
// They run during rendering, when the engine is already locked.
func (e *Engine) funcs() map[string]interface{} {
	return map[string]interface{}{
		"either":      e.either,
		"random":      e.random,
		"randomFloat": e.randomFloat,
		"hasVisited":  e.hasVisited,
		"lastVisited": e.lastVisited,
		"visited":     e.visited,
		"visitedTags": e.visitedTags,
		"passage":     e.passage,
		"previous":    e.previous,
		"turns":       e.turns,
		"time":        e.time,
		"tags":        e.tags,
	}
}

// flatten concatenates array arguments, one level deep.
func flatten(args []interface{}) []interface{} {
	var acc []interface{}
	for _, x := range args {
		x = core.Normalize(x)
		if xs, is := x.([]interface{}); is {
			acc = append(acc, xs...)
			continue
		}
		acc = append(acc, x)
	}
	return acc
}

func insufficient(name string) error {
	return errors.New(name + " called with insufficient parameters")
}

// either returns one of its arguments at random.
func (e *Engine) either(args ...interface{}) interface{} {
	xs := flatten(args)
	if len(xs) == 0 {
		return nil
	}
	return xs[int(e.h.Random()*float64(len(xs)))]
}

func bounds(name string, args []interface{}) (float64, float64, error) {
	var min, max float64
	switch len(args) {
	case 0:
		return 0, 0, insufficient(name)
	case 1:
		max = core.ToNumber(core.Normalize(args[0]))
	default:
		min, max = core.ToNumber(core.Normalize(args[0])), core.ToNumber(core.Normalize(args[1]))
	}
	if max < min {
		min, max = max, min
	}
	return min, max, nil
}

// random returns a whole number in [min, max].
func (e *Engine) random(args ...interface{}) (float64, error) {
	min, max, err := bounds("random", args)
	if err != nil {
		return 0, err
	}
	return math.Floor(e.h.Random()*(max-min+1)) + min, nil
}

// randomFloat returns a number in [min, max).
func (e *Engine) randomFloat(args ...interface{}) (float64, error) {
	min, max, err := bounds("randomFloat", args)
	if err != nil {
		return 0, err
	}
	return e.h.Random()*(max-min) + min, nil
}

func titles(args []interface{}) []string {
	xs := flatten(args)
	acc := make([]string, len(xs))
	for i, x := range xs {
		acc[i] = core.ToString(x)
	}
	return acc
}

func count(ss []string, s string) int {
	n := 0
	for _, x := range ss {
		if x == s {
			n++
		}
	}
	return n
}

func lastIndex(ss []string, s string) int {
	for i := len(ss) - 1; 0 <= i; i-- {
		if ss[i] == s {
			return i
		}
	}
	return -1
}

// hasVisited reports whether every given passage is in the history.
func (e *Engine) hasVisited(args ...interface{}) (bool, error) {
	if len(args) == 0 {
		return false, insufficient("hasVisited")
	}
	if e.h.IsEmpty() {
		return false, nil
	}
	played := e.h.Passages()
	for _, title := range titles(args) {
		if lastIndex(played, title) < 0 {
			return false, nil
		}
	}
	return true, nil
}

// lastVisited returns the turns since the most recent visit to the
// passage, or -1.  With several passages, it returns the lowest
// count.
func (e *Engine) lastVisited(args ...interface{}) (float64, error) {
	if len(args) == 0 {
		return 0, insufficient("lastVisited")
	}
	if e.h.IsEmpty() {
		return -1, nil
	}
	played := e.h.Passages()
	turns := e.h.Turns()
	for _, title := range titles(args) {
		if turns < 0 {
			break
		}
		n := -1
		if i := lastIndex(played, title); 0 <= i {
			n = len(played) - 1 - i
		}
		if n < turns {
			turns = n
		}
	}
	return float64(turns), nil
}

// visited counts the visits to the passage, by default the current
// one.  With several passages, it returns the lowest count.
func (e *Engine) visited(args ...interface{}) float64 {
	if e.h.IsEmpty() {
		return 0
	}
	needles := titles(args)
	if len(needles) == 0 {
		needles = []string{e.h.Active().Title}
	}
	played := e.h.Passages()
	n := e.h.Turns()
	for _, title := range needles {
		if n <= 0 {
			break
		}
		if c := count(played, title); c < n {
			n = c
		}
	}
	return float64(n)
}

// visitedTags counts the played moments whose passages have every
// given tag.
func (e *Engine) visitedTags(args ...interface{}) (float64, error) {
	if len(args) == 0 {
		return 0, insufficient("visitedTags")
	}
	needles := titles(args)
	seen := make(map[string]bool)
	n := 0
	for _, title := range e.h.Passages() {
		has, have := seen[title]
		if !have {
			has = false
			if p := e.Story.Get(title); p != nil && len(p.Tags) > 0 {
				has = true
				for _, tag := range needles {
					if !p.HasTag(tag) {
						has = false
						break
					}
				}
			}
			seen[title] = has
		}
		if has {
			n++
		}
	}
	return float64(n), nil
}

func (e *Engine) passage() string {
	return e.h.Active().Title
}

// previous returns the most recent passage with a different title
// than the current one, or the one offset turns ago.
func (e *Engine) previous(args ...interface{}) (string, error) {
	played := e.h.Passages()
	if len(args) > 0 {
		offset := core.ToNumber(core.Normalize(args[0]))
		if offset < 1 || offset != math.Trunc(offset) {
			return "", errors.New("previous offset parameter must be a positive integer greater than zero")
		}
		if i := len(played) - 1 - int(offset); 0 <= i {
			return played[i], nil
		}
		return "", nil
	}
	current := e.h.Active().Title
	for i := len(played) - 2; 0 <= i; i-- {
		if played[i] != current {
			return played[i], nil
		}
	}
	return "", nil
}

func (e *Engine) turns() float64 {
	return float64(e.h.Turns())
}

// time returns the milliseconds since the current passage was shown.
func (e *Engine) time() float64 {
	if e.lastPlay.IsZero() {
		return 0
	}
	return float64(time.Since(e.lastPlay).Milliseconds())
}

// tags returns the tags of the given passages, by default the
// current one.
func (e *Engine) tags(args ...interface{}) ([]interface{}, error) {
	needles := titles(args)
	if len(needles) == 0 {
		needles = []string{e.h.Active().Title}
	}
	acc := []interface{}{}
	for _, title := range needles {
		p, err := e.Story.Lookup(title)
		if err != nil {
			return nil, err
		}
		for _, t := range p.Tags {
			acc = append(acc, t)
		}
	}
	return acc, nil
}
