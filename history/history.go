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

package history

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/notify"
	"github.com/Comcast/tale/storage"
)

// SessionKey is where the history checkpoints itself.
const SessionKey = "state"

// DefaultMaxStates is the default limit on the number of moments.
const DefaultMaxStates = 150

// History is the moment stack for one running story.
//
// A History is not safe for concurrent use.  The engine that owns it
// serializes access.
type History struct {
	// MaxStates limits the number of moments.  Zero means no
	// limit.
	MaxStates int

	// Session, if not nil, gets a checkpoint whenever the active
	// moment changes.
	Session storage.Session

	// Notifier, if not nil, hears about every history update.
	Notifier notify.Notifier

	// Show, if not nil, is called after GoTo and Unmarshal to
	// render the newly active moment.
	Show func(ctx context.Context) error

	Logger *slog.Logger

	moments       []*Moment
	active        *Moment
	activeIndex   int
	expired       int
	expiredLast   string
	expiredUnique string
	prng          *PRNG
}

// New makes an empty History.
func New(maxStates int) *History {
	if maxStates < 0 {
		maxStates = 0
	}
	return &History{
		MaxStates:   maxStates,
		active:      NewMoment("", nil),
		activeIndex: -1,
	}
}

// Reset forgets everything except the PRNG's seed.
func (h *History) Reset() {
	h.moments = nil
	h.active = NewMoment("", nil)
	h.activeIndex = -1
	h.expired = 0
	h.expiredLast = ""
	h.expiredUnique = ""
	if h.prng != nil {
		h.prng = NewPRNG(h.prng.Seed, false)
	}
}

// Active returns the active moment, which is a private copy.
// Changing its variables doesn't change the history.
func (h *History) Active() *Moment {
	return h.active
}

// ActiveIndex returns the index of the active moment or -1.
func (h *History) ActiveIndex() int {
	return h.activeIndex
}

// Moments returns the stack.  Don't modify it.
func (h *History) Moments() []*Moment {
	return h.moments
}

// Length is the number of played moments, which doesn't count the
// future.
func (h *History) Length() int {
	return h.activeIndex + 1
}

// Size is the number of moments, past and future.
func (h *History) Size() int {
	return len(h.moments)
}

func (h *History) IsEmpty() bool {
	return len(h.moments) == 0
}

// Top returns the most recent moment or nil.
func (h *History) Top() *Moment {
	if len(h.moments) == 0 {
		return nil
	}
	return h.moments[len(h.moments)-1]
}

// Bottom returns the oldest moment or nil.
func (h *History) Bottom() *Moment {
	if len(h.moments) == 0 {
		return nil
	}
	return h.moments[0]
}

// Index returns the moment at i, which must not be in the future.
func (h *History) Index(i int) *Moment {
	if h.IsEmpty() || i < 0 || h.activeIndex < i {
		return nil
	}
	return h.moments[i]
}

// Peek returns the moment at offset at back from the active moment.
func (h *History) Peek(at int) *Moment {
	if h.IsEmpty() {
		return nil
	}
	if at < 0 {
		at = -at
	}
	at++
	if h.Length() < at {
		return nil
	}
	return h.moments[h.Length()-at]
}

// Has reports whether a played moment has the given title.
func (h *History) Has(title string) bool {
	if h.IsEmpty() || title == "" {
		return false
	}
	for i := h.activeIndex; 0 <= i; i-- {
		if h.moments[i].Title == title {
			return true
		}
	}
	return false
}

// HasPlayed is like Has but also remembers the titles of expired
// moments.
func (h *History) HasPlayed(title string) bool {
	if title == "" {
		return false
	}
	return h.Has(title) || title == h.expiredLast || title == h.expiredUnique
}

// Passages returns the titles of the played moments, oldest first.
func (h *History) Passages() []string {
	acc := make([]string, 0, h.Length())
	for i := 0; i <= h.activeIndex; i++ {
		acc = append(acc, h.moments[i].Title)
	}
	return acc
}

// Turns counts every played moment including the expired ones.
func (h *History) Turns() int {
	return h.expired + h.Length()
}

func (h *History) Expired() int {
	return h.expired
}

func (h *History) ExpiredLast() string {
	return h.expiredLast
}

func (h *History) ExpiredUnique() string {
	return h.expiredUnique
}

// Push adds m, discarding any future moments, trims the oldest
// moments beyond MaxStates, and activates m.  It returns the new
// Length.
func (h *History) Push(ctx context.Context, m *Moment) (int, error) {
	if m == nil {
		return h.Length(), nil
	}

	if h.Length() < h.Size() {
		logs.Or(h.Logger).Debug("non-top push", "discarding", h.Size()-h.Length())
		h.moments = h.moments[:h.Length()]
	}

	h.moments = append(h.moments, m)
	if h.prng != nil {
		m.Pull = h.prng.Pull
	}

	if h.MaxStates != 0 {
		for h.MaxStates < len(h.moments) {
			h.expiredLast = h.moments[0].Title
			h.moments[0] = nil
			h.moments = h.moments[1:]
			if h.expiredLast != h.moments[0].Title {
				h.expiredUnique = h.expiredLast
			}
			h.expired++
		}
	}

	h.activeIndex = len(h.moments) - 1
	if _, err := h.Activate(ctx, h.activeIndex); err != nil {
		return h.Length(), err
	}
	return h.Length(), nil
}

// GoTo activates and shows the moment at i.  It returns false,
// changing nothing, if i is out of range or already active.
func (h *History) GoTo(ctx context.Context, i int) (bool, error) {
	if i < 0 || h.Size() <= i || i == h.activeIndex {
		return false, nil
	}
	h.activeIndex = i
	if _, err := h.Activate(ctx, i); err != nil {
		return true, err
	}
	if h.Show != nil {
		if err := h.Show(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Go is GoTo relative to the active moment.
func (h *History) Go(ctx context.Context, offset int) (bool, error) {
	if offset == 0 {
		return false, nil
	}
	return h.GoTo(ctx, h.activeIndex+offset)
}

func (h *History) Backward(ctx context.Context) (bool, error) {
	return h.Go(ctx, -1)
}

func (h *History) Forward(ctx context.Context) (bool, error) {
	return h.Go(ctx, 1)
}

// Activate makes a copy of the given moment (a *Moment, or an int
// index into the stack) the active moment.  The PRNG is rebuilt to
// the moment's draw count, the session is checkpointed, and the
// Notifier is told.
func (h *History) Activate(ctx context.Context, x interface{}) (*Moment, error) {
	switch vv := x.(type) {
	case nil:
		return nil, ErrNullMoment
	case *Moment:
		if vv == nil {
			return nil, ErrNullMoment
		}
		h.active = vv.Clone()
	case Moment:
		h.active = vv.Clone()
	case int:
		if h.IsEmpty() {
			return nil, ErrEmptyHistory
		}
		if vv < 0 || h.Size() <= vv {
			return nil, &IndexOutOfRange{Index: vv, Size: h.Size()}
		}
		h.active = h.moments[vv].Clone()
	default:
		return nil, &BadMomentType{Value: x}
	}

	if h.prng != nil {
		h.prng = RestorePRNG(h.prng.Seed, h.active.Pull)
	}

	if h.Session != nil {
		if err := h.Session.Set(ctx, SessionKey, h.Marshal(false)); err != nil {
			return h.active, err
		}
	}

	if h.Notifier != nil {
		h.Notifier.Notify(ctx, notify.Event{
			Type:   notify.HistoryUpdate,
			Index:  h.activeIndex,
			Length: h.Length(),
			Size:   h.Size(),
			Title:  h.active.Title,
		})
	}

	return h.active, nil
}

// InitPRNG enables the seedable PRNG.  It must be called before the
// first Push.
func (h *History) InitPRNG(seed string, useEntropy bool) error {
	if !h.IsEmpty() {
		return ErrPRNGAfterPush
	}
	h.prng = NewPRNG(seed, useEntropy)
	h.active.Pull = h.prng.Pull
	return nil
}

// PRNG returns the seedable PRNG or nil.
func (h *History) PRNG() *PRNG {
	return h.prng
}

// Random returns a number in [0,1) from the seedable PRNG if there is
// one.
func (h *History) Random() float64 {
	if h.prng != nil {
		return h.prng.Random()
	}
	return rand.Float64()
}
